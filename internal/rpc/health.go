// Package rpc health-checks the JSON-RPC endpoints of a network.
package rpc

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/floppylabs/floppy/internal/chain"
)

// ErrNoHealthyRPC is returned when no endpoint passed the check.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// StaleBlockThreshold is how far behind the best head a node may be and
// still count as healthy.
const StaleBlockThreshold = 3

// DefaultCheckTimeout bounds a single endpoint check.
const DefaultCheckTimeout = 5 * time.Second

// Endpoint is the measured state of one RPC endpoint.
type Endpoint struct {
	Label       string
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Lag         uint64 // blocks behind the best endpoint
	Healthy     bool
	Err         error
}

// Target names an endpoint to check.
type Target struct {
	Label string
	URL   string
}

// Targets lists the endpoints of c: the standard node, then the archive node
// when it has a distinct URL.
func Targets(c *chain.Chain) []Target {
	ts := []Target{{Label: "rpc", URL: c.Endpoint(false)}}
	if archive := c.Endpoint(true); archive != ts[0].URL {
		ts = append(ts, Target{Label: "archive", URL: archive})
	}
	return ts
}

// HealthCheck dials url and asks for the head block. bestBlock of 0 skips the
// staleness check.
func HealthCheck(ctx context.Context, t Target, bestBlock uint64, timeout time.Duration) Endpoint {
	ep := Endpoint{Label: t.Label, URL: t.URL}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	client, err := chain.Dial(ctx, t.URL, timeout)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer client.Close()

	ep.BlockNumber, ep.Err = client.BlockNumber(ctx)
	ep.Latency = time.Since(started)
	ep.Healthy = ep.Err == nil
	markStale(&ep, bestBlock)
	return ep
}

// CheckAll checks every target in parallel and marks nodes that trail the
// best head by more than StaleBlockThreshold. Results keep the target order.
func CheckAll(ctx context.Context, targets []Target, timeout time.Duration) []Endpoint {
	results := make([]Endpoint, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(idx int, t Target) {
			defer wg.Done()
			results[idx] = HealthCheck(ctx, t, 0, timeout)
		}(i, t)
	}
	wg.Wait()

	var best uint64
	for _, ep := range results {
		if ep.Err == nil && ep.BlockNumber > best {
			best = ep.BlockNumber
		}
	}
	for i := range results {
		markStale(&results[i], best)
	}
	return results
}

// Fastest returns the healthy endpoint with the lowest latency.
func Fastest(endpoints []Endpoint) (*Endpoint, error) {
	var healthy []Endpoint
	for _, ep := range endpoints {
		if ep.Healthy {
			healthy = append(healthy, ep)
		}
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthyRPC
	}
	sort.SliceStable(healthy, func(i, j int) bool { return healthy[i].Latency < healthy[j].Latency })
	return &healthy[0], nil
}

func markStale(ep *Endpoint, best uint64) {
	if ep.Err != nil || best == 0 || ep.BlockNumber >= best {
		return
	}
	ep.Lag = best - ep.BlockNumber
	if ep.Lag > StaleBlockThreshold {
		ep.Healthy = false
	}
}
