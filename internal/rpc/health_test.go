package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floppylabs/floppy/internal/chain"
)

// evmRPCServer answers every request with blockNum as eth_blockNumber.
func evmRPCServer(t *testing.T, blockNum uint64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"0x%x"}`, blockNum)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthCheckHealthy(t *testing.T) {
	srv := evmRPCServer(t, 1000)

	ep := HealthCheck(context.Background(), Target{Label: "rpc", URL: srv.URL}, 0, time.Second)
	require.NoError(t, ep.Err)
	assert.True(t, ep.Healthy)
	assert.Equal(t, "rpc", ep.Label)
	assert.Equal(t, uint64(1000), ep.BlockNumber)
	assert.Greater(t, ep.Latency, time.Duration(0))
}

func TestHealthCheckUnreachable(t *testing.T) {
	ep := HealthCheck(context.Background(), Target{URL: "http://127.0.0.1:19994"}, 0, time.Second)
	assert.Error(t, ep.Err)
	assert.False(t, ep.Healthy)
}

func TestHealthCheckStale(t *testing.T) {
	srv := evmRPCServer(t, 500)

	ep := HealthCheck(context.Background(), Target{URL: srv.URL}, 510, time.Second)
	require.NoError(t, ep.Err)
	assert.False(t, ep.Healthy)
	assert.Equal(t, uint64(10), ep.Lag)
}

func TestHealthCheckWithinThreshold(t *testing.T) {
	srv := evmRPCServer(t, 997)

	ep := HealthCheck(context.Background(), Target{URL: srv.URL}, 1000, time.Second)
	assert.True(t, ep.Healthy, "exactly at threshold is still healthy")
	assert.Equal(t, uint64(3), ep.Lag)
}

func TestCheckAllMarksLaggingNode(t *testing.T) {
	fresh := evmRPCServer(t, 2000)
	behind := evmRPCServer(t, 1990)

	eps := CheckAll(context.Background(), []Target{
		{Label: "rpc", URL: fresh.URL},
		{Label: "archive", URL: behind.URL},
	}, time.Second)

	require.Len(t, eps, 2)
	assert.Equal(t, "rpc", eps[0].Label)
	assert.True(t, eps[0].Healthy)
	assert.Equal(t, uint64(0), eps[0].Lag)
	assert.False(t, eps[1].Healthy)
	assert.Equal(t, uint64(10), eps[1].Lag)
}

func TestFastest(t *testing.T) {
	eps := []Endpoint{
		{URL: "slow", Latency: 300 * time.Millisecond, Healthy: true},
		{URL: "down", Latency: time.Millisecond, Err: errors.New("refused")},
		{URL: "fast", Latency: 50 * time.Millisecond, Healthy: true},
	}
	best, err := Fastest(eps)
	require.NoError(t, err)
	assert.Equal(t, "fast", best.URL)
}

func TestFastestNoneHealthy(t *testing.T) {
	_, err := Fastest([]Endpoint{{URL: "down", Err: errors.New("refused")}})
	assert.ErrorIs(t, err, ErrNoHealthyRPC)

	_, err = Fastest(nil)
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}

func TestTargets(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("ronin")
	require.NoError(t, err)

	ts := Targets(c)
	require.Len(t, ts, 2)
	assert.Equal(t, "rpc", ts[0].Label)
	assert.Equal(t, "archive", ts[1].Label)
	assert.NotEqual(t, ts[0].URL, ts[1].URL)
}
