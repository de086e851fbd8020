package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Scanner metrics, labelled by scan name.
var (
	ScanBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floppy_scan_batches_total",
		Help: "The number of log batches fetched and folded",
	}, []string{"scan"})

	ScanLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floppy_scan_logs_total",
		Help: "The number of raw logs returned by eth_getLogs",
	}, []string{"scan"})

	ScanDecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floppy_scan_decode_errors_total",
		Help: "The number of logs that did not match the expected event schema",
	}, []string{"scan"})

	ScanRPCErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floppy_scan_rpc_errors_total",
		Help: "The number of failed log queries by error class",
	}, []string{"scan", "class"})

	ScanLastBlockTracked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "floppy_scan_last_block_tracked",
		Help: "The end block of the last completed batch",
	}, []string{"scan"})
)

// Watcher metrics
var (
	WatchPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floppy_watch_polls_total",
		Help: "The number of polling rounds run by the bet watcher",
	})

	WatchBetsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floppy_watch_bets_seen_total",
		Help: "The number of BetPlaced events seen by the bet watcher",
	})
)

// ClassifyRPCError maps an RPC error to a coarse class for metric labels.
func ClassifyRPCError(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "internal server error"):
		return "server_error"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "client_error"
	}
}

// Serve exposes the default registry on addr until ctx is done.
// An empty addr disables the endpoint.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
