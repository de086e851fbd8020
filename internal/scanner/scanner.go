// Package scanner sweeps a block range for the logs of one contract event in
// fixed-size batches, folding every decoded event into a caller-defined
// accumulator.
//
// A scan is strictly sequential: one eth_getLogs call is in flight at a time
// and batches are processed in ascending block order, separated by a Pacer.
// Any RPC failure aborts the scan; the partial Result returned alongside the
// error covers exactly the batches that completed, so a later run can resume
// from Result.LastBlockTracked+1.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/floppylabs/floppy/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFetcher is the part of the RPC provider the scanner depends on.
// *ethclient.Client and *chain.Client satisfy it.
type LogFetcher interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// DecodeFunc interprets one raw log entry.
type DecodeFunc[E any] func(types.Log) (E, error)

// FoldFunc folds one decoded event into the accumulator. It must treat acc as
// a value and return the updated accumulator.
type FoldFunc[A, E any] func(acc A, ev E) A

// DecodePolicy decides what happens to a log that fails to decode.
type DecodePolicy int

const (
	// AbortOnDecodeError stops the scan at the batch holding the bad entry.
	AbortOnDecodeError DecodePolicy = iota
	// SkipDecodeErrors records the bad entry in Result.Skipped and continues.
	SkipDecodeErrors
)

func (p DecodePolicy) String() string {
	if p == SkipDecodeErrors {
		return "skip"
	}
	return "abort"
}

// Progress describes a batch that has just been committed.
type Progress struct {
	Batch            Batch
	Logs             int
	Events           uint64
	LastBlockTracked uint64
	Elapsed          time.Duration
}

// Result is the outcome of a scan. It is valid on failure as well and then
// reflects the batches completed before the error.
type Result[A any] struct {
	// LastBlockTracked is the end block of the last fully completed batch,
	// or From-1 when no batch completed, so LastBlockTracked+1 is always the
	// next block to scan. A range starting at block 0 leaves it at 0 with
	// BatchesDone == 0.
	LastBlockTracked uint64
	BatchesDone      uint64
	EventCount       uint64
	Skipped          []*DecodeError
	Accumulator      A
}

// Remaining returns the part of r not yet covered by the result, and false
// once the whole range has been scanned.
func (res Result[A]) Remaining(r Range) (Range, bool) {
	if res.BatchesDone == 0 {
		return r, true
	}
	if res.LastBlockTracked >= r.To {
		return Range{}, false
	}
	return Range{From: res.LastBlockTracked + 1, To: r.To, BatchSize: r.BatchSize}, true
}

// Scanner holds the scan policy shared by every Scan call. The underlying
// client is only read from and may be shared between scanners.
type Scanner struct {
	client  LogFetcher
	name    string
	pacer   Pacer
	policy  DecodePolicy
	logger  zerolog.Logger
	onBatch func(Progress)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithName labels logs and metrics emitted by the scanner.
func WithName(name string) Option { return func(s *Scanner) { s.name = name } }

// WithPacer replaces the default 100ms fixed delay.
func WithPacer(p Pacer) Option { return func(s *Scanner) { s.pacer = p } }

// WithDecodePolicy sets the handling of logs that fail to decode.
func WithDecodePolicy(p DecodePolicy) Option { return func(s *Scanner) { s.policy = p } }

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Scanner) { s.logger = l } }

// OnBatch registers a progress callback run after each committed batch.
func OnBatch(fn func(Progress)) Option { return func(s *Scanner) { s.onBatch = fn } }

// New creates a Scanner reading logs from client.
func New(client LogFetcher, opts ...Option) *Scanner {
	s := &Scanner{
		client: client,
		name:   "scan",
		pacer:  FixedDelay(DefaultDelay),
		policy: AbortOnDecodeError,
		logger: log.Logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With().Str("scan", s.name).Logger()
	return s
}

// Scan sweeps r for logs matching f, decoding each with decode and folding it
// into the accumulator seeded with initial.
//
// On error the returned Result covers the batches completed so far. RPC
// failures are reported as *BatchError and decode failures (under
// AbortOnDecodeError) as *DecodeError; cancellation returns ctx.Err() wrapped.
func Scan[E, A any](ctx context.Context, s *Scanner, r Range, f Filter, decode DecodeFunc[E], fold FoldFunc[A, E], initial A) (Result[A], error) {
	res := Result[A]{Accumulator: initial}
	if err := r.Validate(); err != nil {
		return res, err
	}
	if r.From > 0 {
		res.LastBlockTracked = r.From - 1
	}

	count := r.BatchCount()
	s.logger.Info().
		Uint64("from", r.From).
		Uint64("to", r.To).
		Uint64("batch_size", r.BatchSize).
		Uint64("batches", count).
		Str("address", f.Address.Hex()).
		Str("decode_policy", s.policy.String()).
		Msg("starting scan")

	for i := uint64(0); i < count; i++ {
		b := r.Batch(i)
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("scan stopped before %s: %w", b, err)
		}

		started := time.Now()
		logs, err := s.client.FilterLogs(ctx, f.Query(b))
		if err != nil {
			metrics.ScanRPCErrors.WithLabelValues(s.name, metrics.ClassifyRPCError(err)).Inc()
			s.logger.Error().Err(err).Uint64("start", b.Start).Uint64("end", b.End).
				Uint64("last_block_tracked", res.LastBlockTracked).Msg("log query failed")
			return res, &BatchError{Batch: b, Err: err}
		}

		events, skipped, err := decodeBatch(s, logs, decode)
		if err != nil {
			return res, err
		}

		acc := res.Accumulator
		for _, ev := range events {
			acc = fold(acc, ev)
		}
		res.Accumulator = acc
		res.EventCount += uint64(len(events))
		res.Skipped = append(res.Skipped, skipped...)
		res.LastBlockTracked = b.End
		res.BatchesDone++

		metrics.ScanBatches.WithLabelValues(s.name).Inc()
		metrics.ScanLogs.WithLabelValues(s.name).Add(float64(len(logs)))
		metrics.ScanLastBlockTracked.WithLabelValues(s.name).Set(float64(b.End))

		progress := Progress{
			Batch:            b,
			Logs:             len(logs),
			Events:           res.EventCount,
			LastBlockTracked: res.LastBlockTracked,
			Elapsed:          time.Since(started),
		}
		s.logger.Debug().
			Uint64("batch", b.Index+1).
			Uint64("of", b.Count).
			Uint64("start", b.Start).
			Uint64("end", b.End).
			Int("logs", len(logs)).
			Dur("elapsed", progress.Elapsed).
			Msg("batch done")
		if s.onBatch != nil {
			s.onBatch(progress)
		}

		if b.Last() {
			break
		}
		if err := s.pacer.Wait(ctx, b); err != nil {
			return res, fmt.Errorf("scan stopped after %s: %w", b, err)
		}
	}

	s.logger.Info().
		Uint64("events", res.EventCount).
		Int("skipped", len(res.Skipped)).
		Uint64("last_block_tracked", res.LastBlockTracked).
		Msg("scan complete")
	return res, nil
}

// decodeBatch decodes a whole batch before anything is folded, so an aborted
// batch never leaves partial folds behind.
func decodeBatch[E any](s *Scanner, logs []types.Log, decode DecodeFunc[E]) ([]E, []*DecodeError, error) {
	events := make([]E, 0, len(logs))
	var skipped []*DecodeError
	for _, l := range logs {
		ev, err := decode(l)
		if err == nil {
			events = append(events, ev)
			continue
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			de = NewDecodeError(l, err)
		}
		metrics.ScanDecodeErrors.WithLabelValues(s.name).Inc()
		if s.policy == AbortOnDecodeError {
			s.logger.Error().Err(de.Err).Uint64("block", de.BlockNumber).
				Str("tx", de.TxHash.Hex()).Uint("log_index", de.LogIndex).Msg("undecodable log")
			return nil, nil, de
		}
		s.logger.Warn().Err(de.Err).Uint64("block", de.BlockNumber).
			Str("tx", de.TxHash.Hex()).Uint("log_index", de.LogIndex).Msg("skipping undecodable log")
		skipped = append(skipped, de)
	}
	return events, skipped, nil
}
