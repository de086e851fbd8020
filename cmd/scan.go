package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/metrics"
	"github.com/floppylabs/floppy/internal/scanner"
	"github.com/floppylabs/floppy/internal/sink"
	"github.com/floppylabs/floppy/internal/ui"
)

var (
	scanFrom        uint64
	scanTo          string
	scanSkipBad     bool
	scanCheckpoint  string
	scanResume      bool
	scanMetricsAddr string
	scanContract    string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan contract event logs over a block range",
	Long: `Sweep a block range for one contract event in fixed-size batches and
report aggregate totals.

Blocks are queried in batches of --batch-size (inclusive), one request at a
time, with --delay between batches or a --rps token bucket. When a batch
fails the scan stops, prints the last block tracked and the totals so far,
writes any partial output and exits non-zero. With --checkpoint the status
is saved so --resume continues at the next block.`,
}

// scanJob describes one scan: which event to sweep and how to aggregate it.
type scanJob[E, A any] struct {
	name        string // checkpoint and metrics label
	role        string // registry contract role
	defaultFrom uint64 // first block on ronin when --from is not given
	decoder     *contract.EventDecoder
	indexed     func(addr common.Address) [][]common.Hash
	decode      func(contract.Event) (E, error)
	fold        scanner.FoldFunc[A, E]
	initial     func() A
	seed        func(totals map[string]string) (A, error) // resume from checkpoint totals
	totals      func(A) map[string]string
	report      func(A) [][2]string
	finish      func(A) error // runs on success and failure
}

// decodeLog decodes l with the job's event and maps it to E.
func (job scanJob[E, A]) decodeLog(l types.Log) (E, error) {
	ev, err := job.decoder.Decode(l)
	if err != nil {
		var zero E
		return zero, err
	}
	return job.decode(ev)
}

// reportedError is an error whose details were already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// runScan resolves the range and contract, runs the scan and reports.
func runScan[E, A any](cmd *cobra.Command, job scanJob[E, A]) error {
	ctx := cmd.Context()
	out := stdout(cmd)

	c, err := resolveNetwork()
	if err != nil {
		return err
	}
	addr, err := contractAddress(c, job.role, scanContract)
	if err != nil {
		return err
	}
	if scanResume && scanCheckpoint == "" {
		return fmt.Errorf("--resume needs --checkpoint")
	}

	client, err := dialClient(ctx, c, true)
	if err != nil {
		return err
	}
	defer client.Close()

	acc := job.initial()
	var prev *sink.Checkpoint
	var r scanner.Range
	if scanResume {
		prev, err = sink.LoadCheckpoint(scanCheckpoint)
		if err != nil {
			return err
		}
		rem, more, err := prev.Resume(job.name, c.Name, addr.Hex(), cfg.Scan.BatchSize)
		if err != nil {
			return err
		}
		if job.seed != nil {
			if acc, err = job.seed(prev.Totals); err != nil {
				return fmt.Errorf("restoring totals from %s: %w", scanCheckpoint, err)
			}
		}
		if !more {
			fmt.Fprintln(out, ui.Info(fmt.Sprintf("Checkpoint %s is complete (last block %d).", scanCheckpoint, prev.LastBlockTracked)))
			fmt.Fprintln(out, ui.KeyValueBlock("Totals", job.report(acc)))
			return nil
		}
		r = rem
		fmt.Fprintln(out, ui.Info(fmt.Sprintf("Resuming %s at block %d", job.name, r.From)))
	} else {
		if r, err = scanRange(cmd, client, c, job.defaultFrom); err != nil {
			return err
		}
	}

	if scanMetricsAddr != "" {
		metrics.Serve(ctx, scanMetricsAddr)
	}

	s := scanner.New(client,
		scanner.WithName(job.name),
		scanner.WithPacer(scanPacer()),
		scanner.WithDecodePolicy(decodePolicy()),
		scanner.WithLogger(log.Logger),
		scanner.OnBatch(func(p scanner.Progress) { fmt.Fprintln(out, ui.BatchLine(p)) }),
	)

	var indexed [][]common.Hash
	if job.indexed != nil {
		indexed = job.indexed(addr)
	}
	filter := scanner.NewFilter(addr, job.decoder.Signature(), indexed...)

	fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Scanning %s on %s at %s, blocks %d to %d (%d batches of %d)",
		job.decoder.Signature(), c.DisplayName, addr.Hex(), r.From, r.To, r.BatchCount(), r.BatchSize)))

	res, scanErr := scanner.Scan(ctx, s, r, filter, job.decodeLog, job.fold, acc)

	var finishErr error
	if job.finish != nil {
		finishErr = job.finish(res.Accumulator)
	}

	cp := sink.NewCheckpoint(prev, job.name, c.Name, addr.Hex(), r, res, scanErr)
	if scanCheckpoint != "" {
		if job.totals != nil {
			cp.Totals = job.totals(res.Accumulator)
		}
		if err := sink.SaveCheckpoint(scanCheckpoint, cp); err != nil {
			log.Error().Err(err).Msg("saving checkpoint")
		}
	}

	printSkipped(out, res.Skipped)
	pairs := append([][2]string{
		{"Last block", strconv.FormatUint(cp.LastBlockTracked, 10)},
		{"Batches", strconv.FormatUint(cp.BatchesDone, 10)},
		{"Events", strconv.FormatUint(cp.EventCount, 10)},
	}, job.report(res.Accumulator)...)
	fmt.Fprintln(out, ui.KeyValueBlock("Totals", pairs))

	if scanErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.FailureLine(cp.LastBlockTracked, cp.BatchesDone, scanErr))
		if scanCheckpoint != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Meta("Continue with --resume --checkpoint "+scanCheckpoint))
		}
		return reportedError{scanErr}
	}
	return finishErr
}

// scanRange builds the range from --from/--to and the config batch size.
func scanRange(cmd *cobra.Command, client *chain.Client, c *chain.Chain, defaultFrom uint64) (scanner.Range, error) {
	from := scanFrom
	if !cmd.Flags().Changed("from") {
		if defaultFrom == 0 || c.Name != "ronin" {
			return scanner.Range{}, fmt.Errorf("--from is required")
		}
		from = defaultFrom
	}

	var to uint64
	if scanTo == "" || strings.EqualFold(scanTo, "latest") {
		head, err := client.BlockNumber(cmd.Context())
		if err != nil {
			return scanner.Range{}, fmt.Errorf("resolving latest block: %w", err)
		}
		to = head
	} else {
		n, err := strconv.ParseUint(scanTo, 10, 64)
		if err != nil {
			return scanner.Range{}, fmt.Errorf("--to: invalid block %q", scanTo)
		}
		to = n
	}

	r := scanner.Range{From: from, To: to, BatchSize: cfg.Scan.BatchSize}
	if err := r.Validate(); err != nil {
		return scanner.Range{}, err
	}
	return r, nil
}

func scanPacer() scanner.Pacer {
	switch {
	case cfg.Scan.RPS > 0:
		return scanner.RateLimit(cfg.Scan.RPS, 1)
	case cfg.Scan.Delay == 0:
		return scanner.NoDelay()
	default:
		return scanner.FixedDelay(cfg.Scan.Delay)
	}
}

func decodePolicy() scanner.DecodePolicy {
	if scanSkipBad {
		return scanner.SkipDecodeErrors
	}
	return scanner.AbortOnDecodeError
}

func printSkipped(out io.Writer, skipped []*scanner.DecodeError) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%d undecodable logs skipped", len(skipped))))
	for _, de := range skipped {
		fmt.Fprintln(out, ui.Meta("  "+de.Error()))
	}
}

// isReported reports whether err was already printed by the command.
func isReported(err error) bool {
	var re reportedError
	return errors.As(err, &re)
}

func init() {
	pf := scanCmd.PersistentFlags()
	pf.Uint64Var(&scanFrom, "from", 0, "first block (inclusive)")
	pf.StringVar(&scanTo, "to", "latest", `last block (inclusive) or "latest"`)
	pf.Uint64("batch-size", 0, "blocks per eth_getLogs request (default 499)")
	pf.Duration("delay", 0, "pause between batches (default 100ms)")
	pf.Float64("rps", 0, "requests per second; replaces --delay with a token bucket")
	pf.BoolVar(&scanSkipBad, "skip-bad-logs", false, "skip logs that do not decode instead of aborting")
	pf.StringVar(&scanCheckpoint, "checkpoint", "", "write scan status to this JSON file")
	pf.BoolVar(&scanResume, "resume", false, "continue the scan recorded in --checkpoint")
	pf.StringVar(&scanMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.StringVar(&scanContract, "contract", "", "contract address (default: config or network deployment)")

	v.BindPFlag("scan.batch_size", pf.Lookup("batch-size")) //nolint:errcheck
	v.BindPFlag("scan.delay", pf.Lookup("delay"))           //nolint:errcheck
	v.BindPFlag("scan.rps", pf.Lookup("rps"))               //nolint:errcheck

	scanCmd.AddCommand(scanDistributedCmd, scanForgeCmd, scanTransfersCmd, scanEventsCmd)
}
