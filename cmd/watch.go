package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/metrics"
	"github.com/floppylabs/floppy/internal/scanner"
	"github.com/floppylabs/floppy/internal/ui"
)

var (
	watchInterval    time.Duration
	watchContract    string
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live contract activity",
}

var watchBetsCmd = &cobra.Command{
	Use:   "bets",
	Short: "Stream new bets placed on the gamble contract",
	Long: `Watch the gamble contract for BetPlaced events in real time.

Every --interval the new blocks since the last poll are scanned for
BetPlaced and each bet is looked up with getBetInfoById. Works with plain
HTTP RPC endpoints.

Keyboard controls:
  ↑↓ / j k   navigate rows
  o           open selected tx in explorer
  q           quit

Examples:
  floppy watch bets --network saigon
  floppy watch bets --interval 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return fmt.Errorf("--interval: must be positive, got %s", watchInterval)
		}
		c, err := resolveNetwork()
		if err != nil {
			return err
		}
		addr, err := contractAddress(c, chain.ContractGamble, watchContract)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client, err := dialClient(ctx, c, false)
		if err != nil {
			return err
		}
		defer client.Close()

		p, err := newBetPoller(client, c, addr, cfg.Scan.BatchSize)
		if err != nil {
			return err
		}
		if watchMetricsAddr != "" {
			metrics.Serve(ctx, watchMetricsAddr)
		}

		m := ui.BetFeedModel{Contract: addr.Hex(), Chain: c.DisplayName}
		prog := tea.NewProgram(m,
			tea.WithContext(ctx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(stdout(cmd)),
		)

		pollCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go p.run(pollCtx, client, watchInterval, prog.Send)

		_, err = prog.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	},
}

// betPoller turns BetPlaced logs into feed rows.
type betPoller struct {
	scanner   *scanner.Scanner
	filter    scanner.Filter
	decoder   *contract.EventDecoder
	gamble    *contract.Gamble
	chain     *chain.Chain
	batchSize uint64
}

type pollBackend interface {
	scanner.LogFetcher
	contract.CallBackend
}

func newBetPoller(backend pollBackend, c *chain.Chain, addr common.Address, batch uint64) (*betPoller, error) {
	dec, err := contract.BuiltinEventDecoder(contract.BuiltinGamble, contract.EventBetPlaced)
	if err != nil {
		return nil, err
	}
	g, err := contract.NewGamble(backend, addr)
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		batch = scanner.DefaultBatchSize
	}
	return &betPoller{
		scanner: scanner.New(backend,
			scanner.WithName("watch"),
			scanner.WithPacer(scanner.NoDelay()),
			scanner.WithDecodePolicy(scanner.SkipDecodeErrors),
			scanner.WithLogger(log.Logger),
		),
		filter:    scanner.NewFilter(addr, dec.Signature()),
		decoder:   dec,
		gamble:    g,
		chain:     c,
		batchSize: batch,
	}, nil
}

// poll scans [from, to] and returns one row per bet together with the last
// block covered. Rows for blocks before an RPC failure are still returned.
func (p *betPoller) poll(ctx context.Context, from, to uint64) ([]ui.BetRowMsg, uint64, error) {
	r := scanner.Range{From: from, To: to, BatchSize: p.batchSize}
	res, err := scanner.Scan(ctx, p.scanner, r, p.filter, p.decoder.Decode,
		func(acc []contract.Event, ev contract.Event) []contract.Event { return append(acc, ev) }, []contract.Event(nil))

	last := res.LastBlockTracked

	rows := make([]ui.BetRowMsg, 0, len(res.Accumulator))
	for _, ev := range res.Accumulator {
		row, rerr := p.row(ctx, ev)
		if rerr != nil {
			log.Warn().Err(rerr).Str("tx", ev.Log.TxHash.Hex()).Msg("bet lookup failed")
		}
		rows = append(rows, row)
	}
	metrics.WatchBetsSeen.Add(float64(len(rows)))
	return rows, last, err
}

func (p *betPoller) row(ctx context.Context, ev contract.Event) (ui.BetRowMsg, error) {
	hash := ev.Log.TxHash.Hex()
	row := ui.BetRowMsg{
		BlockNum: ev.Log.BlockNumber,
		TxHash:   hash,
		TxURL:    p.chain.TxURL(hash),
		Status:   contract.StatusUnknown.String(),
	}
	if requester, err := ev.Address("requester"); err == nil {
		row.Requester = requester.Hex()
	}
	id, err := ev.Uint("betId")
	if err != nil {
		return row, err
	}
	row.BetID = id.String()

	info, err := p.gamble.BetInfo(ctx, id)
	if err != nil {
		return row, err
	}
	row.Receiver = info.Receiver.Hex()
	row.Tier = info.BetTier().String()
	row.Status = info.BetStatus().String()
	row.Amount = chain.FormatEther(info.Amount)
	return row, nil
}

// run polls until ctx is done, sending rows and status updates to send.
func (p *betPoller) run(ctx context.Context, heads headSource, interval time.Duration, send func(tea.Msg)) {
	last, err := heads.BlockNumber(ctx)
	if err != nil {
		send(ui.WatchStatusMsg{ErrMsg: "could not get starting block: " + trimWatchErr(err.Error())})
		return
	}
	send(ui.WatchStatusMsg{BlockNum: last})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		metrics.WatchPolls.Inc()
		head, err := heads.BlockNumber(ctx)
		if err != nil {
			send(ui.WatchStatusMsg{BlockNum: last, ErrMsg: trimWatchErr(err.Error())})
			continue
		}
		if head <= last {
			send(ui.WatchStatusMsg{BlockNum: last})
			continue
		}

		send(ui.WatchStatusMsg{BlockNum: head, Fetching: true})
		rows, tracked, err := p.poll(ctx, last+1, head)
		for _, row := range rows {
			send(row)
		}
		last = tracked
		if err != nil {
			send(ui.WatchStatusMsg{BlockNum: last, ErrMsg: trimWatchErr(err.Error())})
			continue
		}
		send(ui.WatchStatusMsg{BlockNum: last})
	}
}

type headSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

func trimWatchErr(s string) string {
	const limit = 60
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}

func init() {
	watchBetsCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "polling interval")
	watchBetsCmd.Flags().StringVar(&watchContract, "contract", "", "gamble contract address (default: config or network deployment)")
	watchBetsCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	watchCmd.AddCommand(watchBetsCmd)
}
