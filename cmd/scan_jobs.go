package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/sink"
	"github.com/floppylabs/floppy/internal/ui"
)

// First blocks of the known Ronin deployments.
const (
	distributorStartBlock = 39_833_407
	forgeStartBlock       = 39_650_307
	tokenStartBlock       = 39_246_306
)

const defaultRecipient = "0x245db945c485b68fDc429E4F7085a1761Aa4d45d"

var errEventsResumeWithoutOut = errors.New("scan events --resume needs --out: lines printed by the earlier run cannot be restored")

var (
	transfersRecipient string
	transfersOut       string

	eventsSig   string
	eventsABI   string
	eventsName  string
	eventsOut   string
	eventsLimit int
)

// ── distributed ───────────────────────────────────────────────────────────

type distributedTotals struct {
	Commission *big.Int
	Count      uint64
}

func distributedJob() (scanJob[*big.Int, distributedTotals], error) {
	dec, err := contract.BuiltinEventDecoder(contract.BuiltinDistributor, contract.EventDistributed)
	if err != nil {
		return scanJob[*big.Int, distributedTotals]{}, err
	}
	return scanJob[*big.Int, distributedTotals]{
		name:        "distributed",
		role:        chain.ContractDistributor,
		defaultFrom: distributorStartBlock,
		decoder:     dec,
		decode:      func(ev contract.Event) (*big.Int, error) { return ev.Uint("commissionAmount") },
		fold: func(acc distributedTotals, amount *big.Int) distributedTotals {
			return distributedTotals{Commission: new(big.Int).Add(acc.Commission, amount), Count: acc.Count + 1}
		},
		initial: func() distributedTotals { return distributedTotals{Commission: new(big.Int)} },
		seed: func(t map[string]string) (distributedTotals, error) {
			sum, err := bigTotal(t, "commission")
			if err != nil {
				return distributedTotals{}, err
			}
			n, err := countTotal(t, "count")
			return distributedTotals{Commission: sum, Count: n}, err
		},
		totals: func(acc distributedTotals) map[string]string {
			return map[string]string{"commission": acc.Commission.String(), "count": strconv.FormatUint(acc.Count, 10)}
		},
		report: func(acc distributedTotals) [][2]string {
			return [][2]string{
				{"Distributions", strconv.FormatUint(acc.Count, 10)},
				{"Total distributed", ui.Val(chain.FormatEther(acc.Commission) + " RON")},
			}
		},
	}, nil
}

var scanDistributedCmd = &cobra.Command{
	Use:   "distributed",
	Short: "Sum commission payouts of the distributor contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := distributedJob()
		if err != nil {
			return err
		}
		return runScan(cmd, job)
	},
}

// ── forge ─────────────────────────────────────────────────────────────────

type forgeEvent struct {
	Fee         *big.Int
	BlueprintID *big.Int
}

type forgeTotals struct {
	Fees       *big.Int
	Count      uint64
	Blueprint0 uint64
	Blueprint1 uint64
}

func forgeJob() (scanJob[forgeEvent, forgeTotals], error) {
	dec, err := contract.BuiltinEventDecoder(contract.BuiltinForge, contract.EventForgingCompleted)
	if err != nil {
		return scanJob[forgeEvent, forgeTotals]{}, err
	}
	return scanJob[forgeEvent, forgeTotals]{
		name:        "forge",
		role:        chain.ContractForge,
		defaultFrom: forgeStartBlock,
		decoder:     dec,
		decode: func(ev contract.Event) (forgeEvent, error) {
			fee, err := ev.Uint("feeInAXS")
			if err != nil {
				return forgeEvent{}, err
			}
			id, err := ev.Uint("blueprintId")
			if err != nil {
				return forgeEvent{}, err
			}
			return forgeEvent{Fee: fee, BlueprintID: id}, nil
		},
		fold: func(acc forgeTotals, ev forgeEvent) forgeTotals {
			acc.Fees = new(big.Int).Add(acc.Fees, ev.Fee)
			acc.Count++
			if ev.BlueprintID.IsUint64() {
				switch ev.BlueprintID.Uint64() {
				case 0:
					acc.Blueprint0++
				case 1:
					acc.Blueprint1++
				}
			}
			return acc
		},
		initial: func() forgeTotals { return forgeTotals{Fees: new(big.Int)} },
		seed: func(t map[string]string) (forgeTotals, error) {
			var acc forgeTotals
			var err error
			if acc.Fees, err = bigTotal(t, "fees"); err != nil {
				return acc, err
			}
			if acc.Count, err = countTotal(t, "count"); err != nil {
				return acc, err
			}
			if acc.Blueprint0, err = countTotal(t, "blueprint0"); err != nil {
				return acc, err
			}
			acc.Blueprint1, err = countTotal(t, "blueprint1")
			return acc, err
		},
		totals: func(acc forgeTotals) map[string]string {
			return map[string]string{
				"fees":       acc.Fees.String(),
				"count":      strconv.FormatUint(acc.Count, 10),
				"blueprint0": strconv.FormatUint(acc.Blueprint0, 10),
				"blueprint1": strconv.FormatUint(acc.Blueprint1, 10),
			}
		},
		report: func(acc forgeTotals) [][2]string {
			return [][2]string{
				{"Forges", strconv.FormatUint(acc.Count, 10)},
				{"Total fees", ui.Val(chain.FormatEther(acc.Fees) + " AXS")},
				{"Blueprint 0", strconv.FormatUint(acc.Blueprint0, 10)},
				{"Blueprint 1", strconv.FormatUint(acc.Blueprint1, 10)},
			}
		},
	}, nil
}

var scanForgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "Sum AXS forge fees and count blueprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := forgeJob()
		if err != nil {
			return err
		}
		return runScan(cmd, job)
	},
}

// ── transfers ─────────────────────────────────────────────────────────────

func transfersJob(recipient common.Address, out string) (scanJob[string, []string], error) {
	dec, err := contract.BuiltinEventDecoder(contract.BuiltinERC20, contract.EventTransfer)
	if err != nil {
		return scanJob[string, []string]{}, err
	}
	return scanJob[string, []string]{
		name:        "transfers",
		role:        chain.ContractToken,
		defaultFrom: tokenStartBlock,
		decoder:     dec,
		// any sender, to == recipient
		indexed: func(common.Address) [][]common.Hash {
			return [][]common.Hash{nil, {common.BytesToHash(recipient.Bytes())}}
		},
		decode: func(ev contract.Event) (string, error) {
			to, err := ev.Address("_to")
			if err != nil {
				return "", err
			}
			if to != recipient {
				return "", fmt.Errorf("transfer to %s, want %s", to.Hex(), recipient.Hex())
			}
			return ev.Log.TxHash.Hex(), nil
		},
		fold:    func(acc []string, hash string) []string { return append(acc, hash) },
		initial: func() []string { return nil },
		// The output file holds every hash collected so far.
		seed: func(t map[string]string) ([]string, error) { return reloadLines(out, t, "hashes") },
		totals: func(acc []string) map[string]string {
			return map[string]string{"hashes": strconv.Itoa(len(acc)), "out": out}
		},
		report: func(acc []string) [][2]string {
			return [][2]string{
				{"Recipient", ui.Addr(recipient.Hex())},
				{"Transactions", strconv.Itoa(len(acc))},
				{"Written to", out},
			}
		},
		finish: func(acc []string) error { return sink.WriteTxHashes(out, acc) },
	}, nil
}

var scanTransfersCmd = &cobra.Command{
	Use:   "transfers",
	Short: "Collect transaction hashes of token transfers to a recipient",
	Long: `Collect the hashes of every Transfer of the token contract whose
recipient is --recipient, and write them one per line to --out.

The file is written at the end of the scan and also when the scan fails, so
it always holds what was collected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, err := parseAddress("recipient", transfersRecipient)
		if err != nil {
			return err
		}
		job, err := transfersJob(recipient, transfersOut)
		if err != nil {
			return err
		}
		return runScan(cmd, job)
	},
}

// ── events ────────────────────────────────────────────────────────────────

func eventsDecoder() (*contract.EventDecoder, error) {
	if eventsSig != "" {
		a, err := contract.ParseHumanABI([]string{eventsSig})
		if err != nil {
			return nil, err
		}
		if len(a.Events) != 1 {
			return nil, fmt.Errorf("--sig must describe exactly one event")
		}
		for name := range a.Events {
			return contract.NewEventDecoder(a, name)
		}
	}
	if eventsName == "" {
		return nil, fmt.Errorf("pass --sig, or --abi with --event")
	}
	return contract.BuiltinEventDecoder(eventsABI, eventsName)
}

// eventLine renders a decoded event as one JSON object.
func eventLine(ev contract.Event) (string, error) {
	args := make(map[string]string, len(ev.Args))
	for _, a := range ev.Args {
		args[a.Name] = contract.FormatValue(a.Value)
	}
	b, err := json.Marshal(struct {
		Event    string            `json:"event"`
		Block    uint64            `json:"block"`
		Tx       string            `json:"tx"`
		LogIndex uint              `json:"log_index"`
		Args     map[string]string `json:"args"`
	}{ev.Name, ev.Log.BlockNumber, ev.Log.TxHash.Hex(), ev.Log.Index, args})
	return string(b), err
}

func eventsJob(dec *contract.EventDecoder, w io.Writer) scanJob[string, []string] {
	role := builtinRole(eventsABI)
	return scanJob[string, []string]{
		name:    "events:" + dec.Signature(),
		role:    role,
		decoder: dec,
		decode:  eventLine,
		fold:    func(acc []string, line string) []string { return append(acc, line) },
		initial: func() []string { return nil },
		seed: func(t map[string]string) ([]string, error) {
			if eventsOut == "" {
				return nil, errEventsResumeWithoutOut
			}
			return reloadLines(eventsOut, t, "lines")
		},
		totals: func(acc []string) map[string]string {
			return map[string]string{"lines": strconv.Itoa(len(acc)), "out": eventsOut}
		},
		report: func(acc []string) [][2]string {
			pairs := [][2]string{{"Event", dec.Signature()}, {"Topic", dec.Topic().Hex()}, {"Events", strconv.Itoa(len(acc))}}
			if eventsOut != "" {
				pairs = append(pairs, [2]string{"Written to", eventsOut})
			}
			return pairs
		},
		finish: func(acc []string) error {
			if eventsOut != "" {
				return sink.WriteLines(eventsOut, acc)
			}
			shown := acc
			if eventsLimit > 0 && len(shown) > eventsLimit {
				shown = shown[len(shown)-eventsLimit:]
			}
			for _, line := range shown {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

var scanEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Scan any contract event",
	Long: `Scan an arbitrary event described in human-readable form, or one of the
built-in ABIs, and print each decoded log as a JSON line.

Examples:
  floppy scan events --abi gamble --event BetPlaced --from 1000000 --network saigon
  floppy scan events --sig "event Approval(address indexed owner, address indexed spender, uint256 value)" \
      --contract 0x97a9... --from 39246306 --out approvals.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanResume && eventsOut == "" {
			return errEventsResumeWithoutOut
		}
		dec, err := eventsDecoder()
		if err != nil {
			return err
		}
		return runScan(cmd, eventsJob(dec, stdout(cmd)))
	},
}

// reloadLines restores a line-per-result output file when a scan resumes.
// A missing file holds nothing yet. When the checkpoint recorded a line
// count under key the file must still hold exactly that many lines.
func reloadLines(path string, totals map[string]string, key string) ([]string, error) {
	lines, err := sink.ReadLines(path)
	if errors.Is(err, fs.ErrNotExist) {
		lines, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, ok := totals[key]; !ok {
		return lines, nil
	}
	want, err := countTotal(totals, key)
	if err != nil {
		return nil, err
	}
	if uint64(len(lines)) != want {
		return nil, fmt.Errorf("%s holds %d lines but the checkpoint recorded %d", path, len(lines), want)
	}
	return lines, nil
}

func bigTotal(t map[string]string, key string) (*big.Int, error) {
	s, ok := t[key]
	if !ok {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("total %s: invalid integer %q", key, s)
	}
	return n, nil
}

func countTotal(t map[string]string, key string) (uint64, error) {
	s, ok := t[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("total %s: %w", key, err)
	}
	return n, nil
}

func init() {
	scanTransfersCmd.Flags().StringVar(&transfersRecipient, "recipient", defaultRecipient, "transfer recipient to match")
	scanTransfersCmd.Flags().StringVar(&transfersOut, "out", "transactionHashes.txt", "file receiving one transaction hash per line")

	scanEventsCmd.Flags().StringVar(&eventsSig, "sig", "", `human-readable event, e.g. "event Transfer(address indexed from, address indexed to, uint256 value)"`)
	scanEventsCmd.Flags().StringVar(&eventsABI, "abi", contract.BuiltinGamble, "built-in ABI holding --event; also picks the default contract")
	scanEventsCmd.Flags().StringVar(&eventsName, "event", "", "event name in the built-in ABI")
	scanEventsCmd.Flags().StringVar(&eventsOut, "out", "", "write JSON lines to this file instead of stdout")
	scanEventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "print at most this many of the latest events (0 for all)")
}
