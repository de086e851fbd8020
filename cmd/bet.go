package cmd

import (
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/ui"
)

var (
	betContract string

	betReceiver string
	betTier     string
	betAmount   string
	betYes      bool
	betNoWait   bool

	betStatus string
)

var betCmd = &cobra.Command{
	Use:   "bet",
	Short: "Read and place bets on the gamble contract",
}

var betInfoCmd = &cobra.Command{
	Use:   "info <bet-id>",
	Short: "Show a bet by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := new(big.Int).SetString(args[0], 10)
		if !ok || id.Sign() < 0 {
			return fmt.Errorf("invalid bet id %q", args[0])
		}
		g, _, closeFn, err := bindGamble(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		info, err := g.BetInfo(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ui.KeyValueBlock(fmt.Sprintf("Bet #%s", id), betPairs(info)))
		return nil
	},
}

var betPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place a bet",
	Long: `Place a bet for --receiver at the given tier.

The amount defaults to the contract's minimum bet amount plus one wei.

Examples:
  floppy bet place --receiver 0xabc... --tier gold --network saigon
  floppy bet place --receiver 0xabc... --tier 1 --amount 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if betReceiver == "" {
			return fmt.Errorf("--receiver is required")
		}
		receiver, err := parseAddress("receiver", betReceiver)
		if err != nil {
			return err
		}
		tier, err := contract.ParseBetTier(betTier)
		if err != nil {
			return err
		}
		var amount *big.Int
		if betAmount != "" {
			if amount, err = chain.ParseEther(betAmount); err != nil {
				return fmt.Errorf("invalid amount %q: %w", betAmount, err)
			}
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		g, c, closeFn, err := bindGamble(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		if amount == nil {
			minAmount, err := g.MinBetAmount(ctx)
			if err != nil {
				return err
			}
			amount = new(big.Int).Add(minAmount, big.NewInt(1))
		}

		out := stdout(cmd)
		fmt.Fprintln(out, ui.KeyValueBlock("Bet Preview", [][2]string{
			{"From", ui.Addr(signer.Address().Hex())},
			{"Contract", ui.Addr(g.Address().Hex())},
			{"Receiver", ui.Addr(receiver.Hex())},
			{"Tier", tier.String()},
			{"Amount", ui.Val(chain.FormatEther(amount))},
			{"Network", ui.ChainName(c.DisplayName)},
		}))
		if !betYes && !ui.Confirm(cmd.InOrStdin(), out, "Place this bet?") {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		client := g.client
		sender := contract.NewSender(client, signer, big.NewInt(c.ChainID), log.Logger)
		tx, err := g.PlaceBet(ctx, sender, receiver, amount, tier)
		if err != nil {
			return err
		}
		return reportTx(cmd, c, client, tx, !betNoWait)
	},
}

var betListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bets with a given status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := contract.ParseBetStatus(betStatus)
		if err != nil {
			return err
		}
		g, _, closeFn, err := bindGamble(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ids, infos, err := g.BetsByStatus(cmd.Context(), status)
		if err != nil {
			return err
		}
		out := stdout(cmd)
		if len(ids) == 0 {
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("No %s bets.", status)))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 8},
			{Title: "Requester", Width: 14},
			{Title: "Receiver", Width: 14},
			{Title: "Tier", Width: 8},
			{Title: "Amount", Width: 14},
			{Title: "Placed", Width: 20},
		})
		for i, id := range ids {
			b := infos[i]
			t.AddRow(ui.Row{
				id.String(),
				ui.TruncateAddr(b.Requester.Hex()),
				ui.TruncateAddr(b.Receiver.Hex()),
				b.BetTier().String(),
				chain.FormatEther(b.Amount),
				betTime(b.Timestamp),
			})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d %s bets", len(ids), status)))
		return nil
	},
}

// gambleBinding carries the RPC client next to the contract binding so the
// write path can reuse the connection.
type gambleBinding struct {
	*contract.Gamble
	client *chain.Client
}

func bindGamble(cmd *cobra.Command) (*gambleBinding, *chain.Chain, func(), error) {
	c, err := resolveNetwork()
	if err != nil {
		return nil, nil, nil, err
	}
	addr, err := contractAddress(c, chain.ContractGamble, betContract)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := dialClient(cmd.Context(), c, false)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := contract.NewGamble(client, addr)
	if err != nil {
		client.Close()
		return nil, nil, nil, err
	}
	return &gambleBinding{Gamble: g, client: client}, c, client.Close, nil
}

func betPairs(b *contract.BetInfo) [][2]string {
	return [][2]string{
		{"Requester", ui.Addr(b.Requester.Hex())},
		{"Receiver", ui.Addr(b.Receiver.Hex())},
		{"Tier", b.BetTier().String()},
		{"Status", b.BetStatus().String()},
		{"Amount", ui.Val(chain.FormatEther(b.Amount))},
		{"Points", contract.FormatValue(b.Points)},
		{"Reward", ui.Val(chain.FormatEther(b.Reward))},
		{"Placed", betTime(b.Timestamp)},
		{"Win", fmt.Sprint(b.Win)},
		{"Claimed", fmt.Sprint(b.Claimed)},
	}
}

func betTime(ts *big.Int) string {
	if ts == nil || ts.Sign() == 0 {
		return "-"
	}
	return time.Unix(ts.Int64(), 0).UTC().Format("2006-01-02 15:04:05")
}

func init() {
	betCmd.PersistentFlags().StringVar(&betContract, "contract", "", "gamble contract address (default: config or network deployment)")

	betPlaceCmd.Flags().StringVar(&betReceiver, "receiver", "", "address the bet is placed for (required)")
	betPlaceCmd.Flags().StringVar(&betTier, "tier", "bronze", "tier: bronze, silver, gold, diamond or 0-3")
	betPlaceCmd.Flags().StringVar(&betAmount, "amount", "", "bet amount in token units (default: minimum bet + 1 wei)")
	betPlaceCmd.Flags().BoolVarP(&betYes, "yes", "y", false, "skip the confirmation prompt")
	betPlaceCmd.Flags().BoolVar(&betNoWait, "no-wait", false, "return after broadcasting without waiting for the receipt")

	betListCmd.Flags().StringVar(&betStatus, "status", "pending", "status: unknown, pending, resolved, canceled or 0-3")

	betCmd.AddCommand(betInfoCmd, betPlaceCmd, betListCmd)
}
