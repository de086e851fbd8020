package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/config"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/ui"
)

var (
	sendTo     string
	sendValue  string
	sendYes    bool
	sendNoWait bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send RON to an address",
	Long: `Send a native RON transfer signed with the configured private key.

Examples:
  floppy send --to 0xabc... --value 0.5
  floppy send --to 0xabc... --value 1 --network saigon --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendTo == "" {
			return fmt.Errorf("--to is required")
		}
		if sendValue == "" {
			return fmt.Errorf("--value is required")
		}
		to, err := parseAddress("to", sendTo)
		if err != nil {
			return err
		}
		value, err := chain.ParseEther(sendValue)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", sendValue, err)
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}
		c, err := resolveNetwork()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := dialClient(ctx, c, false)
		if err != nil {
			return err
		}
		defer client.Close()

		out := stdout(cmd)
		fmt.Fprintln(out, ui.KeyValueBlock("Transaction Preview", [][2]string{
			{"From", ui.Addr(signer.Address().Hex())},
			{"To", ui.Addr(to.Hex())},
			{"Value", chain.FormatEther(value) + " " + c.NativeCurrency},
			{"Network", ui.ChainName(c.DisplayName)},
		}))
		if !sendYes && !ui.Confirm(cmd.InOrStdin(), out, "Broadcast this transaction?") {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		sender := contract.NewSender(client, signer, big.NewInt(c.ChainID), log.Logger)
		tx, err := sender.Transfer(ctx, to, value)
		if err != nil {
			return err
		}
		return reportTx(cmd, c, client, tx, !sendNoWait)
	},
}

// reportTx prints the hash and explorer link of a broadcast transaction and,
// when wait is set, blocks until it is mined.
func reportTx(cmd *cobra.Command, c *chain.Chain, client *chain.Client, tx *types.Transaction, wait bool) error {
	out := stdout(cmd)
	hash := tx.Hash().Hex()
	fmt.Fprintln(out, ui.Success("Transaction sent!"))
	fmt.Fprintln(out, ui.Addr("Hash: "+hash))
	fmt.Fprintln(out, ui.Meta(c.TxURL(hash)))
	if !wait {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), config.TxConfirmTimeout)
	defer cancel()

	spin := ui.NewSpinner(out, "Waiting for confirmation...")
	spin.Start()
	receipt, err := client.WaitMined(ctx, tx.Hash())
	spin.Stop()
	switch {
	case errors.Is(err, chain.ErrReverted):
		return fmt.Errorf("transaction %s reverted in block %d", hash, receipt.BlockNumber.Uint64())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("transaction %s not mined within %s", hash, config.TxConfirmTimeout)
	case err != nil:
		return err
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("Mined in block %d (gas used %d)", receipt.BlockNumber.Uint64(), receipt.GasUsed)))
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (required)")
	sendCmd.Flags().StringVar(&sendValue, "value", "", "amount of RON to send (required)")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "return after broadcasting without waiting for the receipt")
}
