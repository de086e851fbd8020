package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/scanner"
	"github.com/floppylabs/floppy/internal/ui"
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Inspect the built-in contract ABIs",
}

var abiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in ABIs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 12},
			{Title: "Name", Width: 24},
			{Title: "Description", Width: 56},
		})
		for _, b := range contract.AllBuiltins() {
			t.AddRow(ui.Row{b.ID, b.Name, b.Description})
		}
		fmt.Fprintln(stdout(cmd), t.Render())
		return nil
	},
}

var abiShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the functions and events of a built-in ABI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, ok := contract.GetBuiltin(args[0])
		if !ok {
			return fmt.Errorf("%w: %q", contract.ErrUnknownBuiltin, args[0])
		}
		a, err := b.ABI()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ui.KeyValueBlock(b.Name, abiPairs(a)))
		return nil
	},
}

var abiTopicCmd = &cobra.Command{
	Use:   "topic <signature>",
	Short: "Compute the event topic and function selector of a signature",
	Long: `Hash a canonical signature, or a human-readable event/function line.

Examples:
  floppy abi topic "Transfer(address,address,uint256)"
  floppy abi topic "event BetPlaced(address indexed requester, uint256 betId)"
  floppy abi topic "function getMinBetAmount() view returns (uint256)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := canonicalSignature(args[0])
		if err != nil {
			return err
		}
		topic := scanner.EventTopic(sig)
		fmt.Fprintln(stdout(cmd), ui.KeyValueBlock("Signature Hash", [][2]string{
			{"Signature", sig},
			{"Topic", ui.Val(topic.Hex())},
			{"Selector", ui.Val(topic.Hex()[:10])},
		}))
		return nil
	},
}

// canonicalSignature accepts "Name(type,...)" as is and reduces a
// human-readable event or function line to that form.
func canonicalSignature(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "event ") && !strings.HasPrefix(s, "function ") {
		if !strings.Contains(s, "(") || !strings.HasSuffix(s, ")") {
			return "", fmt.Errorf("invalid signature %q: expected name(type1,type2)", s)
		}
		return strings.ReplaceAll(s, " ", ""), nil
	}
	a, err := contract.ParseHumanABI([]string{s})
	if err != nil {
		return "", err
	}
	for _, ev := range a.Events {
		return ev.Sig, nil
	}
	for _, m := range a.Methods {
		return m.Sig, nil
	}
	return "", fmt.Errorf("no event or function in %q", s)
}

func abiPairs(a abi.ABI) [][2]string {
	var pairs [][2]string
	for _, name := range sortedKeys(a.Methods) {
		m := a.Methods[name]
		kind := "write"
		if m.IsConstant() {
			kind = "read"
		}
		pairs = append(pairs, [2]string{fmt.Sprintf("%s %x", kind, m.ID), m.Sig})
	}
	for _, name := range sortedKeys(a.Events) {
		ev := a.Events[name]
		pairs = append(pairs, [2]string{"event " + ev.ID.Hex()[:10], ev.Sig})
	}
	return pairs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	abiCmd.AddCommand(abiListCmd, abiShowCmd, abiTopicCmd)
}
