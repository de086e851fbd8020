package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/ui"
)

var (
	callABI      string
	callSig      string
	callContract string
)

var callCmd = &cobra.Command{
	Use:   "call <function> [args...]",
	Short: "Call a read-only contract function",
	Long: `Call a view/pure function of a built-in contract ABI.

The ABI defaults to the gamble contract; the address comes from --contract,
the config file or the network's known deployment. Any other read function
can be described with --sig in human-readable form.

Examples:
  floppy call getMinBetAmount
  floppy call getBetInfoById 42
  floppy call balanceOf 0xabc... --abi erc20
  floppy call owner --sig "function owner() view returns (address)" --contract 0x...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, raw := args[0], args[1:]

		a, role, err := callTarget()
		if err != nil {
			return err
		}
		m, ok := a.Methods[method]
		if !ok {
			return fmt.Errorf("function %q not found in the %s ABI", method, callABI)
		}
		params, err := contract.ParseArgs(m.Inputs, raw)
		if err != nil {
			return err
		}

		c, err := resolveNetwork()
		if err != nil {
			return err
		}
		addr, err := contractAddress(c, role, callContract)
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
		spin := ui.NewSpinner(out, fmt.Sprintf("Calling %s on %s...", method, c.DisplayName))
		spin.Start()
		results, err := contract.NewCaller(client, addr, a).Call(ctx, method, params...)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Fprintln(out, ui.KeyValueBlock("Contract Call", resultPairs(addr.Hex(), m, c, results)))
		return nil
	},
}

// callTarget resolves the ABI and the contract role it is deployed under.
func callTarget() (abi.ABI, string, error) {
	if callSig != "" {
		a, err := contract.ParseHumanABI([]string{callSig})
		return a, callABI, err
	}
	a, err := contract.BuiltinABI(callABI)
	return a, builtinRole(callABI), err
}

// builtinRole maps a built-in ABI to the registry contract role.
func builtinRole(id string) string {
	if id == contract.BuiltinERC20 {
		return chain.ContractToken
	}
	return id
}

func resultPairs(addr string, m abi.Method, c *chain.Chain, results []any) [][2]string {
	pairs := [][2]string{
		{"Contract", ui.Addr(addr)},
		{"Function", ui.Val(m.Sig)},
		{"Network", ui.ChainName(c.DisplayName)},
	}
	for i, r := range results {
		label := "Result"
		if len(results) > 1 {
			label = fmt.Sprintf("Result[%d]", i)
		}
		if i < len(m.Outputs) && m.Outputs[i].Name != "" {
			label = m.Outputs[i].Name
		}
		pairs = append(pairs, [2]string{label, ui.Val(contract.FormatValue(r))})
	}
	return pairs
}

func init() {
	callCmd.Flags().StringVar(&callABI, "abi", contract.BuiltinGamble, "built-in ABI: gamble, distributor, forge or erc20")
	callCmd.Flags().StringVar(&callSig, "sig", "", `human-readable function, e.g. "function owner() view returns (address)"`)
	callCmd.Flags().StringVar(&callContract, "contract", "", "contract address (default: config or network deployment)")
}
