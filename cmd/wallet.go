package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/ui"
	"github.com/floppylabs/floppy/internal/wallet"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signing keys in the OS keychain",
	Long: `Store private keys in the OS keychain (or an encrypted file on headless
Linux) instead of a PRIVATE_KEY environment variable.

A stored key is used when key_ref (FLOPPY_KEY_REF) names it and no private
key is configured.`,
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key",
	Long: `Import a hex private key under <name>. Without --key the key is read from
the first line of stdin.

Examples:
  floppy wallet import deployer --key 0xac09...
  pass show ronin/deployer | floppy wallet import deployer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := walletKeyFlag
		if key == "" {
			var err error
			if key, err = readKeyLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		ref, addr, err := wallet.ImportKey(ks, args[0], key)
		if err != nil {
			return err
		}
		out := stdout(cmd)
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Key %q imported: %s", args[0], ui.Addr(addr.Hex()))))
		fmt.Fprintln(out, ui.Meta("Use it with: FLOPPY_KEY_REF="+ref))
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the address of a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		ref := wallet.Ref(args[0])
		s, err := wallet.LoadSigner(ks, ref)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ui.KeyValueBlock("Wallet", [][2]string{
			{"Name", ui.Val(args[0])},
			{"Reference", ref},
			{"Address", ui.Addr(s.Address().Hex())},
		}))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		if err := ks.Delete(wallet.Ref(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), ui.Success(fmt.Sprintf("Key %q removed.", args[0])))
		return nil
	},
}

func readKeyLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading key from stdin: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no key given: pass --key or pipe it on stdin")
	}
	return line, nil
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (default: read from stdin)")
	walletCmd.AddCommand(walletImportCmd, walletShowCmd, walletRemoveCmd)
}
