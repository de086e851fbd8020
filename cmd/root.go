package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/floppylabs/floppy/internal/config"
	flog "github.com/floppylabs/floppy/internal/log"
	"github.com/floppylabs/floppy/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/floppylabs/floppy/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config
	v       = viper.New()
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "floppy",
	Short: "Ronin RPC toolkit for the Floppy contracts",
	Long: `floppy talks to the Ronin network over JSON-RPC.

  Scan contract event logs over large block ranges in batches, send RON,
  read and place bets on the gamble contract, and watch new bets live.

Configuration comes from (lowest to highest precedence) defaults, the file
given with --config, .env, FLOPPY_* environment variables and flags.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		flog.Init(flog.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
		log.Debug().Str("network", cfg.Network).Str("command", cmd.CommandPath()).Msg("config loaded")
		return nil
	},
}

// Execute runs the root command and maps failures to exit code 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !isReported(err) {
			fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("network", "", "network: ronin or saigon (default ronin)")
	pf.String("rpc", "", "RPC endpoint, overrides the network default")
	pf.String("log-level", "", "diagnostic log level (debug, info, warn, error)")
	pf.Bool("pretty-logs", false, "human-readable diagnostic logs")

	v.BindPFlag("network", pf.Lookup("network"))       //nolint:errcheck
	v.BindPFlag("rpc.url", pf.Lookup("rpc"))           //nolint:errcheck
	v.BindPFlag("log.level", pf.Lookup("log-level"))   //nolint:errcheck
	v.BindPFlag("log.pretty", pf.Lookup("pretty-logs")) //nolint:errcheck

	rootCmd.AddCommand(
		sendCmd,
		callCmd,
		betCmd,
		scanCmd,
		watchCmd,
		walletCmd,
		abiCmd,
		rpcCmd,
	)
}

// stdout is where command output goes; tests swap it via cmd.SetOut.
func stdout(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
