package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/floppylabs/floppy/internal/rpc"
	"github.com/floppylabs/floppy/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Inspect the network's RPC endpoints",
}

var rpcCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check latency and head block of each endpoint",
	Long: `Query the head block of the network's standard and archive endpoints (and
the --rpc override, if set) in parallel. A node more than 3 blocks behind the
best head is reported as stale.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveNetwork()
		if err != nil {
			return err
		}
		targets := rpc.Targets(c)
		if cfg.RPC.URL != "" {
			targets = append(targets, rpc.Target{Label: "override", URL: cfg.RPC.URL})
		}

		out := stdout(cmd)
		spin := ui.NewSpinner(out, fmt.Sprintf("Checking %d endpoints on %s...", len(targets), c.DisplayName))
		spin.Start()
		eps := rpc.CheckAll(cmd.Context(), targets, rpc.DefaultCheckTimeout)
		spin.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "Endpoint", Width: 10},
			{Title: "URL", Width: 44},
			{Title: "Latency", Width: 10},
			{Title: "Head", Width: 12},
			{Title: "Status", Width: 24},
		})
		for _, ep := range eps {
			t.AddRow(ui.Row{ep.Label, ep.URL, latencyCell(ep), headCell(ep), statusCell(ep)})
		}
		fmt.Fprintln(out, t.Render())

		best, err := rpc.Fastest(eps)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Fastest: %s (%s)", best.Label, best.Latency.Round(time.Millisecond))))
		return nil
	},
}

func latencyCell(ep rpc.Endpoint) string {
	if ep.Err != nil {
		return "-"
	}
	return ep.Latency.Round(time.Millisecond).String()
}

func headCell(ep rpc.Endpoint) string {
	if ep.Err != nil {
		return "-"
	}
	return fmt.Sprintf("#%d", ep.BlockNumber)
}

func statusCell(ep rpc.Endpoint) string {
	switch {
	case ep.Err != nil:
		return ui.StyleError.Render(trimWatchErr(ep.Err.Error()))
	case !ep.Healthy:
		return ui.StyleWarning.Render(fmt.Sprintf("stale (%d behind)", ep.Lag))
	case ep.Lag > 0:
		return ui.StyleSuccess.Render(fmt.Sprintf("ok (%d behind)", ep.Lag))
	}
	return ui.StyleSuccess.Render("ok")
}

func init() {
	rpcCmd.AddCommand(rpcCheckCmd)
}
