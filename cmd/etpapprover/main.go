// Command etpapprover watches a publication repository for pending thesis
// submissions and notifies supervisors and authors on chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhornung97/ETPApprover/internal/app"
	"github.com/jhornung97/ETPApprover/internal/config"
)

var (
	flagConfig      string
	flagCaptureLog  bool
	flagInteractive bool
	flagDryRun      bool
)

func main() {
	root := &cobra.Command{
		Use:           "etpapprover",
		Short:         "Pending thesis submission notifier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the YAML configuration file")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApplication()
			defer a.Close()
			return a.Scan(cmd.Context())
		},
	}
	scanCmd.Flags().BoolVar(&flagCaptureLog, "log", false, "capture the run log and attach it to the summary email")
	scanCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "confirm every outgoing message on the terminal")
	scanCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "preview messages without sending or recording anything")

	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Record all currently pending submissions without notifying anyone",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApplication()
			defer a.Close()
			return a.Bootstrap(cmd.Context())
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			flagCaptureLog = true
			a := newApplication()
			defer a.Close()
			return a.Watch(cmd.Context())
		},
	}

	root.AddCommand(scanCmd, bootstrapCmd, watchCmd, newTrackCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return // clean shutdown on signal
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApplication() *app.Application {
	return app.New(loadConfig(), app.Options{
		CaptureLog:  flagCaptureLog,
		Interactive: flagInteractive || flagDryRun,
		DryRun:      flagDryRun,
	})
}

func loadConfig() config.Config {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}
