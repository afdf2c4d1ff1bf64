package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// newTrackCommand groups the ledger maintenance subcommands.
func newTrackCommand() *cobra.Command {
	track := &cobra.Command{
		Use:   "track",
		Short: "Inspect and maintain the processed-submissions ledger",
	}

	track.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every ledger entry",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := newApplication()
				defer a.Close()

				entries, err := a.Store().Entries(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RECORD\tAUTHOR\tTITLE\tPROCESSED")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						e.RecordID, e.Author, e.Title, e.ProcessedAt.Format(time.RFC3339))
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print ledger totals",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := newApplication()
				defer a.Close()

				entries, err := a.Store().Entries(cmd.Context())
				if err != nil {
					return err
				}

				var oldest, newest time.Time
				for i, e := range entries {
					if i == 0 || e.ProcessedAt.Before(oldest) {
						oldest = e.ProcessedAt
					}
					if e.ProcessedAt.After(newest) {
						newest = e.ProcessedAt
					}
				}

				fmt.Printf("entries: %d\n", len(entries))
				if len(entries) > 0 {
					fmt.Printf("oldest:  %s\n", oldest.Format(time.RFC3339))
					fmt.Printf("newest:  %s\n", newest.Format(time.RFC3339))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <record-id>",
			Short: "Drop a record from the ledger so the next scan renotifies it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := newApplication()
				defer a.Close()

				removed, err := a.Store().Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("record %s not found in ledger", args[0])
				}
				fmt.Printf("removed record %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the ledger entirely",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := newApplication()
				defer a.Close()

				if err := a.Store().Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("ledger cleared")
				return nil
			},
		},
	)

	return track
}
