package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bindings, the last sync and pending conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.settings.Get()
			out := cmd.OutOrStdout()

			printRow(out, "Vault", a.cfg.VaultDir)
			printRow(out, "Data dir", a.cfg.DataDir)
			if settings.APIKey != "" || a.cfg.APIKey != "" {
				printRow(out, "API key", greenStyle.Render("set"))
			} else {
				printRow(out, "API key", redStyle.Render("missing"))
			}
			printRow(out, "Last sync", since(settings.Watermark()))

			var bound []string
			for id, b := range settings.Files {
				if b.Path != "" {
					bound = append(bound, b.Path+gray.Render(" ("+id+")"))
				}
			}
			sort.Strings(bound)
			printRow(out, "Bindings", len(bound))
			for _, b := range bound {
				fmt.Fprintln(out, "  "+b)
			}

			n := len(settings.LastConflicts)
			printRow(out, "Conflicts", countStyle(n, yellow).Render(fmt.Sprint(n)))
			if n > 0 {
				fmt.Fprintln(out, "  "+strings.Join(settings.LastConflicts, ", "))
			}

			last, err := a.journal.LastRun(cmd.Context())
			if err != nil {
				return err
			}
			if last != nil {
				took := last.Finished().Sub(last.Started()).Round(time.Millisecond)
				printRow(out, "Last run", fmt.Sprintf("%s %s",
					last.ID,
					gray.Render(fmt.Sprintf("(%s, %s, ↓%s ↑%s !%d ✗%d)",
						humanize.Time(last.Finished()), took,
						humanize.Comma(int64(last.Downloaded)), humanize.Comma(int64(last.Uploaded)),
						last.Conflicts, last.Failed+last.FailedCollections)),
				))
			}
			return nil
		},
	}
}
