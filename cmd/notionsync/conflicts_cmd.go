package main

import (
	"fmt"
	"log/slog"

	"github.com/openmined/notionsync/internal/sync"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConflictsCmd())
	rootCmd.AddCommand(newResolveCmd())
}

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List conflicts left by the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ids := a.settings.Get().LastConflicts
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, green("no conflicts"))
				return nil
			}
			for _, id := range ids {
				title := ""
				if a.client != nil {
					page, err := a.engine.GetPage(cmd.Context(), id)
					if err != nil {
						slog.Warn("conflict lookup", "record", id, "error", err)
					} else {
						title, _ = page.Title()
					}
				}
				fmt.Fprintln(out, yellow.Render(id), title)
			}
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <record-id> <upload|download>",
		Short: "Resolve a conflict by keeping one side",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := sync.ParseDirection(args[1])
			if err != nil {
				return err
			}
			if direction == sync.DirectionNone {
				return fmt.Errorf("%w: choose upload or download", sync.ErrInvalidDirection)
			}
			cmd.SilenceUsage = true

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.engine.Resolve(cmd.Context(), args[0], direction)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("resolved"), args[0], gray.Render("("+direction.String()+")"))
			if all {
				fmt.Fprintln(cmd.OutOrStdout(), green("all conflicts resolved"))
			}
			return nil
		},
	}
}
