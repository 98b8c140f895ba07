package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/openmined/notionsync/internal/sync"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newForcedSyncCmd("download-all", "Download every record, overwriting local changes", sync.DirectionDownload))
	rootCmd.AddCommand(newForcedSyncCmd("upload-all", "Upload every document, overwriting remote changes", sync.DirectionUpload))
}

func newSyncCmd() *cobra.Command {
	var force string
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass over every bound database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := sync.ParseDirection(force)
			if err != nil {
				return err
			}
			return runSync(cmd, direction, !noPrompt && isInteractive())
		},
	}

	cmd.Flags().StringVarP(&force, "force", "f", "", "force one side: download or upload")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "do not ask about conflicts")
	return cmd
}

func newForcedSyncCmd(use, short string, direction sync.Direction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, direction, false)
		},
	}
}

func runSync(cmd *cobra.Command, direction sync.Direction, prompt bool) error {
	cmd.SilenceUsage = true

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.engine.Sync(cmd.Context(), direction)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), run)

	if prompt && len(run.Conflicts()) > 0 {
		return promptConflicts(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.engine.Conflicts().Pending(), a.engine)
	}
	return nil
}

type conflictResolver interface {
	Resolve(ctx context.Context, recordID string, direction sync.Direction) (bool, error)
}

// promptConflicts walks the pending conflicts and applies the answers. Empty
// or unknown answers leave the conflict pending.
func promptConflicts(ctx context.Context, in io.Reader, out io.Writer, pending []*sync.Pair, engine conflictResolver) error {
	scanner := bufio.NewScanner(in)
	for _, pair := range pending {
		title, _ := pair.Record.Title()
		fmt.Fprintf(out, "\n%s %s\n", yellow.Render("Conflict:"), bold.Render(title))
		printRow(out, "  document", pair.Document.Path+gray.Render(" (edited "+since(pair.Document.ModTime)+")"))
		printRow(out, "  record", pair.ID()+gray.Render(" (edited "+since(pair.Record.LastEditedTime)+")"))
		fmt.Fprint(out, cyan("[u]pload, [d]ownload or [s]kip? "))

		if !scanner.Scan() {
			return scanner.Err()
		}
		direction, ok := parseChoice(scanner.Text())
		if !ok {
			fmt.Fprintln(out, gray.Render("  skipped"))
			continue
		}

		all, err := engine.Resolve(ctx, pair.ID(), direction)
		if err != nil {
			fmt.Fprintln(out, red("  failed:"), err)
			continue
		}
		fmt.Fprintln(out, green("  resolved ("+direction.String()+")"))
		if all {
			break
		}
	}
	return nil
}
