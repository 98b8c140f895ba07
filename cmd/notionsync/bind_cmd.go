package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newBindCmd())
	rootCmd.AddCommand(newBindingsCmd())
}

func newBindCmd() *cobra.Command {
	var unbind bool

	cmd := &cobra.Command{
		Use:   "bind <database-id> [folder]",
		Short: "Bind a Notion database to a vault folder",
		Long: "Bind a Notion database to a folder relative to the vault root. Re-binding moves the " +
			"folder and its folder note; --unbind removes the binding and the folder note.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			switch {
			case unbind && len(args) == 2:
				return fmt.Errorf("--unbind takes no folder")
			case !unbind && len(args) != 2:
				return fmt.Errorf("folder is required")
			case !unbind:
				dir = args[1]
			}
			cmd.SilenceUsage = true

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.UpdateBinding(cmd.Context(), args[0], dir); err != nil {
				return err
			}
			if dir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), green("unbound"), args[0])
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), green("bound"), args[0], "→", a.settings.Get().Files[args[0]].Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unbind, "unbind", false, "remove the binding")
	return cmd
}

func newBindingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "List database bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			files := a.settings.Get().Files
			ids := make([]string, 0, len(files))
			for id, b := range files {
				if b.Path != "" {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)

			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("no bindings"))
				return nil
			}
			for _, id := range ids {
				printRow(cmd.OutOrStdout(), files[id].Path, gray.Render(id))
			}
			return nil
		},
	}
}
