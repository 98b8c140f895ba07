package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDatabasesCmd())
}

func newDatabasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List the Notion databases shared with the integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			dbs, err := a.client.ListDatabases(cmd.Context())
			if err != nil {
				return err
			}

			files := a.settings.Get().Files
			out := cmd.OutOrStdout()
			for _, db := range dbs {
				name := db.Name()
				if name == "" {
					name = "(untitled)"
				}
				bound := gray.Render("unbound")
				if p := files[db.ID].Path; p != "" {
					bound = greenStyle.Render("→ " + p)
				}
				fmt.Fprintln(out, cyanStyle.Render(db.ID), bold.Render(name), bound)
			}
			if len(dbs) == 0 {
				fmt.Fprintln(out, gray.Render("no databases shared with this integration"))
			}
			return nil
		},
	}
}
