package main

import (
	"fmt"
	"strings"

	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSetKeyCmd())
}

func newSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <secret>",
		Short: "Store the Notion integration secret in settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("empty key")
			}
			cmd.SilenceUsage = true

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.settings.ApplyPatch(config.SettingsPatch{APIKey: &key}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("api key saved"), gray.Render(utils.MaskSecret(key)))
			return nil
		},
	}
}
