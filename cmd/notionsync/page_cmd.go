package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPageCmd())
	rootCmd.AddCommand(newPullPageCmd())
	rootCmd.AddCommand(newPushFileCmd())
}

func newPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <record-id>",
		Short: "Print a Notion record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.engine.GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(page, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newPullPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull-page <record-id>",
		Short: "Download one record into its bound folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.engine.DownloadPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("downloaded"), path)
			return nil
		},
	}
}

func newPushFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-file <path>",
		Short: "Upload one document, creating its record when needed",
		Long:  "Upload one document. The path is relative to the vault root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.engine.UploadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("uploaded"), args[0], gray.Render(id))
			return nil
		},
	}
}
