package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted session documents",
	Long:  `List, inspect, and remove session documents of the configured backend, keyed by project hash.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			keys, err := app.Orchestrator.Sessions().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			for _, k := range keys {
				marker := ""
				if k == app.Orchestrator.Key() {
					marker = " (this project)"
				}
				fmt.Fprintf(out, "- %s%s\n", k, marker)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect [key]",
	Short: "Print a session document (default: this project)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			key := app.Orchestrator.Key()
			if len(args) == 1 {
				key = args[0]
			}
			doc, err := app.Orchestrator.Sessions().Load(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", key, err)
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			var failed bool
			for _, key := range args {
				if err := app.Orchestrator.Sessions().Delete(ctx, key); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", key, err)
					failed = true
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", key)
			}
			if failed {
				return fmt.Errorf("some sessions were not removed")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
