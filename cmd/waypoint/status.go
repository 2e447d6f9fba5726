package main

import (
	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of the current request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		return withApp(cmd, func(app *cli.App) error {
			if !watch {
				return cli.RunStatus(cmd.Context(), app, cmd.OutOrStdout())
			}
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			return cli.RunWatch(sigCtx, app, cmd.OutOrStdout())
		})
	},
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "Keep printing changes")
	rootCmd.AddCommand(statusCmd)
}
