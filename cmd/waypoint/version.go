package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of waypoint",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if tui.IsTerminal(out) {
			tui.PrintBanner(out, strings.TrimSpace(waypoint.Version))
			return
		}
		fmt.Fprintf(out, "waypoint version %s\n", strings.TrimSpace(waypoint.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
