package main

import (
	"fmt"
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint orchestrates phases and gates of multi-agent coding work",
	Long: `Waypoint tracks a request broken into tasks and subtasks, moves each level
through its phases and refuses transitions whose gates are not satisfied.
It is driven by assistant host hooks ("waypoint hook <event>") and by operators.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <dir>/.waypoint/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

func globalOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	cfgPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{Dir: dir, ConfigPath: cfgPath, Debug: debug}
}

// withApp builds the App for fn and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *cli.App) error) error {
	app, err := cli.NewApp(globalOptions(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}
