package main

import (
	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/hook"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:       "hook <event>",
	Short:     "Handle an assistant host hook event (reads JSON on stdin)",
	Long:      `Supported events: session-start, stop, pre-compact, subagent-stop, post-tool-use. A hook never fails the host: problems are logged to stderr and the command exits 0.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"session-start", "stop", "pre-compact", "subagent-stop", "post-tool-use"},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := globalOptions(cmd)
		logger := logging.New(logging.Level(opts.Debug))

		event, err := hook.ParseEvent(args[0])
		if err != nil {
			logger.Warn("Hook skipped", "err", err)
			return nil
		}
		in := cli.ReadHookInput(cmd.InOrStdin(), logger)
		if !cmd.Flags().Changed("dir") && in.Cwd != "" {
			opts.Dir = in.Cwd
		}

		app, err := cli.NewApp(opts)
		if err != nil {
			logger.Warn("Hook skipped", "event", event, "err", err)
			return nil
		}
		defer func() { _ = app.Close() }()

		idFile, err := session.DefaultIdentityFile()
		if err != nil {
			logger.Warn("Session id file unavailable", "err", err)
		}
		cli.RunHook(cmd.Context(), app, event, in, cmd.OutOrStdout(), idFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
