package main

import (
	"fmt"
	"io"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/gate"
	"github.com/spf13/cobra"
)

var gateCmd = &cobra.Command{
	Use:   "gate [gate-id]...",
	Short: "Evaluate gates against the current work (all when none given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			ids := args
			if len(ids) == 0 {
				ids = app.Config.GateIDs()
			}
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			s := tui.NewStyler(out)
			failed := false
			for _, id := range ids {
				res, err := app.Orchestrator.CheckGate(ctx, id)
				if err != nil {
					return err
				}
				printGate(out, s, res)
				failed = failed || !res.Passed
			}
			if failed {
				return fmt.Errorf("gate check failed")
			}
			return nil
		})
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Move the current work to its next phase",
	Long: `Advance resolves the target phase from --phase, from the agent's
next_phase(_map) with --agent, or from the transition table (honouring
--trigger). Gates blocking the target are evaluated first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := waypoint.AdvanceRequest{}
		req.Phase, _ = cmd.Flags().GetString("phase")
		req.Agent, _ = cmd.Flags().GetString("agent")
		req.Trigger, _ = cmd.Flags().GetString("trigger")
		req.Level, _ = cmd.Flags().GetString("level")

		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			res, err := app.Orchestrator.Advance(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := tui.NewStyler(out)
			for _, g := range res.Gates {
				printGate(out, s, g)
			}
			switch {
			case res.Blocked:
				fmt.Fprintf(out, "%s %s -> %s: %s\n", s.Fail("blocked"), res.From, res.To, res.Reason)
				return fmt.Errorf("transition blocked")
			case res.Applied:
				fmt.Fprintf(out, "%s %s phase %s -> %s\n", s.OK("advanced"), res.Level, res.From, res.To)
			default:
				fmt.Fprintf(out, "%s %s\n", s.Warn("unchanged"), res.Reason)
			}
			return nil
		})
	},
}

func printGate(w io.Writer, s tui.Styler, res gate.Result) {
	verdict := s.OK("pass")
	if !res.Passed {
		verdict = s.Fail("fail")
	}
	fmt.Fprintf(w, "%s %s [%s]", verdict, res.GateID, res.Policy)
	if res.Message != "" {
		fmt.Fprintf(w, " %s", res.Message)
	}
	fmt.Fprintln(w)
}

func init() {
	advanceCmd.Flags().String("phase", "", "Target phase")
	advanceCmd.Flags().String("agent", "", "Agent whose completion drives the transition")
	advanceCmd.Flags().String("trigger", "", "Transition trigger (e.g. tests_failed)")
	advanceCmd.Flags().String("level", "", "global|request|task|subtask (default: agent level, else subtask)")
	rootCmd.AddCommand(gateCmd, advanceCmd)
}
