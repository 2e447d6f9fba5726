package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks of the current request",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <id> <name>...",
	Short: "Append a task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			if _, err := app.Orchestrator.AddTask(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s\n", args[0])
			return nil
		})
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed (or failed with --failed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := doneStatus(cmd)
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			doc, err := app.Orchestrator.SetTaskStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s %s\n", args[0], status)
			if doc.Request.Status == domain.StatusCompleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s completed\n", doc.Request.ID)
			}
			return nil
		})
	},
}

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage subtasks of a task",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <id> <name>...",
	Short: "Append a subtask",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			if _, err := app.Orchestrator.AddSubtask(ctx, args[0], args[1], strings.Join(args[2:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %s/%s\n", args[0], args[1])
			return nil
		})
	},
}

var subtaskDoneCmd = &cobra.Command{
	Use:   "done <task-id> <id>",
	Short: "Mark a subtask completed (or failed with --failed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := doneStatus(cmd)
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			if _, err := app.Orchestrator.SetSubtaskStatus(ctx, args[0], args[1], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subtask %s/%s %s\n", args[0], args[1], status)
			return nil
		})
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus <task-id> [subtask-id]",
	Short: "Move the current work pointer",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subtask := ""
		if len(args) == 2 {
			subtask = args[1]
		}
		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			doc, err := app.Orchestrator.Focus(ctx, args[0], subtask)
			if err != nil {
				return err
			}
			w := domain.ResolveWork(doc)
			fmt.Fprintf(cmd.OutOrStdout(), "Current: %s %s\n", w.TaskID, w.SubtaskID)
			return nil
		})
	},
}

func doneStatus(cmd *cobra.Command) domain.Status {
	if failed, _ := cmd.Flags().GetBool("failed"); failed {
		return domain.StatusFailed
	}
	return domain.StatusCompleted
}

func init() {
	taskDoneCmd.Flags().Bool("failed", false, "Mark as failed instead of completed")
	subtaskDoneCmd.Flags().Bool("failed", false, "Mark as failed instead of completed")

	rootCmd.AddCommand(taskCmd, subtaskCmd, focusCmd)
	taskCmd.AddCommand(taskAddCmd, taskDoneCmd)
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskDoneCmd)
}
