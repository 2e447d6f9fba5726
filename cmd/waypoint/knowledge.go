package main

import (
	"fmt"
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/pkg/knowledge"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect or extend the project knowledge",
}

var knowledgeMergeCmd = &cobra.Command{
	Use:   "merge <file>",
	Short: "Merge a knowledge YAML file; existing patterns are never overwritten",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var incoming knowledge.Document
		if err := yaml.Unmarshal(data, &incoming); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			res, err := app.Orchestrator.MergeKnowledge(ctx, incoming)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range res.Added {
				fmt.Fprintf(out, "+ %s\n", a)
			}
			for _, c := range res.NotMerged {
				fmt.Fprintf(out, "! %s kept %q (proposed %q)\n", c.Key, c.Existing, c.Proposed)
			}
			if !res.Changed() && len(res.NotMerged) == 0 {
				fmt.Fprintln(out, "Nothing to merge")
			}
			return nil
		})
	},
}

var knowledgeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the project knowledge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			doc, err := app.Orchestrator.Knowledge().Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), knowledge.Summary(doc, 10))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(knowledgeMergeCmd, knowledgeShowCmd)
}
