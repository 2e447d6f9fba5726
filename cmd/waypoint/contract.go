package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Write or resolve contract artifacts for the current work",
}

var contractPutCmd = &cobra.Command{
	Use:   "put <name> [file]",
	Short: "Store a contract at the scope of the current work (stdin when no file)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 2 {
			data, err = os.ReadFile(args[1])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("failed to read contract: %w", err)
		}

		return withApp(cmd, func(app *cli.App) error {
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()
			path, err := app.Orchestrator.PutContract(ctx, args[0], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var contractCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Resolve a contract for the current work, broader scopes included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *cli.App) error {
			path, ok := app.Orchestrator.FindContract(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("contract %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(contractCmd)
	contractCmd.AddCommand(contractPutCmd, contractCheckCmd)
}
