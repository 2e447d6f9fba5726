package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <request>...",
	Short: "Start tracking a new request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		request := strings.Join(args, " ")

		return withApp(cmd, func(app *cli.App) error {
			id := liveIdentity(app)
			ctx, cancel := app.WithTimeout(cmd.Context())
			defer cancel()

			doc, err := app.Orchestrator.Start(ctx, request, id, force)
			if errors.Is(err, domain.ErrRequestExists) {
				return fmt.Errorf("request %q is still in progress (use --force to replace it): %w", doc.Request.OriginalRequest, err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s: %s (phase %s)\n", doc.Request.ID, doc.Request.OriginalRequest, doc.Request.GlobalPhase)
			return nil
		})
	},
}

// liveIdentity returns the recorded session identity, minting and recording
// one when none exists.
func liveIdentity(app *cli.App) session.Identity {
	idFile, err := session.DefaultIdentityFile()
	if err != nil {
		app.Logger.Warn("Session id file unavailable", "err", err)
		return session.NewIdentity()
	}
	id, err := idFile.Read()
	if err != nil {
		app.Logger.Warn("Session id unreadable", "err", err)
	}
	if id.IsZero() {
		id = session.NewIdentity()
		if err := idFile.Write(id); err != nil {
			app.Logger.Warn("Failed to record session id", "err", err)
		}
	}
	return id
}

func init() {
	initCmd.Flags().Bool("force", false, "Replace an unfinished request")
	rootCmd.AddCommand(initCmd)
}
