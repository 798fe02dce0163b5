// Package cli is the terminal client. Each command mounts the screen it
// shows, prints the snapshot and, when asked to watch, keeps printing as
// realtime updates arrive.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "challenge-cli",
		Short: "Challenge tracker terminal client",
		Long:  "Track challenges, progress, notifications and friends from the terminal, and manage the account behind them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: environment only)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		NewLoginCommand(opts),
		NewRegisterCommand(opts),
		NewLogoutCommand(opts),
		NewWhoamiCommand(opts),
		NewDashboardCommand(opts),
		NewChallengesCommand(opts),
		NewChallengeCommand(opts),
		NewCreateCommand(opts),
		NewProgressCommand(opts),
		NewNotificationsCommand(opts),
		NewFriendsCommand(opts),
		NewProfileCommand(opts),
		NewWalletCommand(opts),
		NewLeaderboardCommand(opts),
		NewSecurityCommand(opts),
		NewPasswordCommand(opts),
		NewPaymentsCommand(opts),
		NewAnalyticsCommand(opts),
	)
	return cmd
}
