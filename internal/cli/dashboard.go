package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/viewstate"
)

func NewDashboardCommand(opts *RootOptions) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show level, experience, streak and unread count",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			ch, stop := app.channel(ctx, follow)
			defer stop()

			dash := viewstate.NewDashboard(app.client, ch, app.feed, app.logger)
			defer dash.Unmount()

			state, err := load(ctx, dash.View)
			if err != nil {
				return err
			}
			show := func(s viewstate.DashboardState) error { return printDashboard(app.out, s) }
			if err := show(state); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watch(ctx, dash.View, show)
		}),
	}
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "keep printing live updates until interrupted")
	return cmd
}

func printDashboard(p *Printer, s viewstate.DashboardState) error {
	return p.Emit(s, func(w io.Writer) error {
		pr := s.Profile
		fmt.Fprintf(w, "Level %d  ·  %d XP  ·  %d day streak  ·  %d active challenges  ·  %d unread\n",
			pr.Level, pr.Experience, pr.Streak, pr.ActiveChallengeCount, pr.UnreadNotificationCount)
		for _, a := range s.Achievements {
			fmt.Fprintf(w, "  ★ %s\n", a.Title)
		}
		return nil
	})
}
