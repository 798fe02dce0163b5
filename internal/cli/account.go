package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

func NewProfileCommand(opts *RootOptions) *cobra.Command {
	var first, last, username string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			var update users.ProfileUpdate
			fl := cmd.Flags()
			if fl.Changed("first-name") {
				update.FirstName = &first
			}
			if fl.Changed("last-name") {
				update.LastName = &last
			}
			if fl.Changed("username") {
				update.Username = &username
			}

			var (
				p   users.Profile
				err error
			)
			if update != (users.ProfileUpdate{}) {
				p, err = app.client.UpdateProfile(ctx, update)
			} else {
				p, err = app.client.Profile(ctx)
			}
			if err != nil {
				return err
			}
			return app.out.Emit(p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (@%s) <%s>\nLevel %d  ·  %d XP  ·  %d day streak\n",
					p.DisplayName(), p.Username, p.Email, p.Level, p.Experience, p.Streak)
				return err
			})
		}),
	}
	cmd.Flags().StringVar(&first, "first-name", "", "new first name")
	cmd.Flags().StringVar(&last, "last-name", "", "new last name")
	cmd.Flags().StringVar(&username, "username", "", "new username")
	return cmd
}

func NewWalletCommand(opts *RootOptions) *cobra.Command {
	var (
		claim bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show coins and gems, or claim the daily bonus",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if claim {
				bonus, err := app.client.ClaimDailyBonus(ctx)
				if err != nil {
					return err
				}
				return app.out.Emit(bonus, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Claimed %d coins (day %d)  ·  %d coins, %d gems\n",
						bonus.Coins, bonus.Streak, bonus.Wallet.Coins, bonus.Wallet.Gems)
					return err
				})
			}

			wallet, err := app.client.Wallet(ctx)
			if err != nil {
				return err
			}
			txs, err := app.client.Transactions(ctx, limit)
			if err != nil {
				return err
			}
			data := struct {
				account.Wallet
				Transactions []account.Transaction `json:"transactions"`
			}{wallet, txs}
			return app.out.Emit(data, func(w io.Writer) error {
				fmt.Fprintf(w, "%d coins  ·  %d gems\n", wallet.Coins, wallet.Gems)
				rows := make([][]string, 0, len(txs))
				for _, t := range txs {
					rows = append(rows, []string{t.CreatedAt, t.Kind, strconv.Itoa(t.Amount), t.Currency, t.Reason})
				}
				return table(w, []string{"WHEN", "TYPE", "AMOUNT", "CURRENCY", "REASON"}, rows)
			})
		}),
	}
	cmd.Flags().BoolVar(&claim, "claim", false, "claim today's bonus")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "transactions to show")
	return cmd
}

func NewLeaderboardCommand(opts *RootOptions) *cobra.Command {
	var category, rankOf string

	cmd := &cobra.Command{
		Use:   "leaderboard [global|weekly|monthly|friends]",
		Short: "Show a leaderboard or one user's rank",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()
			kind := "global"
			if len(args) == 1 {
				kind = args[0]
			}

			if rankOf != "" {
				if rankOf == "me" {
					rankOf = app.session.Current().UserID
				}
				r, err := app.client.UserRank(ctx, kind, rankOf)
				if err != nil {
					return err
				}
				return app.out.Emit(r, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Rank %d of %d\n", r.Rank, r.Total)
					return err
				})
			}

			entries, err := app.client.Leaderboard(ctx, kind, category)
			if err != nil {
				return err
			}
			return app.out.Emit(entries, func(w io.Writer) error {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{strconv.Itoa(e.Rank), e.Username, strconv.Itoa(e.Points), strconv.Itoa(e.Level)})
				}
				return table(w, []string{"RANK", "USER", "POINTS", "LEVEL"}, rows)
			})
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "only users with a joined challenge in this category")
	cmd.Flags().StringVar(&rankOf, "rank", "", "show the rank of a user id (or \"me\")")
	return cmd
}

type securityFlags struct {
	revoke    string
	revokeAll bool
	history   int
	twoFactor string
}

func NewSecurityCommand(opts *RootOptions) *cobra.Command {
	var f securityFlags

	cmd := &cobra.Command{
		Use:   "security",
		Short: "Show the security score and signed-in sessions",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			switch {
			case f.revokeAll:
				if err := app.client.RevokeAllSessions(ctx); err != nil {
					return err
				}
			case f.revoke != "":
				if err := app.client.RevokeSession(ctx, f.revoke); err != nil {
					return err
				}
			}
			if f.twoFactor != "" {
				enabled, err := strconv.ParseBool(f.twoFactor)
				if err != nil {
					return fmt.Errorf("invalid --2fa %q: %w", f.twoFactor, err)
				}
				if err := app.client.Toggle2FA(ctx, enabled); err != nil {
					return err
				}
			}

			if f.history > 0 {
				history, err := app.client.LoginHistory(ctx, f.history)
				if err != nil {
					return err
				}
				return app.out.Emit(history, func(w io.Writer) error {
					return sessionTable(w, history)
				})
			}

			score, err := app.client.SecurityScore(ctx)
			if err != nil {
				return err
			}
			sessions, err := app.client.Sessions(ctx)
			if err != nil {
				return err
			}
			data := struct {
				account.SecurityScore
				Sessions []account.LoginSession `json:"sessions"`
			}{score, sessions}
			return app.out.Emit(data, func(w io.Writer) error {
				fmt.Fprintf(w, "Security score: %d\n", score.Score)
				for _, r := range score.Recommendations {
					fmt.Fprintf(w, "  - %s\n", r)
				}
				return sessionTable(w, sessions)
			})
		}),
	}

	fl := cmd.Flags()
	fl.StringVar(&f.revoke, "revoke", "", "sign out one session by id")
	fl.BoolVar(&f.revokeAll, "revoke-all", false, "sign out every other session")
	fl.IntVar(&f.history, "history", 0, "show the last N sign-ins instead")
	fl.StringVar(&f.twoFactor, "2fa", "", "turn two-factor authentication on or off (true|false)")
	cmd.MarkFlagsMutuallyExclusive("revoke", "revoke-all")
	return cmd
}

func sessionTable(w io.Writer, list []account.LoginSession) error {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.ID, s.Device, s.IP, s.LastSeen, yesNo(s.IsCurrent)})
	}
	return table(w, []string{"ID", "DEVICE", "IP", "LAST SEEN", "CURRENT"}, rows)
}

func NewPasswordCommand(opts *RootOptions) *cobra.Command {
	var req account.ChangePasswordRequest

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			if req.NewPassword == req.CurrentPassword {
				return errors.New("new password must differ from the current one")
			}
			if err := app.client.ChangePassword(cmd.Context(), req); err != nil {
				return err
			}
			return app.out.Message("Password changed")
		}),
	}
	cmd.Flags().StringVar(&req.CurrentPassword, "current", "", "current password")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "new password (at least 6 characters)")
	cmd.MarkFlagRequired("current")
	cmd.MarkFlagRequired("new")
	return cmd
}

func NewPaymentsCommand(opts *RootOptions) *cobra.Command {
	var (
		page   int
		cancel bool
	)

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Show payment history or cancel the subscription",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if cancel {
				if err := app.client.CancelSubscription(ctx); err != nil {
					return err
				}
				return app.out.Message("Subscription cancelled")
			}

			h, err := app.client.PaymentHistory(ctx, page)
			if err != nil {
				return err
			}
			return app.out.Emit(h, func(w io.Writer) error {
				fmt.Fprintf(w, "Page %d  ·  %d payments\n", h.Page, h.Total)
				rows := make([][]string, 0, len(h.Payments))
				for _, p := range h.Payments {
					rows = append(rows, []string{p.ID, p.CreatedAt, strconv.Itoa(p.Amount), p.Currency, p.Status})
				}
				return table(w, []string{"ID", "WHEN", "AMOUNT", "CURRENCY", "STATUS"}, rows)
			})
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page of history to show")
	cmd.Flags().BoolVar(&cancel, "cancel", false, "cancel the active subscription")
	return cmd
}

func NewAnalyticsCommand(opts *RootOptions) *cobra.Command {
	var timeRange string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show points and completion over a time range",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			d, err := app.client.AnalyticsDashboard(cmd.Context(), timeRange)
			if err != nil {
				return err
			}
			return app.out.Emit(d, func(w io.Writer) error {
				fmt.Fprintf(w, "Last %s: %d points  ·  %d challenges joined  ·  %.0f%% completed\n",
					d.TimeRange, d.PointsEarned, d.ChallengesJoined, d.CompletionRate*100)
				rows := make([][]string, 0, len(d.ByCategory))
				for _, category := range slices.Sorted(maps.Keys(d.ByCategory)) {
					rows = append(rows, []string{category, strconv.Itoa(d.ByCategory[category])})
				}
				return table(w, []string{"CATEGORY", "POINTS"}, rows)
			})
		}),
	}
	cmd.Flags().StringVar(&timeRange, "range", "30d", "7d, 30d or 90d")
	return cmd
}
