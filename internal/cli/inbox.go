package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate"
)

func NewNotificationsCommand(opts *RootOptions) *cobra.Command {
	var (
		filter   string
		markRead string
		markAll  bool
		remove   string
		clearAll bool
		follow   bool
	)

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "List and manage notifications",
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if clearAll {
				if err := app.client.ClearNotifications(ctx); err != nil {
					return err
				}
			}

			ch, stop := app.channel(ctx, follow)
			defer stop()

			inbox := viewstate.NewNotifications(app.client, notifications.Filter(filter), ch, app.feed, app.logger)
			defer inbox.Unmount()

			if _, err := load(ctx, inbox.View); err != nil {
				return err
			}

			switch {
			case markAll:
				if err := inbox.MarkAllRead(ctx); err != nil {
					return err
				}
			case markRead != "":
				if err := inbox.MarkRead(ctx, markRead); err != nil {
					return err
				}
			case remove != "":
				if err := inbox.Delete(ctx, remove); err != nil {
					return err
				}
			}

			show := func(s viewstate.NotificationsState) error { return printNotifications(app.out, s) }
			state, _, _ := inbox.Snapshot()
			if err := show(state); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watch(ctx, inbox.View, show)
		}),
	}

	fl := cmd.Flags()
	fl.StringVar(&filter, "filter", string(notifications.FilterAll), "all, unread or a notification type")
	fl.StringVar(&markRead, "mark-read", "", "mark one notification read")
	fl.BoolVar(&markAll, "mark-all", false, "mark every notification read")
	fl.StringVar(&remove, "delete", "", "delete one notification")
	fl.BoolVar(&clearAll, "clear", false, "delete every notification")
	fl.BoolVarP(&follow, "watch", "w", false, "keep printing live updates until interrupted")
	cmd.MarkFlagsMutuallyExclusive("mark-read", "mark-all", "delete", "clear")

	cmd.AddCommand(newNotificationSettingsCommand(opts))
	return cmd
}

// toggles binds one bool flag per named setting; apply copies only the
// flags given on the command line
type toggles map[string]*bool

func (t toggles) register(cmd *cobra.Command, usage map[string]string) {
	for name, v := range t {
		cmd.Flags().BoolVar(v, name, false, usage[name])
	}
}

func (t toggles) apply(cmd *cobra.Command, targets map[string]*bool) bool {
	changed := false
	for name, v := range t {
		if cmd.Flags().Changed(name) {
			*targets[name] = *v
			changed = true
		}
	}
	return changed
}

func newNotificationSettingsCommand(opts *RootOptions) *cobra.Command {
	flags := toggles{"email": new(bool), "push": new(bool), "challenges": new(bool), "social": new(bool), "achievements": new(bool)}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change which notifications you receive",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := app.client.NotificationSettings(ctx)
			if err != nil {
				return err
			}
			targets := map[string]*bool{
				"email": &s.Email, "push": &s.Push, "challenges": &s.Challenges,
				"social": &s.Social, "achievements": &s.Achievements,
			}
			if flags.apply(cmd, targets) {
				if err := app.client.UpdateNotificationSettings(ctx, s); err != nil {
					return err
				}
			}
			return app.out.Emit(s, func(w io.Writer) error {
				return table(w, []string{"EMAIL", "PUSH", "CHALLENGES", "SOCIAL", "ACHIEVEMENTS"}, [][]string{{
					yesNo(s.Email), yesNo(s.Push), yesNo(s.Challenges), yesNo(s.Social), yesNo(s.Achievements),
				}})
			})
		}),
	}
	flags.register(cmd, map[string]string{
		"email":        "email notifications",
		"push":         "push notifications",
		"challenges":   "challenge activity",
		"social":       "friend requests",
		"achievements": "unlocked achievements",
	})
	return cmd
}

func printNotifications(p *Printer, s viewstate.NotificationsState) error {
	return p.Emit(s, func(w io.Writer) error {
		fmt.Fprintf(w, "%d unread\n", s.UnreadCount)
		rows := make([][]string, 0, len(s.Items))
		for _, n := range s.Items {
			rows = append(rows, []string{n.ID, n.Type, n.Title, n.Message, yesNo(n.Read)})
		}
		return table(w, []string{"ID", "TYPE", "TITLE", "MESSAGE", "READ"}, rows)
	})
}

func NewFriendsCommand(opts *RootOptions) *cobra.Command {
	var (
		add      string
		accept   string
		reject   string
		unfriend string
		block    string
		search   string
		follow   bool
	)

	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List friends and pending requests",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if search != "" {
				found, err := app.client.SearchUsers(ctx, search)
				if err != nil {
					return err
				}
				return app.out.Emit(found, func(w io.Writer) error {
					return friendTable(w, found)
				})
			}

			actions := []struct {
				arg string
				fn  func(context.Context, string) error
			}{
				{add, app.client.SendFriendRequest},
				{accept, app.client.AcceptFriendRequest},
				{reject, app.client.RejectFriendRequest},
				{unfriend, app.client.Unfriend},
				{block, app.client.Block},
			}
			for _, a := range actions {
				if a.arg == "" {
					continue
				}
				if err := a.fn(ctx, a.arg); err != nil {
					return err
				}
			}

			ch, stop := app.channel(ctx, follow)
			defer stop()

			friends := viewstate.NewFriends(app.client, ch, app.feed, app.logger)
			defer friends.Unmount()

			state, err := load(ctx, friends.View)
			if err != nil {
				return err
			}
			show := func(s viewstate.FriendsState) error { return printFriends(app.out, s) }
			if err := show(state); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watch(ctx, friends.View, show)
		}),
	}

	fl := cmd.Flags()
	fl.StringVar(&add, "add", "", "send a friend request to a user id")
	fl.StringVar(&accept, "accept", "", "accept a friend request by id")
	fl.StringVar(&reject, "reject", "", "reject a friend request by id")
	fl.StringVar(&unfriend, "unfriend", "", "remove a friend by user id")
	fl.StringVar(&block, "block", "", "block a user id")
	fl.StringVar(&search, "search", "", "find users by name or email instead of listing friends")
	fl.BoolVarP(&follow, "watch", "w", false, "keep printing live updates until interrupted")
	cmd.MarkFlagsMutuallyExclusive("search", "watch")

	cmd.AddCommand(newPrivacyCommand(opts))
	return cmd
}

func newPrivacyCommand(opts *RootOptions) *cobra.Command {
	var visibility string
	flags := toggles{"show-online": new(bool), "allow-requests": new(bool)}

	cmd := &cobra.Command{
		Use:   "privacy",
		Short: "Show or change who can see you and send requests",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := app.client.PrivacySettings(ctx)
			if err != nil {
				return err
			}
			changed := flags.apply(cmd, map[string]*bool{
				"show-online":    &s.ShowOnlineStatus,
				"allow-requests": &s.AllowRequests,
			})
			if visibility != "" {
				s.ProfileVisibility = visibility
				changed = true
			}
			if changed {
				if err := app.client.UpdatePrivacySettings(ctx, s); err != nil {
					return err
				}
			}
			return app.out.Emit(s, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Profile: %s  ·  Online status shown: %s  ·  Friend requests: %s\n",
					s.ProfileVisibility, yesNo(s.ShowOnlineStatus), yesNo(s.AllowRequests))
				return err
			})
		}),
	}
	cmd.Flags().StringVar(&visibility, "visibility", "", "public, friends or private")
	flags.register(cmd, map[string]string{
		"show-online":    "show friends when you are online",
		"allow-requests": "accept new friend requests",
	})
	return cmd
}

func printFriends(p *Printer, s viewstate.FriendsState) error {
	return p.Emit(s, func(w io.Writer) error {
		if err := friendTable(w, s.Friends); err != nil {
			return err
		}
		if len(s.Requests) == 0 {
			return nil
		}
		fmt.Fprintln(w, "\nPending requests:")
		for _, r := range s.Requests {
			fmt.Fprintf(w, "  %s from %s\n", r.ID, r.FromName)
		}
		return nil
	})
}

func friendTable(w io.Writer, list []social.Friend) error {
	rows := make([][]string, 0, len(list))
	for _, f := range list {
		rows = append(rows, []string{f.ID, f.Username, strconv.Itoa(f.Level), yesNo(f.IsOnline)})
	}
	return table(w, []string{"ID", "USERNAME", "LEVEL", "ONLINE"}, rows)
}
