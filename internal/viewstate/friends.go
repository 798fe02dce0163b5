package viewstate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate/merge"
)

type SocialService interface {
	Friends(ctx context.Context) ([]social.Friend, error)
	FriendRequests(ctx context.Context) ([]social.FriendRequest, error)
}

type FriendsState struct {
	Friends  []social.Friend
	Requests []social.FriendRequest
}

type Friends struct {
	*View[FriendsState]
}

func friendID(f social.Friend) string {
	return f.ID
}

func NewFriends(svc SocialService, ch Channel, sink alerts.Sink, logger *slog.Logger) *Friends {
	f := &Friends{}
	f.View = New(Options[FriendsState]{
		Name:    "friends",
		Channel: ch,
		Sink:    sink,
		Logger:  logger,
		Fetch: func(ctx context.Context) (FriendsState, error) {
			var s FriendsState
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				s.Friends, err = svc.Friends(ctx)
				return err
			})
			g.Go(func() (err error) {
				s.Requests, err = svc.FriendRequests(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return FriendsState{}, err
			}
			return s, nil
		},
		Bindings: []Binding[FriendsState]{
			{Event: types.EventFriendOnline, Apply: presence(true)},
			{Event: types.EventFriendOffline, Apply: presence(false)},
			{Event: types.EventNewNotification, Then: f.onNotification},
		},
	})
	return f
}

func presence(online bool) func(*FriendsState, *types.Event) error {
	return func(s *FriendsState, ev *types.Event) error {
		id, err := decodeID(ev, "userId")
		if err != nil {
			return err
		}
		s.Friends, _ = merge.Update(s.Friends, id, friendID, func(f *social.Friend) {
			f.IsOnline = online
			if !online {
				f.LastActive = time.Now().UTC().Format(time.RFC3339)
			}
		})
		return nil
	}
}

// onNotification refetches when a friend request arrives or is accepted
func (f *Friends) onNotification(ev *types.Event) {
	var item notifications.Item
	if err := ev.Decode(&item); err != nil {
		return
	}

	var a alerts.Alert
	switch item.Type {
	case social.NotificationFriendRequest:
		a = alerts.Info("friends", "New friend request received!")
	case social.NotificationFriendRequestAccepted:
		a = alerts.Success("friends", "A friend request was accepted!")
	default:
		return
	}
	if item.Message != "" {
		a.Message = item.Message
	}

	if err := f.Refresh(); err != nil {
		return
	}
	if f.opts.Sink != nil {
		f.opts.Sink.Notify(a)
	}
}
