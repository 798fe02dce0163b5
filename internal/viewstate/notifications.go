package viewstate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/optimistic"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate/merge"
)

type NotificationService interface {
	Notifications(ctx context.Context, filter notifications.Filter) (notifications.List, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

type NotificationsState struct {
	Filter      notifications.Filter
	Items       []notifications.Item
	UnreadCount int
}

type Notifications struct {
	*View[NotificationsState]
	svc NotificationService
}

func notificationID(n notifications.Item) string {
	return n.ID
}

func NewNotifications(svc NotificationService, filter notifications.Filter, ch Channel, sink alerts.Sink, logger *slog.Logger) *Notifications {
	if filter == "" {
		filter = notifications.FilterAll
	}
	n := &Notifications{svc: svc}
	n.View = New(Options[NotificationsState]{
		Name:    "notifications",
		Channel: ch,
		Sink:    sink,
		Logger:  logger,
		Fetch: func(ctx context.Context) (NotificationsState, error) {
			list, err := svc.Notifications(ctx, filter)
			if err != nil {
				return NotificationsState{}, err
			}
			return NotificationsState{Filter: filter, Items: list.Notifications, UnreadCount: list.UnreadCount}, nil
		},
		Bindings: []Binding[NotificationsState]{
			{Event: types.EventNewNotification, Apply: func(s *NotificationsState, ev *types.Event) error {
				var item notifications.Item
				if err := ev.Decode(&item); err != nil {
					return err
				}
				if filter.Matches(item.Type, item.Read) {
					s.Items = merge.Prepend(s.Items, item, notificationID)
				}
				if !item.Read {
					s.UnreadCount++
				}
				return nil
			}},
			{Event: types.EventNotificationRead, Apply: func(s *NotificationsState, ev *types.Event) error {
				id, err := decodeID(ev, "notificationId")
				if err != nil {
					return err
				}
				markRead(s, id)
				return nil
			}},
			{Event: types.EventNotificationDeleted, Apply: func(s *NotificationsState, ev *types.Event) error {
				id, err := decodeID(ev, "notificationId")
				if err != nil {
					return err
				}
				removeItem(s, id)
				return nil
			}},
			{Event: types.EventUnreadCountUpdate, Apply: counter("count", func(s *NotificationsState) *int { return &s.UnreadCount })},
		},
	})
	return n
}

// markRead flags id as read and reports whether it was unread before
func markRead(s *NotificationsState, id string) bool {
	wasUnread := false
	s.Items, _ = merge.Update(s.Items, id, notificationID, func(it *notifications.Item) {
		wasUnread = !it.Read
		it.Read = true
	})
	if wasUnread {
		s.UnreadCount = max(0, s.UnreadCount-1)
	}
	return wasUnread
}

// removeItem drops id and returns the removed item and its position
func removeItem(s *NotificationsState, id string) (notifications.Item, int, bool) {
	for i, it := range s.Items {
		if it.ID != id {
			continue
		}
		s.Items, _ = merge.Remove(s.Items, id, notificationID)
		if !it.Read {
			s.UnreadCount = max(0, s.UnreadCount-1)
		}
		return it, i, true
	}
	return notifications.Item{}, 0, false
}

// MarkRead marks one notification read locally, then on the server
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	var changed bool
	m := optimistic.Mutation[NotificationsState]{
		Do: func(s *NotificationsState) {
			changed = markRead(s, id)
		},
		Undo: func(s *NotificationsState) {
			if !changed {
				return
			}
			s.Items, _ = merge.Update(s.Items, id, notificationID, func(it *notifications.Item) { it.Read = false })
			s.UnreadCount++
		},
	}
	err := optimistic.Apply(ctx, n, m, func(ctx context.Context) error {
		return n.svc.MarkNotificationRead(ctx, id)
	})
	if err != nil {
		n.report(fmt.Errorf("could not mark notification read: %w", err))
	}
	return err
}

// Delete removes one notification locally, then on the server. A failed
// delete puts it back where it was.
func (n *Notifications) Delete(ctx context.Context, id string) error {
	var (
		removed notifications.Item
		at      int
		ok      bool
	)
	m := optimistic.Mutation[NotificationsState]{
		Do: func(s *NotificationsState) {
			removed, at, ok = removeItem(s, id)
		},
		Undo: func(s *NotificationsState) {
			if !ok {
				return
			}
			at = min(at, len(s.Items))
			items := make([]notifications.Item, 0, len(s.Items)+1)
			items = append(items, s.Items[:at]...)
			items = append(items, removed)
			s.Items = append(items, s.Items[at:]...)
			if !removed.Read {
				s.UnreadCount++
			}
		},
	}
	err := optimistic.Apply(ctx, n, m, func(ctx context.Context) error {
		return n.svc.DeleteNotification(ctx, id)
	})
	if err != nil {
		n.report(fmt.Errorf("could not delete notification: %w", err))
	}
	return err
}

// MarkAllRead marks every listed notification read
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	var (
		prevItems  []notifications.Item
		prevUnread int
	)
	m := optimistic.Mutation[NotificationsState]{
		Do: func(s *NotificationsState) {
			prevItems, prevUnread = s.Items, s.UnreadCount
			items := make([]notifications.Item, len(s.Items))
			for i, it := range s.Items {
				it.Read = true
				items[i] = it
			}
			s.Items = items
			s.UnreadCount = 0
		},
		Undo: func(s *NotificationsState) {
			s.Items, s.UnreadCount = prevItems, prevUnread
		},
	}
	err := optimistic.Apply(ctx, n, m, n.svc.MarkAllNotificationsRead)
	if err != nil {
		n.report(fmt.Errorf("could not mark notifications read: %w", err))
	}
	return err
}
