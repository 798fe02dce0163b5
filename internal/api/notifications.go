package api

import (
	"context"
	"net/url"

	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
)

func (c *Client) Notifications(ctx context.Context, filter notifications.Filter) (notifications.List, error) {
	if filter == "" {
		filter = notifications.FilterAll
	}
	var list notifications.List
	err := c.get(ctx, "/notifications?filter="+url.QueryEscape(string(filter)), &list)
	return list, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.put(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.put(ctx, "/notifications/mark-all-read", nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.delete(ctx, "/notifications/"+url.PathEscape(id), nil)
}

func (c *Client) ClearNotifications(ctx context.Context) error {
	return c.delete(ctx, "/notifications/clear-all", nil)
}

func (c *Client) NotificationSettings(ctx context.Context) (notifications.Settings, error) {
	var s notifications.Settings
	err := c.get(ctx, "/notifications/settings", &s)
	return s, err
}

func (c *Client) UpdateNotificationSettings(ctx context.Context, s notifications.Settings) error {
	return c.put(ctx, "/notifications/settings", s, nil)
}
