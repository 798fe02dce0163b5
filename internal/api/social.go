package api

import (
	"context"
	"net/url"

	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
)

func (c *Client) Friends(ctx context.Context) ([]social.Friend, error) {
	var list social.FriendList
	if err := c.get(ctx, "/social/friends", &list); err != nil {
		return nil, err
	}
	return list.Friends, nil
}

func (c *Client) FriendRequests(ctx context.Context) ([]social.FriendRequest, error) {
	var list social.RequestList
	if err := c.get(ctx, "/social/friend-requests", &list); err != nil {
		return nil, err
	}
	return list.Requests, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]social.Friend, error) {
	var res social.SearchResult
	if err := c.get(ctx, "/social/search?query="+url.QueryEscape(query), &res); err != nil {
		return nil, err
	}
	return res.Users, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, userID string) error {
	return c.post(ctx, "/social/send-friend-request", social.UserRef{UserID: userID}, nil)
}

func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return c.post(ctx, "/social/accept-friend-request", social.RequestRef{RequestID: requestID}, nil)
}

func (c *Client) RejectFriendRequest(ctx context.Context, requestID string) error {
	return c.post(ctx, "/social/reject-friend-request", social.RequestRef{RequestID: requestID}, nil)
}

func (c *Client) Unfriend(ctx context.Context, userID string) error {
	return c.post(ctx, "/social/unfriend", social.UserRef{UserID: userID}, nil)
}

func (c *Client) Block(ctx context.Context, userID string) error {
	return c.post(ctx, "/social/block", social.UserRef{UserID: userID}, nil)
}

func (c *Client) PrivacySettings(ctx context.Context) (social.PrivacySettings, error) {
	var s social.PrivacySettings
	err := c.get(ctx, "/social/privacy-settings", &s)
	return s, err
}

func (c *Client) UpdatePrivacySettings(ctx context.Context, s social.PrivacySettings) error {
	return c.put(ctx, "/social/privacy-settings", s, nil)
}
