package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
)

// Economy

func (c *Client) Wallet(ctx context.Context) (account.Wallet, error) {
	var w account.Wallet
	err := c.get(ctx, "/currency/wallet", &w)
	return w, err
}

func (c *Client) Transactions(ctx context.Context, limit int) ([]account.Transaction, error) {
	var list account.TransactionList
	if err := c.get(ctx, fmt.Sprintf("/currency/transactions?limit=%d", limit), &list); err != nil {
		return nil, err
	}
	return list.Transactions, nil
}

func (c *Client) ClaimDailyBonus(ctx context.Context) (account.DailyBonus, error) {
	var b account.DailyBonus
	err := c.post(ctx, "/currency/daily-bonus", nil, &b)
	return b, err
}

// Leaderboard returns the board of the given type (global, weekly, ...),
// optionally narrowed to a category.
func (c *Client) Leaderboard(ctx context.Context, kind, category string) ([]account.LeaderboardEntry, error) {
	path := "/leaderboard/" + url.PathEscape(kind)
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var board account.Leaderboard
	if err := c.get(ctx, path, &board); err != nil {
		return nil, err
	}
	return board.Entries, nil
}

func (c *Client) UserRank(ctx context.Context, kind, userID string) (account.Rank, error) {
	var r account.Rank
	err := c.get(ctx, "/leaderboard/"+url.PathEscape(kind)+"/rank/"+url.PathEscape(userID), &r)
	return r, err
}

// Security

func (c *Client) SecurityScore(ctx context.Context) (account.SecurityScore, error) {
	var s account.SecurityScore
	err := c.get(ctx, "/security/score", &s)
	return s, err
}

func (c *Client) Sessions(ctx context.Context) ([]account.LoginSession, error) {
	var list account.SessionList
	if err := c.get(ctx, "/security/sessions", &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

func (c *Client) RevokeSession(ctx context.Context, id string) error {
	return c.delete(ctx, "/security/sessions/"+url.PathEscape(id), nil)
}

func (c *Client) RevokeAllSessions(ctx context.Context) error {
	return c.post(ctx, "/security/sessions/revoke-all", nil, nil)
}

func (c *Client) LoginHistory(ctx context.Context, limit int) ([]account.LoginSession, error) {
	var h account.LoginHistory
	if err := c.get(ctx, fmt.Sprintf("/security/login-history?limit=%d", limit), &h); err != nil {
		return nil, err
	}
	return h.Entries, nil
}

func (c *Client) ChangePassword(ctx context.Context, req account.ChangePasswordRequest) error {
	return c.post(ctx, "/security/change-password", req, nil)
}

func (c *Client) Toggle2FA(ctx context.Context, enabled bool) error {
	return c.post(ctx, "/security/toggle-2fa", map[string]bool{"enabled": enabled}, nil)
}

// Payments

func (c *Client) PaymentHistory(ctx context.Context, page int) (account.PaymentHistory, error) {
	var h account.PaymentHistory
	err := c.get(ctx, fmt.Sprintf("/payments/history?page=%d&limit=10", page), &h)
	return h, err
}

func (c *Client) CancelSubscription(ctx context.Context) error {
	return c.post(ctx, "/payments/cancel-subscription", nil, nil)
}

// Analytics

func (c *Client) AnalyticsDashboard(ctx context.Context, timeRange string) (account.AnalyticsDashboard, error) {
	var d account.AnalyticsDashboard
	err := c.get(ctx, "/analytics/dashboard?timeRange="+url.QueryEscape(timeRange), &d)
	return d, err
}
