package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

// Auth calls the unauthenticated login and register endpoints. A 401 from
// these means bad credentials, never a dead session.
type Auth struct {
	c *Client
}

func NewAuth(baseURL string, timeout time.Duration, logger *slog.Logger) *Auth {
	return &Auth{c: NewClient(baseURL, timeout, nil, logger)}
}

func (a *Auth) Login(ctx context.Context, req users.LoginRequest) (users.AuthResponse, error) {
	var resp users.AuthResponse
	err := a.c.post(ctx, "/auth/login", req, &resp)
	return resp, err
}

func (a *Auth) Register(ctx context.Context, req users.RegisterRequest) (users.AuthResponse, error) {
	var resp users.AuthResponse
	err := a.c.post(ctx, "/auth/register", req, &resp)
	return resp, err
}
