package api

import (
	"context"

	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

func (c *Client) Profile(ctx context.Context) (users.Profile, error) {
	var p users.Profile
	err := c.get(ctx, "/users/profile", &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (users.Profile, error) {
	var p users.Profile
	err := c.patch(ctx, "/users/profile", update, &p)
	return p, err
}
