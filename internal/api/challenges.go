package api

import (
	"context"
	"net/url"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

func challengePath(id string, rest ...string) string {
	p := "/challenges/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *Client) Challenges(ctx context.Context) ([]types.ChallengeSummary, error) {
	var list types.ChallengeList
	if err := c.get(ctx, "/challenges", &list); err != nil {
		return nil, err
	}
	return list.Challenges, nil
}

func (c *Client) Challenge(ctx context.Context, id string) (types.ChallengeSummary, error) {
	var ch types.ChallengeSummary
	err := c.get(ctx, challengePath(id), &ch)
	return ch, err
}

func (c *Client) CreateChallenge(ctx context.Context, req types.CreateChallengeRequest) (types.ChallengeSummary, error) {
	var ch types.ChallengeSummary
	err := c.post(ctx, "/challenges", req, &ch)
	return ch, err
}

func (c *Client) UpdateChallenge(ctx context.Context, id string, patch types.ChallengePatch) (types.ChallengeSummary, error) {
	var ch types.ChallengeSummary
	err := c.patch(ctx, challengePath(id), patch, &ch)
	return ch, err
}

func (c *Client) DeleteChallenge(ctx context.Context, id string) error {
	return c.delete(ctx, challengePath(id), nil)
}

func (c *Client) JoinChallenge(ctx context.Context, id string) error {
	return c.post(ctx, challengePath(id, "join"), nil, nil)
}

// LikeChallenge likes the challenge. The backend toggles on repeat calls.
func (c *Client) LikeChallenge(ctx context.Context, id string) (types.LikeResult, error) {
	var res types.LikeResult
	err := c.post(ctx, challengePath(id, "like"), nil, &res)
	return res, err
}

func (c *Client) UnlikeChallenge(ctx context.Context, id string) (types.LikeResult, error) {
	var res types.LikeResult
	err := c.delete(ctx, challengePath(id, "like"), &res)
	return res, err
}

func (c *Client) SubmitProgress(ctx context.Context, id string, req types.ProgressRequest) error {
	return c.post(ctx, challengePath(id, "progress"), req, nil)
}

func (c *Client) Comment(ctx context.Context, id, text string) error {
	return c.post(ctx, challengePath(id, "comments"), types.CommentRequest{Text: text}, nil)
}
