// Package datasource selects where challenge data comes from. A client uses
// exactly one source for its whole run; sources are never blended.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/princekumarofficial/challenge-tracker/internal/api"
	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

var ErrNotFound = errors.New("challenge not found")

// ChallengeSource serves the challenge screens
type ChallengeSource interface {
	List(ctx context.Context) ([]types.ChallengeSummary, error)
	Get(ctx context.Context, id string) (types.ChallengeSummary, error)
	Like(ctx context.Context, id string) (types.LikeResult, error)
	Unlike(ctx context.Context, id string) (types.LikeResult, error)
}

// New returns the source named by kind
func New(kind string, client *api.Client, logger *slog.Logger) (ChallengeSource, error) {
	switch kind {
	case config.DataSourceRemote:
		if client == nil {
			return nil, errors.New("remote data source needs an API client")
		}
		return NewRemote(client), nil
	case config.DataSourceSample:
		return NewSample(logger)
	default:
		return nil, fmt.Errorf("unknown data source %q", kind)
	}
}

// Remote serves challenges from the backend
type Remote struct {
	client *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) List(ctx context.Context) ([]types.ChallengeSummary, error) {
	return r.client.Challenges(ctx)
}

func (r *Remote) Get(ctx context.Context, id string) (types.ChallengeSummary, error) {
	return r.client.Challenge(ctx, id)
}

func (r *Remote) Like(ctx context.Context, id string) (types.LikeResult, error) {
	return r.client.LikeChallenge(ctx, id)
}

func (r *Remote) Unlike(ctx context.Context, id string) (types.LikeResult, error) {
	return r.client.UnlikeChallenge(ctx, id)
}
