package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/optimistic"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate/merge"
)

const recentParticipants = 10

type ChallengeLister interface {
	List(ctx context.Context) ([]types.ChallengeSummary, error)
}

type ChallengeService interface {
	Get(ctx context.Context, id string) (types.ChallengeSummary, error)
	Like(ctx context.Context, id string) (types.LikeResult, error)
	Unlike(ctx context.Context, id string) (types.LikeResult, error)
}

// ApplyChallengePatch merges the fields a challenge_update carries into c
func ApplyChallengePatch(c *types.ChallengeSummary, p types.ChallengePatch) {
	merge.Value(&c.Title, p.Title)
	merge.Value(&c.Description, p.Description)
	merge.Value(&c.Category, p.Category)
	merge.Value(&c.Difficulty, p.Difficulty)
	merge.Value(&c.ProgressPercent, p.ProgressPercent)
	merge.Value(&c.ParticipantCount, p.ParticipantCount)
	merge.Value(&c.LikeCount, p.LikeCount)
	merge.Value(&c.PointsReward, p.PointsReward)
	merge.Value(&c.DaysRemaining, p.DaysRemaining)
}

func challengeID(c types.ChallengeSummary) string {
	return c.ID
}

type ChallengeListState struct {
	Challenges []types.ChallengeSummary
}

type ChallengeList struct {
	*View[ChallengeListState]
}

func NewChallengeList(src ChallengeLister, ch Channel, sink alerts.Sink, logger *slog.Logger) *ChallengeList {
	return &ChallengeList{View: New(Options[ChallengeListState]{
		Name:    "challenges",
		Channel: ch,
		Sink:    sink,
		Logger:  logger,
		Fetch: func(ctx context.Context) (ChallengeListState, error) {
			list, err := src.List(ctx)
			if err != nil {
				return ChallengeListState{}, err
			}
			return ChallengeListState{Challenges: list}, nil
		},
		Bindings: []Binding[ChallengeListState]{
			{Event: types.EventChallengeUpdate, Apply: func(s *ChallengeListState, ev *types.Event) error {
				var p types.ChallengePatch
				if err := ev.Decode(&p); err != nil {
					return err
				}
				s.Challenges, _ = merge.Update(s.Challenges, p.ID, challengeID, func(c *types.ChallengeSummary) {
					ApplyChallengePatch(c, p)
				})
				return nil
			}},
			{Event: types.EventParticipantCountUpdate, Apply: func(s *ChallengeListState, ev *types.Event) error {
				var u types.ParticipantCountUpdate
				if err := ev.Decode(&u); err != nil {
					return err
				}
				s.Challenges, _ = merge.Update(s.Challenges, u.ChallengeID, challengeID, func(c *types.ChallengeSummary) {
					merge.Value(&c.ParticipantCount, u.Count)
				})
				return nil
			}},
		},
	})}
}

type ChallengeDetailState struct {
	Challenge    types.ChallengeSummary
	Bookmarked   bool
	Participants []types.ParticipantJoined
}

// ChallengeDetail shows one challenge and keeps its update room joined while
// mounted
type ChallengeDetail struct {
	*View[ChallengeDetailState]
	id  string
	svc ChallengeService

	// held across a whole like round trip so each toggle sees the last one's result
	likeMu sync.Mutex
}

func NewChallengeDetail(id string, svc ChallengeService, ch Channel, sink alerts.Sink, logger *slog.Logger) *ChallengeDetail {
	d := &ChallengeDetail{id: id, svc: svc}
	d.View = New(Options[ChallengeDetailState]{
		Name:    "challenge",
		Channel: ch,
		Sink:    sink,
		Logger:  logger,
		Room:    &Room{Join: types.EventJoinChallenge, Leave: types.EventLeaveChallenge, ID: id},
		Fetch: func(ctx context.Context) (ChallengeDetailState, error) {
			c, err := svc.Get(ctx, id)
			if err != nil {
				return ChallengeDetailState{}, err
			}
			return ChallengeDetailState{Challenge: c}, nil
		},
		Bindings: []Binding[ChallengeDetailState]{
			{Event: types.EventChallengeUpdate, Apply: d.applyUpdate},
			{Event: types.EventParticipantCountUpdate, Apply: d.applyCount},
			{Event: types.EventParticipantJoined, Apply: d.applyJoined},
		},
	})
	return d
}

func (d *ChallengeDetail) ID() string {
	return d.id
}

func (d *ChallengeDetail) applyUpdate(s *ChallengeDetailState, ev *types.Event) error {
	var p types.ChallengePatch
	if err := ev.Decode(&p); err != nil {
		return err
	}
	if p.ID == d.id {
		ApplyChallengePatch(&s.Challenge, p)
	}
	return nil
}

func (d *ChallengeDetail) applyCount(s *ChallengeDetailState, ev *types.Event) error {
	var u types.ParticipantCountUpdate
	if err := ev.Decode(&u); err != nil {
		return err
	}
	if u.ChallengeID == d.id {
		merge.Value(&s.Challenge.ParticipantCount, u.Count)
	}
	return nil
}

func (d *ChallengeDetail) applyJoined(s *ChallengeDetailState, ev *types.Event) error {
	var p types.ParticipantJoined
	if err := ev.Decode(&p); err != nil {
		return err
	}
	if p.ChallengeID != "" && p.ChallengeID != d.id {
		return nil
	}
	list := merge.Prepend(s.Participants, p, func(p types.ParticipantJoined) string { return p.UserID })
	if len(list) > recentParticipants {
		list = list[:recentParticipants]
	}
	s.Participants = list
	return nil
}

// ToggleLike likes or unlikes the challenge at once and reverts the change
// if the server rejects it
func (d *ChallengeDetail) ToggleLike(ctx context.Context) error {
	d.likeMu.Lock()
	defer d.likeMu.Unlock()

	state, status, _ := d.Snapshot()
	if status != Ready {
		return ErrNotReady
	}

	call := d.svc.Like
	if state.Challenge.IsLiked {
		call = d.svc.Unlike
	}

	likes := optimistic.LikeToggle(func(s *ChallengeDetailState) (*bool, *int) {
		return &s.Challenge.IsLiked, &s.Challenge.LikeCount
	})
	_, err := optimistic.ApplyResult(ctx, d, likes,
		func(ctx context.Context) (types.LikeResult, error) { return call(ctx, d.id) },
		func(s *ChallengeDetailState, res types.LikeResult) {
			s.Challenge.IsLiked = res.Liked
			s.Challenge.LikeCount = res.Likes
		})
	if err != nil {
		d.report(fmt.Errorf("could not update like: %w", err))
	}
	return err
}

// ToggleBookmark flips the local bookmark flag
func (d *ChallengeDetail) ToggleBookmark(ctx context.Context) error {
	return optimistic.Apply(ctx, d, optimistic.Toggle(func(s *ChallengeDetailState) *bool {
		return &s.Bookmarked
	}), nil)
}
