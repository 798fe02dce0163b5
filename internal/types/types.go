package types

import "github.com/princekumarofficial/challenge-tracker/internal/types/users"

type Difficulty string

// Difficulty labels offered to users
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulty vocabulary understood by the backend
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type ChallengeSummary struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	Difficulty       string  `json:"difficulty"`
	ProgressPercent  float64 `json:"progress"`
	ParticipantCount int     `json:"participantCount"`
	LikeCount        int     `json:"likes"`
	PointsReward     int     `json:"points"`
	DaysRemaining    int     `json:"daysRemaining"`
	IsLiked          bool    `json:"isLiked"`
}

type ChallengeList struct {
	Challenges []ChallengeSummary `json:"challenges"`
}

type TeamSettings struct {
	MinSize int `json:"minSize"`
	MaxSize int `json:"maxSize"`
}

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points,omitempty"`
}

type CustomAchievement struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CreateChallengeRequest is the backend shape of POST /api/challenges
type CreateChallengeRequest struct {
	Name              string             `json:"name" validate:"required"`
	Description       string             `json:"description" validate:"required"`
	Category          string             `json:"category" validate:"required"`
	Difficulty        Difficulty         `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Frequency         string             `json:"frequency" validate:"required"`
	ProofType         string             `json:"proofType" validate:"required"`
	StartDate         string             `json:"startDate" validate:"required"`
	EndDate           string             `json:"endDate" validate:"required"`
	MaxParticipants   *int               `json:"maxParticipants"`
	Points            int                `json:"points" validate:"gt=0"`
	IsTeamChallenge   bool               `json:"isTeamChallenge"`
	TeamSettings      *TeamSettings      `json:"teamSettings"`
	CustomAchievement *CustomAchievement `json:"customAchievement"`
	Milestones        []Milestone        `json:"milestones"`
	Creator           string             `json:"creator"`
}

// ProgressRequest is the body of POST /api/challenges/{id}/progress
type ProgressRequest struct {
	MilestoneID string   `json:"milestoneId,omitempty"`
	Description string   `json:"description" validate:"required"`
	Attachments []string `json:"attachments,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// LikeResult is returned by the like and unlike endpoints
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ProfileSnapshot is the display state seeded from the profile endpoint
type ProfileSnapshot struct {
	Level                   int
	Experience              int
	Streak                  int
	UnreadNotificationCount int
	ActiveChallengeCount    int
}

// ProfileSnapshotFrom maps the profile endpoint body onto display state.
// A missing level reads as level 1.
func ProfileSnapshotFrom(p users.Profile) ProfileSnapshot {
	s := ProfileSnapshot{
		Level:                   1,
		Experience:              p.Experience,
		Streak:                  p.Streak,
		UnreadNotificationCount: p.UnreadCount,
	}
	if p.Level > 0 {
		s.Level = p.Level
	}
	if p.Challenges != nil {
		s.ActiveChallengeCount = p.Challenges.Active
	}
	return s
}
