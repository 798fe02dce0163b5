// Package storage defines the persistence contract of the development
// backend. Implementations must be safe for concurrent use.
package storage

import (
	"errors"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user with this email already exists")
	ErrForbidden  = errors.New("not allowed")
	ErrConflict   = errors.New("conflict")
)

// UserRecord is a user together with the stored password hash
type UserRecord struct {
	users.User
	PasswordHash string
	TwoFactor    bool
}

// Award is the outcome of crediting points to a user
type Award struct {
	Profile     users.Profile
	Points      int
	LeveledUp   bool
	Achievement *types.Achievement
}

// ProgressResult is the outcome of a progress submission
type ProgressResult struct {
	Award
	Progress float64
}

type Users interface {
	CreateUser(req users.RegisterRequest, passwordHash string) (users.User, error)
	GetUser(userID string) (users.User, error)
	GetUserByEmail(email string) (UserRecord, error)
	SetPasswordHash(userID, hash string) error
	SetTwoFactor(userID string, enabled bool) error
	GetProfile(userID string) (users.Profile, error)
	UpdateProfile(userID string, update users.ProfileUpdate) (users.Profile, error)
	AwardPoints(userID string, points int) (Award, error)
}

type Challenges interface {
	ListChallenges(userID string) ([]types.ChallengeSummary, error)
	GetChallenge(challengeID, userID string) (types.ChallengeSummary, error)
	CreateChallenge(creatorID string, req types.CreateChallengeRequest) (types.ChallengeSummary, error)
	UpdateChallenge(challengeID, userID string, patch types.ChallengePatch) (types.ChallengeSummary, error)
	DeleteChallenge(challengeID, userID string) error
	JoinChallenge(challengeID, userID string) (int, error)
	ToggleLike(challengeID, userID string) (types.LikeResult, error)
	Unlike(challengeID, userID string) (types.LikeResult, error)
	RecordProgress(challengeID, userID string, req types.ProgressRequest) (ProgressResult, error)
	AddComment(challengeID, userID, text string) error
	// BumpParticipants adds delta to the displayed participant count
	BumpParticipants(challengeID string, delta int) (int, error)
	ChallengeIDs() []string
}

type Notifications interface {
	ListNotifications(userID string, filter notifications.Filter) (notifications.List, error)
	// AddNotification stores item for the user, assigning its ID and
	// timestamp, and returns it with the new unread count
	AddNotification(userID string, item notifications.Item) (notifications.Item, int, error)
	MarkNotificationRead(userID, notificationID string) (int, error)
	MarkAllNotificationsRead(userID string) error
	DeleteNotification(userID, notificationID string) (int, error)
	ClearNotifications(userID string) error
	NotificationSettings(userID string) (notifications.Settings, error)
	UpdateNotificationSettings(userID string, s notifications.Settings) error
}

type Social interface {
	Friends(userID string) ([]social.Friend, error)
	FriendIDs(userID string) ([]string, error)
	FriendRequests(userID string) ([]social.FriendRequest, error)
	SearchUsers(userID, query string) ([]social.Friend, error)
	SendFriendRequest(fromID, toID string) (social.FriendRequest, error)
	// AcceptFriendRequest returns the accepted request so the sender can
	// be told
	AcceptFriendRequest(userID, requestID string) (social.FriendRequest, error)
	RejectFriendRequest(userID, requestID string) error
	Unfriend(userID, friendID string) error
	Block(userID, otherID string) error
	PrivacySettings(userID string) (social.PrivacySettings, error)
	UpdatePrivacySettings(userID string, s social.PrivacySettings) error
}

type Accounts interface {
	Wallet(userID string) (account.Wallet, error)
	Transactions(userID string, limit int) ([]account.Transaction, error)
	ClaimDailyBonus(userID string, now time.Time) (account.DailyBonus, error)
	Leaderboard(category string, limit int) ([]account.LeaderboardEntry, error)
	Rank(userID string) (account.Rank, error)
	Analytics(userID, timeRange string) (account.AnalyticsDashboard, error)
	SecurityScore(userID string) (account.SecurityScore, error)
	PaymentHistory(userID string, page, limit int) (account.PaymentHistory, error)
	CancelSubscription(userID string) error
}

// Sessions tracks the login sessions tokens are issued for
type Sessions interface {
	RecordLogin(userID string, s account.LoginSession) error
	SessionActive(userID, sessionID string) bool
	Sessions(userID, currentID string) ([]account.LoginSession, error)
	RevokeSession(userID, sessionID string) error
	RevokeOtherSessions(userID, keepID string) error
	LoginHistory(userID string, limit int) ([]account.LoginSession, error)
}

type Storage interface {
	Users
	Challenges
	Notifications
	Social
	Accounts
	Sessions
}
