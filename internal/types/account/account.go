// Package account holds the response shapes of the economy, security,
// payment and analytics endpoints.
package account

type Wallet struct {
	Coins int `json:"coins"`
	Gems  int `json:"gems"`
}

type Transaction struct {
	ID        string `json:"id"`
	Kind      string `json:"type"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

type DailyBonus struct {
	Coins  int    `json:"coins"`
	Streak int    `json:"streak"`
	Wallet Wallet `json:"wallet"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"leaderboard"`
}

type Rank struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
}

type SecurityScore struct {
	Score           int      `json:"score"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type LoginSession struct {
	ID        string `json:"id"`
	Device    string `json:"device"`
	IP        string `json:"ip"`
	LastSeen  string `json:"lastSeen"`
	IsCurrent bool   `json:"isCurrent"`
}

type SessionList struct {
	Sessions []LoginSession `json:"sessions"`
}

type LoginHistory struct {
	Entries []LoginSession `json:"history"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

type Payment struct {
	ID        string `json:"id"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type PaymentHistory struct {
	Payments []Payment `json:"payments"`
	Page     int       `json:"page"`
	Total    int       `json:"total"`
}

type AnalyticsDashboard struct {
	TimeRange        string         `json:"timeRange"`
	PointsEarned     int            `json:"pointsEarned"`
	ChallengesJoined int            `json:"challengesJoined"`
	CompletionRate   float64        `json:"completionRate"`
	ByCategory       map[string]int `json:"byCategory,omitempty"`
}
