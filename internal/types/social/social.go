package social

// Notification types that concern the friends screen
const (
	NotificationFriendRequest         = "friend_request"
	NotificationFriendRequestAccepted = "friend_request_accepted"
)

type Friend struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Level      int    `json:"level,omitempty"`
	IsOnline   bool   `json:"isOnline"`
	LastActive string `json:"lastActive,omitempty"`
}

type FriendRequest struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	FromName  string `json:"fromName"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type FriendList struct {
	Friends []Friend `json:"friends"`
}

type RequestList struct {
	Requests []FriendRequest `json:"requests"`
}

type SearchResult struct {
	Users []Friend `json:"users"`
}

type PrivacySettings struct {
	ProfileVisibility string `json:"profileVisibility"`
	ShowOnlineStatus  bool   `json:"showOnlineStatus"`
	AllowRequests     bool   `json:"allowFriendRequests"`
}

// UserRef is the body of the friend request and block endpoints
type UserRef struct {
	UserID string `json:"userId" validate:"required"`
}

type RequestRef struct {
	RequestID string `json:"requestId" validate:"required"`
}
