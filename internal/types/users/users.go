package users

import "strings"

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName prefers the full name, then the username, then the email
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Session is the credential and identity held by the client
type Session struct {
	UserID      string `json:"userId"`
	Token       string `json:"token"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IsZero reports whether s is the canonical empty session
func (s Session) IsZero() bool {
	return s == Session{}
}

type ChallengeCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed,omitempty"`
}

// Profile is the body of GET /api/users/profile
type Profile struct {
	User
	Level       int              `json:"level"`
	Experience  int              `json:"experience"`
	Streak      int              `json:"streak"`
	UnreadCount int              `json:"unreadCount"`
	Challenges  *ChallengeCounts `json:"challenges,omitempty"`
}

type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Username  *string `json:"username,omitempty"`
}
