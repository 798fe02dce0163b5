package notifications

// Filter selects which notifications the list endpoint returns
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
)

// Matches reports whether an item of the given type and read state belongs
// under the filter. Any other filter value is a notification type.
func (f Filter) Matches(itemType string, read bool) bool {
	switch f {
	case "", FilterAll:
		return true
	case FilterUnread:
		return !read
	default:
		return string(f) == itemType
	}
}

type Item struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

type List struct {
	Notifications []Item `json:"notifications"`
	UnreadCount   int    `json:"unreadCount"`
}

type Settings struct {
	Email        bool `json:"email"`
	Push         bool `json:"push"`
	Challenges   bool `json:"challenges"`
	Social       bool `json:"social"`
	Achievements bool `json:"achievements"`
}
