package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/http/middleware"
	"github.com/princekumarofficial/challenge-tracker/internal/storage/memory"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type fakePublisher struct {
	events.Publisher

	mu      sync.Mutex
	read    []string
	deleted []string
	unread  []int
}

func (p *fakePublisher) PublishNotificationRead(userID, id string, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.read = append(p.read, id)
	p.unread = append(p.unread, unread)
}

func (p *fakePublisher) PublishNotificationDeleted(userID, id string, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	p.unread = append(p.unread, unread)
}

func (p *fakePublisher) PublishNotification(string, notifications.Item, int) {}

func (p *fakePublisher) PublishUnreadCount(userID string, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unread = append(p.unread, unread)
}

func setup(t *testing.T) (*memory.Store, string, []notifications.Item) {
	t.Helper()
	store := memory.New()
	u, err := store.CreateUser(users.RegisterRequest{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, "hash")
	require.NoError(t, err)

	var items []notifications.Item
	for _, kind := range []string{events.NotificationAchievement, events.NotificationFriendRequest, events.NotificationChallenge} {
		item, _, err := store.AddNotification(u.ID, notifications.Item{Type: kind, Title: kind})
		require.NoError(t, err)
		items = append(items, item)
	}
	return store, u.ID, items
}

func request(t *testing.T, h http.HandlerFunc, method, target, userID, id string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.SetPathValue("id", id)
	r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))

	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

func list(t *testing.T, store *memory.Store, userID, filter string) notifications.List {
	t.Helper()
	rr := request(t, List(store), http.MethodGet, "/api/notifications?filter="+filter, userID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var l notifications.List
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &l))
	return l
}

func TestList_Filters(t *testing.T) {
	store, userID, _ := setup(t)

	assert.Len(t, list(t, store, userID, "all").Notifications, 3)
	byType := list(t, store, userID, events.NotificationFriendRequest)
	require.Len(t, byType.Notifications, 1)
	assert.Equal(t, 3, byType.UnreadCount)
}

func TestMarkReadAndDelete_Publish(t *testing.T) {
	store, userID, items := setup(t)
	pub := &fakePublisher{}

	rr := request(t, MarkRead(store, pub), http.MethodPut, "/api/notifications/x/read", userID, items[0].ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, list(t, store, userID, "unread").Notifications, 2)

	rr = request(t, Delete(store, pub), http.MethodDelete, "/api/notifications/x", userID, items[1].ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = request(t, Delete(store, pub), http.MethodDelete, "/api/notifications/x", userID, "missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, []string{items[0].ID}, pub.read)
	assert.Equal(t, []string{items[1].ID}, pub.deleted)
	assert.Equal(t, []int{2, 1}, pub.unread)
}

func TestMarkAllAndClear(t *testing.T) {
	store, userID, _ := setup(t)
	pub := &fakePublisher{}

	rr := request(t, MarkAllRead(store, pub), http.MethodPut, "/api/notifications/mark-all-read", userID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, list(t, store, userID, "unread").Notifications)

	rr = request(t, Clear(store, pub), http.MethodDelete, "/api/notifications/clear-all", userID, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, list(t, store, userID, "all").Notifications)
	assert.Equal(t, []int{0, 0}, pub.unread)
}

func TestSettings_RoundTrip(t *testing.T) {
	store, userID, _ := setup(t)

	rr := request(t, Settings(store), http.MethodGet, "/api/notifications/settings", userID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var s notifications.Settings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.True(t, s.Social)

	s.Social = false
	rr = request(t, UpdateSettings(store), http.MethodPut, "/api/notifications/settings", userID, "", s)
	require.Equal(t, http.StatusOK, rr.Code)

	// a muted category is no longer delivered
	notifier := events.NewNotifier(store, &fakePublisher{}, nil)
	assert.False(t, notifier.Notify(userID, events.NotificationFriendRequest, "New friend request", "x"))
	assert.True(t, notifier.Notify(userID, events.NotificationChallenge, "Reminder", "x"))
}
