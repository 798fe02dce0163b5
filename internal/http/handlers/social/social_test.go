package social

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
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type fakePublisher struct {
	events.Publisher

	mu       sync.Mutex
	notified []string
}

func (p *fakePublisher) PublishNotification(userID string, item notifications.Item, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notified = append(p.notified, userID+"|"+item.Type)
}

type presence map[string]bool

func (p presence) IsUserConnected(userID string) bool { return p[userID] }

type fixture struct {
	store    *memory.Store
	pub      *fakePublisher
	notifier *events.Notifier
	ada, bob string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ada, err := store.CreateUser(users.RegisterRequest{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, "hash")
	require.NoError(t, err)
	bob, err := store.CreateUser(users.RegisterRequest{Email: "bob@example.com", FirstName: "Bob", LastName: "Stone"}, "hash")
	require.NoError(t, err)

	pub := &fakePublisher{}
	return &fixture{store: store, pub: pub, notifier: events.NewNotifier(store, pub, nil), ada: ada.ID, bob: bob.ID}
}

func request(t *testing.T, h http.HandlerFunc, method, target, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))

	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

func TestSendAndAccept(t *testing.T) {
	f := setup(t)

	rr := request(t, SendRequest(f.store, f.notifier), http.MethodPost, "/api/social/send-friend-request", f.ada, social.UserRef{UserID: f.bob})
	require.Equal(t, http.StatusCreated, rr.Code)
	var sent social.FriendRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sent))
	assert.Equal(t, "Ada Lovelace", sent.FromName)

	rr = request(t, SendRequest(f.store, f.notifier), http.MethodPost, "/api/social/send-friend-request", f.ada, social.UserRef{UserID: f.bob})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = request(t, Requests(f.store), http.MethodGet, "/api/social/friend-requests", f.bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var pending social.RequestList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pending))
	require.Len(t, pending.Requests, 1)

	rr = request(t, AcceptRequest(f.store, f.store, f.notifier), http.MethodPost, "/api/social/accept-friend-request", f.bob, social.RequestRef{RequestID: sent.ID})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{
		f.bob + "|" + events.NotificationFriendRequest,
		f.ada + "|" + events.NotificationFriendAccept,
	}, f.pub.notified)

	online := presence{f.bob: true}
	rr = request(t, Friends(f.store, online), http.MethodGet, "/api/social/friends", f.ada, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list social.FriendList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Friends, 1)
	assert.Equal(t, f.bob, list.Friends[0].ID)
	assert.True(t, list.Friends[0].IsOnline)

	require.NoError(t, f.store.UpdatePrivacySettings(f.bob, social.PrivacySettings{ProfileVisibility: "public"}))
	rr = request(t, Friends(f.store, online), http.MethodGet, "/api/social/friends", f.ada, nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.False(t, list.Friends[0].IsOnline)
}

func TestRejectAndUnfriend(t *testing.T) {
	f := setup(t)

	rr := request(t, RejectRequest(f.store), http.MethodPost, "/api/social/reject-friend-request", f.bob, social.RequestRef{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err := f.store.SendFriendRequest(f.ada, f.bob)
	require.NoError(t, err)
	rr = request(t, RejectRequest(f.store), http.MethodPost, "/api/social/reject-friend-request", f.bob, social.RequestRef{RequestID: req.ID})
	require.Equal(t, http.StatusOK, rr.Code)

	pending, err := f.store.FriendRequests(f.bob)
	require.NoError(t, err)
	assert.Empty(t, pending)

	rr = request(t, Unfriend(f.store), http.MethodPost, "/api/social/unfriend", f.ada, social.UserRef{UserID: f.bob})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req, err = f.store.SendFriendRequest(f.ada, f.bob)
	require.NoError(t, err)
	_, err = f.store.AcceptFriendRequest(f.bob, req.ID)
	require.NoError(t, err)

	rr = request(t, Unfriend(f.store), http.MethodPost, "/api/social/unfriend", f.ada, social.UserRef{UserID: f.bob})
	require.Equal(t, http.StatusOK, rr.Code)
	friends, err := f.store.Friends(f.bob)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestBlock_HidesAndRefuses(t *testing.T) {
	f := setup(t)
	search := func() []social.Friend {
		rr := request(t, Search(f.store), http.MethodGet, "/api/social/search?query=bob", f.ada, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var res social.SearchResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		return res.Users
	}

	require.Len(t, search(), 1)

	rr := request(t, Block(f.store), http.MethodPost, "/api/social/block", f.bob, social.UserRef{UserID: f.ada})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, search())

	rr = request(t, SendRequest(f.store, f.notifier), http.MethodPost, "/api/social/send-friend-request", f.ada, social.UserRef{UserID: f.bob})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, f.pub.notified)

	rr = request(t, Block(f.store), http.MethodPost, "/api/social/block", f.bob, social.UserRef{UserID: f.bob})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestPrivacy_DefaultsVisibility(t *testing.T) {
	f := setup(t)

	rr := request(t, UpdatePrivacy(f.store), http.MethodPut, "/api/social/privacy-settings", f.ada,
		social.PrivacySettings{ShowOnlineStatus: false, AllowRequests: false})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, Privacy(f.store), http.MethodGet, "/api/social/privacy-settings", f.ada, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var s social.PrivacySettings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, social.PrivacySettings{ProfileVisibility: "public"}, s)

	rr = request(t, SendRequest(f.store, f.notifier), http.MethodPost, "/api/social/send-friend-request", f.bob, social.UserRef{UserID: f.ada})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
