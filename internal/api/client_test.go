package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type fakeCreds struct {
	token        string
	unauthorized atomic.Int32
	rejected     atomic.Value
}

func (f *fakeCreds) Token() string { return f.token }
func (f *fakeCreds) HandleUnauthorized(token string) {
	f.unauthorized.Add(1)
	f.rejected.Store(token)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, creds Credentials) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", 5*time.Second, creds, nil)
}

func TestClient_SendsBearerToken(t *testing.T) {
	creds := &fakeCreds{token: "abc"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/users/profile", r.URL.Path)
		json.NewEncoder(w).Encode(users.Profile{Level: 3, Experience: 120})
	}, creds)

	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 120, p.Experience)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, &fakeCreds{})

	require.NoError(t, c.JoinChallenge(context.Background(), "c1"))
}

func TestClient_UnauthorizedTearsDownSession(t *testing.T) {
	creds := &fakeCreds{token: "expired"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","error":"Invalid token"}`))
	}, creds)

	_, err := c.Challenges(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid token", err.Error())
	assert.Equal(t, int32(1), creds.unauthorized.Load())
	assert.Equal(t, "expired", creds.rejected.Load())
}

func TestClient_ErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"title taken"}`, "title taken"},
		{"message field", `{"message":"try later"}`, "try later"},
		{"error wins", `{"error":"a","message":"b"}`, "a"},
		{"not json", `<html>`, "API request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}, &fakeCreds{token: "t"})

			err := c.MarkNotificationRead(context.Background(), "n1")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, http.StatusBadRequest, StatusOf(err))
			assert.False(t, IsUnauthorized(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, time.Second, nil, nil)
	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Profile(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_NotificationsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "unread", r.URL.Query().Get("filter"))
		json.NewEncoder(w).Encode(notifications.List{
			Notifications: []notifications.Item{{ID: "n1", Title: "hi"}},
			UnreadCount:   1,
		})
	}, &fakeCreds{token: "t"})

	list, err := c.Notifications(context.Background(), notifications.FilterUnread)
	require.NoError(t, err)
	assert.Equal(t, 1, list.UnreadCount)
	require.Len(t, list.Notifications, 1)
}

func TestAuth_LoginFailureDoesNotTearDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid email or password"}`))
	}))
	defer srv.Close()

	auth := NewAuth(srv.URL+"/api", time.Second, nil)
	_, err := auth.Login(context.Background(), users.LoginRequest{Email: "a@b.c", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "invalid email or password", err.Error())
}
