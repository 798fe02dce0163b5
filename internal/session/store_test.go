package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/api"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type fakeAuth struct {
	loginResp    users.AuthResponse
	loginErr     error
	registerResp users.AuthResponse
	registerErr  error
	logins       int
}

func (f *fakeAuth) Login(ctx context.Context, req users.LoginRequest) (users.AuthResponse, error) {
	f.logins++
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, req users.RegisterRequest) (users.AuthResponse, error) {
	return f.registerResp, f.registerErr
}

type memoryPersister struct {
	mu       sync.Mutex
	s        users.Session
	saveErr  error
	clearErr error
}

func (m *memoryPersister) Load(ctx context.Context) (users.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memoryPersister) Save(ctx context.Context, s users.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.s = s
	return nil
}

func (m *memoryPersister) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = users.Session{}
	return m.clearErr
}

var demoResp = users.AuthResponse{
	Token: "tok-1",
	User:  users.User{ID: "u1", Email: "demo@example.com", FirstName: "Demo", LastName: "User"},
}

func newTestStore(auth Authenticator, p Persister) (*Store, *alerts.Recorder) {
	rec := &alerts.Recorder{}
	return NewStore(auth, p, rec, slog.New(slog.NewTextHandler(io.Discard, nil))), rec
}

func TestStore_LoginSuccess(t *testing.T) {
	p := &memoryPersister{}
	s, _ := newTestStore(&fakeAuth{loginResp: demoResp}, p)

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	res := s.Login(context.Background(), "demo@example.com", "password123")
	require.True(t, res.Success)

	assert.Equal(t, "tok-1", s.Token())
	assert.Equal(t, "Demo User", s.Current().DisplayName)
	assert.Equal(t, "tok-1", p.s.Token)
	require.Len(t, events, 1)
	assert.Equal(t, Acquired, events[0].Transition)
}

func TestStore_LoginFailureNoMutation(t *testing.T) {
	p := &memoryPersister{}
	s, _ := newTestStore(&fakeAuth{loginErr: &api.Error{Status: 401, Message: "invalid email or password"}}, p)

	res := s.Login(context.Background(), "demo@example.com", "wrongpass")
	assert.False(t, res.Success)
	assert.Equal(t, "invalid email or password", res.Error)
	assert.True(t, s.Current().IsZero())
	assert.True(t, p.s.IsZero())
}

func TestStore_LoginPersistFailureNoMutation(t *testing.T) {
	p := &memoryPersister{saveErr: errors.New("disk full")}
	s, _ := newTestStore(&fakeAuth{loginResp: demoResp}, p)

	res := s.Login(context.Background(), "demo@example.com", "password123")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "disk full")
	assert.False(t, s.Authenticated())
}

func TestStore_LoginValidatesLocally(t *testing.T) {
	auth := &fakeAuth{loginResp: demoResp}
	s, _ := newTestStore(auth, &memoryPersister{})

	res := s.Login(context.Background(), "demo@example.com", "123")
	assert.False(t, res.Success)
	assert.Equal(t, "Password must be at least 6 characters long", res.Error)
	assert.Zero(t, auth.logins)
}

func TestStore_RegisterFallsBackToLogin(t *testing.T) {
	auth := &fakeAuth{
		registerResp: users.AuthResponse{User: demoResp.User},
		loginResp:    demoResp,
	}
	s, _ := newTestStore(auth, &memoryPersister{})

	res := s.Register(context.Background(), "demo@example.com", "password123", "Demo", "User")
	require.True(t, res.Success)
	assert.Equal(t, 1, auth.logins)
	assert.Equal(t, "u1", s.Current().UserID)
}

func TestStore_RegisterRequiresNames(t *testing.T) {
	s, _ := newTestStore(&fakeAuth{}, &memoryPersister{})

	res := s.Register(context.Background(), "demo@example.com", "password123", "", "User")
	assert.False(t, res.Success)
	assert.Equal(t, "First name is required", res.Error)
}

func TestStore_LogoutIdempotent(t *testing.T) {
	p := &memoryPersister{}
	s, rec := newTestStore(&fakeAuth{loginResp: demoResp}, p)

	cleared := 0
	s.Subscribe(func(ev Event) {
		if ev.Transition == Cleared {
			cleared++
		}
	})

	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	s.Logout()
	s.Logout()
	s.HandleUnauthorized(demoResp.Token)
	s.HandleUnauthorized(demoResp.Token)

	assert.True(t, s.Current().IsZero())
	assert.True(t, p.s.IsZero())
	assert.Equal(t, 1, cleared)
	assert.Empty(t, rec.Errors())
}

func TestStore_LogoutNeverFails(t *testing.T) {
	p := &memoryPersister{clearErr: errors.New("read-only fs")}
	s, rec := newTestStore(&fakeAuth{loginResp: demoResp}, p)
	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	s.Logout()

	assert.False(t, s.Authenticated())
	require.Len(t, rec.Errors(), 1)
	assert.Contains(t, rec.Errors()[0].Message, "read-only fs")
}

func TestStore_UnauthorizedAlerts(t *testing.T) {
	s, rec := newTestStore(&fakeAuth{loginResp: demoResp}, &memoryPersister{})
	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	s.HandleUnauthorized(demoResp.Token)

	require.Len(t, rec.Alerts(), 1)
	assert.Equal(t, alerts.SeverityWarning, rec.Alerts()[0].Severity)
}

func TestStore_StaleUnauthorizedKeepsNewSession(t *testing.T) {
	auth := &fakeAuth{loginResp: demoResp}
	p := &memoryPersister{}
	s, rec := newTestStore(auth, p)
	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	auth.loginResp.Token = "tok-2"
	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	s.HandleUnauthorized(demoResp.Token)
	assert.Equal(t, "tok-2", s.Token())
	assert.Equal(t, "tok-2", p.s.Token)
	assert.Empty(t, rec.Alerts())

	s.HandleUnauthorized("tok-2")
	assert.False(t, s.Authenticated())
}

func TestStore_StaleUnauthorizedThroughClient(t *testing.T) {
	auth := &fakeAuth{loginResp: demoResp}
	s, _ := newTestStore(auth, &memoryPersister{})
	require.True(t, s.Login(context.Background(), "demo@example.com", "password123").Success)

	// the server sees the old token, then the user signs in again before
	// the 401 comes back
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+demoResp.Token, r.Header.Get("Authorization"))
		auth.loginResp.Token = "tok-2"
		require.True(t, s.Login(r.Context(), "demo@example.com", "password123").Success)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid token"}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL+"/api", 5*time.Second, s, nil)
	_, err := client.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "tok-2", s.Token())
}

func TestStore_Restore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	p := NewFilePersister(path)
	require.NoError(t, p.Save(context.Background(), users.Session{UserID: "u1", Token: "tok"}))

	s, _ := newTestStore(&fakeAuth{}, p)
	ok, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", s.Token())

	empty, _ := newTestStore(&fakeAuth{}, NewFilePersister(filepath.Join(t.TempDir(), "none.json")))
	ok, err = empty.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newTestStore(&fakeAuth{loginResp: demoResp}, &memoryPersister{})

	calls := 0
	cancel := s.Subscribe(func(Event) { calls++ })
	cancel()

	s.Login(context.Background(), "demo@example.com", "password123")
	assert.Zero(t, calls)
}
