package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

// Authenticator performs the remote half of login and registration
type Authenticator interface {
	Login(ctx context.Context, req users.LoginRequest) (users.AuthResponse, error)
	Register(ctx context.Context, req users.RegisterRequest) (users.AuthResponse, error)
}

type Transition int

const (
	Acquired Transition = iota + 1
	Cleared
)

func (t Transition) String() string {
	switch t {
	case Acquired:
		return "acquired"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

type Event struct {
	Transition Transition
	Session    users.Session
}

// Result is what the login and register forms render
type Result struct {
	Success bool
	Error   string
}

// teardownTimeout bounds the durable clear on logout, which has no caller context
const teardownTimeout = 5 * time.Second

var authMessages = map[string]string{
	"email.required":     "Email is required",
	"email.email":        "Enter a valid email address",
	"password.required":  "Password is required",
	"password.min":       "Password must be at least 6 characters long",
	"firstName.required": "First name is required",
	"lastName.required":  "Last name is required",
}

// Store owns the current credential. It is the only writer of the durable
// session and the only source of session transitions.
type Store struct {
	mu      sync.RWMutex
	current users.Session

	auth    Authenticator
	persist Persister
	sink    alerts.Sink
	logger  *slog.Logger

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

func NewStore(auth Authenticator, persist Persister, sink alerts.Sink, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		auth:      auth,
		persist:   persist,
		sink:      sink,
		logger:    logger,
		observers: make(map[int]func(Event)),
	}
}

// Restore loads the durable session at startup and reports whether the
// client starts authenticated
func (s *Store) Restore(ctx context.Context) (bool, error) {
	sess, err := s.persist.Load(ctx)
	if err != nil {
		s.sink.Notify(alerts.Error("session", err))
		return false, err
	}
	if sess.Token == "" {
		return false, nil
	}

	s.set(sess)
	s.logger.Info("Session restored", slog.String("user_id", sess.UserID))
	return true, nil
}

func (s *Store) Login(ctx context.Context, email, password string) Result {
	req := users.LoginRequest{Email: email, Password: password}
	if errs := validate.Struct(req, authMessages); errs != nil {
		return Result{Error: errs.First()}
	}

	resp, err := s.auth.Login(ctx, req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return s.acquire(ctx, resp)
}

// Register creates the remote account and signs in with it. Backends that
// answer registration without a token get a follow-up login.
func (s *Store) Register(ctx context.Context, email, password, firstName, lastName string) Result {
	req := users.RegisterRequest{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	if errs := validate.Struct(req, authMessages); errs != nil {
		return Result{Error: errs.First()}
	}

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return Result{Error: err.Error()}
	}

	if resp.Token == "" {
		resp, err = s.auth.Login(ctx, users.LoginRequest{Email: email, Password: password})
		if err != nil {
			return Result{Error: err.Error()}
		}
	}
	return s.acquire(ctx, resp)
}

func (s *Store) acquire(ctx context.Context, resp users.AuthResponse) Result {
	if resp.Token == "" {
		return Result{Error: "server returned no session token"}
	}

	sess := users.Session{
		UserID:      resp.User.ID,
		Token:       resp.Token,
		DisplayName: resp.User.DisplayName(),
		Email:       resp.User.Email,
	}

	if err := s.persist.Save(ctx, sess); err != nil {
		return Result{Error: err.Error()}
	}

	s.set(sess)
	s.logger.Info("Session acquired", slog.String("user_id", sess.UserID))
	return Result{Success: true}
}

func (s *Store) set(sess users.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.notify(Event{Transition: Acquired, Session: sess})
}

// Logout clears the session in memory and in durable storage. It never
// fails; a durable clear error is surfaced as an alert.
func (s *Store) Logout() {
	s.teardown("logout", "")
}

// HandleUnauthorized tears the session down after the server rejected token,
// exactly like Logout. A rejection of a token that is no longer current, for
// example a request sent before a re-login, leaves the new session alone.
func (s *Store) HandleUnauthorized(token string) {
	if token == "" {
		return
	}
	if s.teardown("unauthorized", token) {
		s.sink.Notify(alerts.Warning("session", "Your session has expired, please sign in again"))
	}
}

// teardown clears the session. When token is set it only clears a session
// holding that token.
func (s *Store) teardown(reason, token string) bool {
	s.mu.Lock()
	if token != "" && s.current.Token != token {
		s.mu.Unlock()
		return false
	}
	had := !s.current.IsZero()
	s.current = users.Session{}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := s.persist.Clear(ctx); err != nil {
		s.sink.Notify(alerts.Error("session", errors.Join(errors.New("signed out, but the stored session could not be removed"), err)))
	}

	if had {
		s.logger.Info("Session cleared", slog.String("reason", reason))
		s.notify(Event{Transition: Cleared})
	}
	return had
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) Current() users.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn for session transitions. The returned func removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
