package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

// Persister is the durable mirror of the in-memory session. Load returns the
// zero session and no error when nothing is stored.
type Persister interface {
	Load(ctx context.Context) (users.Session, error)
	Save(ctx context.Context, s users.Session) error
	Clear(ctx context.Context) error
}

// FilePersister keeps the session as a JSON document readable only by the
// current user
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load(ctx context.Context) (users.Session, error) {
	var s users.Session

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return users.Session{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	return s, nil
}

func (p *FilePersister) Save(ctx context.Context, s users.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (p *FilePersister) Clear(ctx context.Context) error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Session key pattern
const sessionKey = "session:%s" // session:name

// RedisPersister shares one session between every client process pointed at
// the same Redis and name
type RedisPersister struct {
	redis *redis.Client
	key   string
}

func NewRedisPersister(redisClient *redis.Client, name string) *RedisPersister {
	return &RedisPersister{
		redis: redisClient,
		key:   fmt.Sprintf(sessionKey, name),
	}
}

func (p *RedisPersister) Load(ctx context.Context) (users.Session, error) {
	var s users.Session

	cached, err := p.redis.Get(ctx, p.key).Result()
	if errors.Is(err, redis.Nil) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(cached), &s); err != nil {
		return users.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

func (p *RedisPersister) Save(ctx context.Context, s users.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := p.redis.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.redis.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
