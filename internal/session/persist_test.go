package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})
	return mr, redisClient
}

func TestFilePersister_RoundTripAndMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	p := NewFilePersister(path)
	ctx := context.Background()

	empty, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	want := users.Session{UserID: "u1", Token: "tok", Email: "demo@example.com"}
	require.NoError(t, p.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, p.Clear(ctx))
	require.NoError(t, p.Clear(ctx))
}

func TestFilePersister_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}

func TestRedisPersister(t *testing.T) {
	mr, client := setupTestRedis(t)
	p := NewRedisPersister(client, "token")
	ctx := context.Background()

	empty, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	want := users.Session{UserID: "u1", Token: "tok"}
	require.NoError(t, p.Save(ctx, want))
	assert.True(t, mr.Exists("session:token"))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, p.Clear(ctx))
	assert.False(t, mr.Exists("session:token"))
}
