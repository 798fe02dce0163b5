package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type sessionSet map[string]bool

func (s sessionSet) SessionActive(userID, sessionID string) bool {
	return s[userID+"/"+sessionID]
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	w.Write([]byte(userID + "/" + GetSessionIDFromContext(r.Context())))
}

func authRequest(t *testing.T, h http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	sessions := sessionSet{"u1/s1": true}
	h := AuthMiddleware(secret, sessions)(http.HandlerFunc(echoUser))

	valid, err := jwt.CreateToken("u1", "s1", secret)
	require.NoError(t, err)
	revoked, err := jwt.CreateToken("u1", "s2", secret)
	require.NoError(t, err)
	foreign, err := jwt.CreateToken("u1", "s1", "other")
	require.NoError(t, err)

	rec := authRequest(t, h, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1/s1", rec.Body.String())

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": "Token " + valid,
		"empty":     "Bearer ",
		"foreign":   "Bearer " + foreign,
		"revoked":   "Bearer " + revoked,
	} {
		t.Run(name, func(t *testing.T) {
			rec := authRequest(t, h, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rlc := NewRateLimitConfig(client, map[string]int64{ActionLikes: 2})
	h := AuthMiddleware(secret, nil)(rlc.RateLimitedHandler(ActionLikes, echoUser))

	token, err := jwt.CreateToken("u1", "s1", secret)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rec := authRequest(t, h, "Bearer "+token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := authRequest(t, h, "Bearer "+token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	rlc := NewRateLimitConfig(nil, map[string]int64{ActionLikes: 1})
	h := rlc.RateLimitedHandler(ActionLikes, echoUser)

	for i := 0; i < 3; i++ {
		rec := authRequest(t, h, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
