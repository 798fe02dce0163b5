package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndParse(t *testing.T) {
	token, err := CreateToken("user-1", "sess-1", "secret")
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: "user-1", SessionID: "sess-1"}, claims)

	userID, err := ExtractUserIDFromToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := CreateToken("user-1", "sess-1", "secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	token, err := CreateTokenWithTTL("user-1", "sess-1", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := ExtractUserIDFromToken("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
