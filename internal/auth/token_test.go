package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamtube/internal/model"
)

var tokenTestUser = model.User{
	ID:       42,
	UserName: "creator",
	Email:    "creator@example.com",
	FullName: "The Creator",
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("access-secret", tok.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "creator", claims.UserName)
	assert.Equal(t, "creator@example.com", claims.Email)
	assert.Equal(t, "The Creator", claims.FullName)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("access-secret", tokenTestUser, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond) // jwt exp has second granularity

	_, err = ParseAccessToken("access-secret", tok.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenTampered(t *testing.T) {
	tok, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)

	tampered := tok.Value[:len(tok.Value)-2] + "xx"
	_, err = ParseAccessToken("access-secret", tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseAccessToken("access-secret", "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenMisconfiguration(t *testing.T) {
	_, err := NewAccessToken("", tokenTestUser, time.Minute)
	assert.ErrorIs(t, err, ErrSigningKey)

	_, err = NewAccessToken("secret", tokenTestUser, 0)
	assert.ErrorIs(t, err, ErrSigningKey)

	_, err = NewRefreshToken("", 1, time.Hour)
	assert.ErrorIs(t, err, ErrSigningKey)

	_, err = NewRefreshToken("secret", 1, -time.Hour)
	assert.ErrorIs(t, err, ErrSigningKey)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken("refresh-secret", 42, time.Hour)
	require.NoError(t, err)

	id, err := ParseRefreshToken("refresh-secret", tok.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestRefreshAndAccessSecretsAreNotInterchangeable(t *testing.T) {
	access, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)
	refresh, err := NewRefreshToken("refresh-secret", tokenTestUser.ID, time.Hour)
	require.NoError(t, err)

	// An access token must not verify as a refresh token and vice versa.
	_, err = ParseRefreshToken("refresh-secret", access.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = ParseAccessToken("access-secret", refresh.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	// Two tokens minted back to back land on the same iat/exp second.  They
	// must still differ: rotation stores the digest of the replacement token
	// in the slot, and if the replacement could equal the token it consumes,
	// the consumed token would remain live and every concurrent rotation
	// holding it would pass the compare-and-swap.
	r1, err := NewRefreshToken("refresh-secret", 42, time.Hour)
	require.NoError(t, err)
	r2, err := NewRefreshToken("refresh-secret", 42, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Value, r2.Value)
	assert.NotEqual(t, HashRefreshRaw(r1.Value), HashRefreshRaw(r2.Value))

	a1, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)
	a2, err := NewAccessToken("access-secret", tokenTestUser, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, a1.Value, a2.Value)
}

func TestHashRefreshRaw(t *testing.T) {
	a := HashRefreshRaw("token-a")
	b := HashRefreshRaw("token-b")

	assert.Len(t, a, 64) // sha256 hex
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashRefreshRaw("token-a"))
}
