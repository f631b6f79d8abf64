package auth

import (
	"crypto/sha256" // SHA-256 hashing for refresh token slot values
	"encoding/hex"  // hex encoding for digests
	"time"          // expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // jti claim values

	"github.com/iliyamo/streamtube/internal/model"
)

// Token is a signed JWT string together with its expiry.  Access tokens are
// presented in the Authorization header or the accessToken cookie; refresh
// tokens only ever travel through the refresh endpoint.
type Token struct {
	Value string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims is the verified claim set of an access token.  It is
// self-contained: middleware trusts it without a database lookup.
type AccessClaims struct {
	UserID   uint64
	UserName string
	Email    string
	FullName string
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The claims carry
// the identity fields handlers need (sub, user_name, email, full_name) plus
// jti, iat and exp.  An empty secret or non-positive TTL yields ErrSigningKey;
// tokens are never issued half-configured.
func NewAccessToken(secret string, u model.User, ttl time.Duration) (Token, error) {
	if secret == "" || ttl <= 0 {
		return Token{}, ErrSigningKey
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":       u.ID,
		"user_name": u.UserName,
		"email":     u.Email,
		"full_name": u.FullName,
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// NewRefreshToken signs a minimal HS256 JWT carrying only {sub, jti, iat,
// exp}.  The refresh token's sole job is to authorize rotation, so it
// deliberately carries no identity claims beyond the user ID.  The jti makes
// every issued token distinct even within the same second; without it a
// rotation could mint a byte-identical replacement and the consumed token
// would stay live.  It must be signed with a different secret than access
// tokens.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (Token, error) {
	if secret == "" || ttl <= 0 {
		return Token{}, ErrSigningKey
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and expiry and returns the claim set.
// Every failure mode (tampering, wrong key, expired, wrong algorithm)
// collapses into ErrTokenInvalid; callers never see partial claims.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return AccessClaims{}, err
	}
	out := AccessClaims{UserID: claimUint64(claims, "sub")}
	if out.UserID == 0 {
		return AccessClaims{}, ErrTokenInvalid
	}
	out.UserName, _ = claims["user_name"].(string)
	out.Email, _ = claims["email"].(string)
	out.FullName, _ = claims["full_name"].(string)
	return out, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token and
// returns the subject user ID.  Signature validity alone does not make the
// token live; the rotation protocol still compares it against the stored
// slot.
func ParseRefreshToken(secret, raw string) (uint64, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return 0, err
	}
	id := claimUint64(claims, "sub")
	if id == 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
// Only this digest is stored in the user's slot, so a leaked database row
// cannot be replayed as a refresh token; equality of digests stands in for
// byte-for-byte equality of the token values.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// parseHS256 validates an HS256 token and returns its claims.  The signing
// method is pinned so a token re-signed with "none" or an asymmetric
// algorithm is rejected.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, ErrSigningKey
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// claimUint64 reads a numeric claim that the jwt library may have decoded as
// float64 (JSON numbers) or that we stored as uint64 before signing.
func claimUint64(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	case int64:
		return uint64(v)
	}
	return 0
}
