// Package auth implements the credential and session lifecycle: password
// hashing and verification, issuing of the access/refresh token pair, and
// the refresh token rotation protocol anchored on the single per-user
// refresh token slot.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown user name and a
	// wrong password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshTokenRequired is returned when no refresh token was presented
	// at all (neither cookie nor body).
	ErrRefreshTokenRequired = errors.New("refresh token required")

	// ErrInvalidRefreshToken is the single generic rejection for every failed
	// rotation stage: bad signature, expired token, unknown account or slot
	// mismatch.  Callers must force the client to authenticate from scratch.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrUserExists is returned when registration collides with an existing
	// user name or email.
	ErrUserExists = errors.New("user already exists")

	// ErrSigningKey indicates operator-facing misconfiguration: an empty
	// signing secret or a non-positive TTL.  Tokens are never issued in that
	// state.
	ErrSigningKey = errors.New("token signing key misconfigured")

	// ErrTokenInvalid is the terminal outcome of token verification.  Any
	// tampering, wrong key or past expiry collapses into this error; no
	// partial claims are ever returned alongside it.
	ErrTokenInvalid = errors.New("token invalid")
)
