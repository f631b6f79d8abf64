package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags so the
// password hash and refresh token slot never leak into a response.
//
// RefreshTokenHash is the single per-user session slot: it holds the
// SHA-256 digest of the currently live refresh token, or NULL when the
// user has no session. Overwriting or clearing it invalidates every
// previously issued refresh token at once.
//
// Fields:
//  ID               – primary key identifier of the user.
//  UserName         – unique lowercased handle.
//  Email            – unique lowercased email address.
//  FullName         – display name.
//  PasswordHash     – bcrypt hashed password.
//  AvatarURL        – public URL of the avatar image.
//  AvatarKey        – object store key of the avatar image.
//  CoverURL         – public URL of the cover image (empty if none).
//  CoverKey         – object store key of the cover image (empty if none).
//  RefreshTokenHash – SHA-256 hex digest of the live refresh token (nullable).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	UserName         string    // users.user_name
	Email            string    // users.email
	FullName         string    // users.full_name
	PasswordHash     string    // users.password_hash
	AvatarURL        string    // users.avatar_url
	AvatarKey        string    // users.avatar_key
	CoverURL         string    // users.cover_url
	CoverKey         string    // users.cover_key
	RefreshTokenHash *string   // users.refresh_token_hash (nullable)
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}
