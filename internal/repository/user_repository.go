package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/streamtube/internal/model"
)

// UserRepo persists users.  The refresh_token_hash column is the single
// per-user session slot; SwapRefreshTokenHash updates it with a
// compare-and-swap so concurrent rotations cannot both succeed.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,user_name,email,full_name,password_hash,avatar_url,avatar_key,cover_url,cover_key,refresh_token_hash,created_at,updated_at"

// Create inserts a user and fills in the generated ID.  UserName and Email
// are stored lowercased; a duplicate on either unique index yields
// ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.UserName = strings.ToLower(strings.TrimSpace(u.UserName))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_name, email, full_name, password_hash, avatar_url, avatar_key, cover_url, cover_key) VALUES (?,?,?,?,?,?,?,?)",
		u.UserName, u.Email, u.FullName, u.PasswordHash, u.AvatarURL, u.AvatarKey, u.CoverURL, u.CoverKey)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUserName fetches a user by normalized handle.
func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	userName = strings.ToLower(strings.TrimSpace(userName))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_name=? LIMIT 1", userName))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile changes email and full name.  A duplicate email yields
// ErrConflict.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, email, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, full_name=? WHERE id=?", email, fullName, id)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// UpdateAvatar swaps the avatar object reference.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url, key string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=?, avatar_key=? WHERE id=?", url, key, id)
	return err
}

// UpdateCover swaps the cover image object reference.
func (r *UserRepo) UpdateCover(ctx context.Context, id uint64, url, key string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET cover_url=?, cover_key=? WHERE id=?", url, key, id)
	return err
}

// UpdatePasswordHash stores a new bcrypt hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// SetRefreshTokenHash overwrites the session slot unconditionally (login,
// fresh session issue).
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", hash, id)
	return err
}

// SwapRefreshTokenHash replaces the slot only if it still holds current.
// Returns false when another writer got there first; the caller treats that
// as a slot mismatch.
func (r *UserRepo) SwapRefreshTokenHash(ctx context.Context, id uint64, current, next string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?",
		next, id, current)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearRefreshTokenHash empties the slot (logout / revocation).
func (r *UserRepo) ClearRefreshTokenHash(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL WHERE id=?", id)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		slot sql.NullString
	)
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.FullName, &u.PasswordHash,
		&u.AvatarURL, &u.AvatarKey, &u.CoverURL, &u.CoverKey, &slot,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if slot.Valid {
		u.RefreshTokenHash = &slot.String
	}
	return u, nil
}
