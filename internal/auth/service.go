package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/streamtube/internal/model"
)

// UserStore is the slice of the user repository the lifecycle manager needs.
// Absence is signalled with sql.ErrNoRows rather than an error of its own,
// matching the repository layer.  SwapRefreshTokenHash must be an atomic
// compare-and-swap against the refresh token slot so concurrent rotations
// with the same stale token produce at most one winner.
type UserStore interface {
	GetByUserName(ctx context.Context, userName string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetRefreshTokenHash(ctx context.Context, userID uint64, hash string) error
	SwapRefreshTokenHash(ctx context.Context, userID uint64, current, next string) (bool, error)
	ClearRefreshTokenHash(ctx context.Context, userID uint64) error
	UpdatePasswordHash(ctx context.Context, userID uint64, hash string) error
}

// Service issues, rotates and revokes sessions.  It is stateless: every
// dependency is an explicit constructor parameter and every method operates
// only on its inputs plus the user store.
type Service struct {
	users         UserStore
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int
}

// NewService wires the lifecycle manager.  Access and refresh secrets are
// expected to differ; TTLs come straight from configuration.
func NewService(users UserStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, bcryptCost int) *Service {
	return &Service{
		users:         users,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		bcryptCost:    bcryptCost,
	}
}

// Session is the outcome of a successful authentication or rotation: the
// account plus a fresh access/refresh pair.  The refresh token's digest is
// already stored in the user's slot when a Session is returned.
type Session struct {
	User    model.User
	Access  Token
	Refresh Token
}

// RotationStage identifies where a rotation attempt terminated.  The stages
// mirror the protocol's ordered checks and exist so tests can assert on the
// precise rejection point; the HTTP layer still collapses every rejection
// into one generic error.
type RotationStage int

const (
	StageRotated          RotationStage = iota // full success, new pair issued
	StageSignatureInvalid                      // missing, malformed, tampered or expired token
	StageAccountNotFound                       // token subject no longer resolves to a user
	StageSlotMismatch                          // signature fine but the slot holds a different token
)

// RotationResult carries the stage a rotation reached and, on success, the
// new session.
type RotationResult struct {
	Stage   RotationStage
	Session Session
}

// Authenticate verifies a user name and password and establishes a new
// session.  An unknown user name and a wrong password yield the identical
// ErrInvalidCredentials so the response shape cannot distinguish them.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (Session, error) {
	userName = strings.ToLower(strings.TrimSpace(userName))
	u, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.IssueSession(ctx, u)
}

// IssueSession mints a fresh access/refresh pair for the user and overwrites
// the refresh token slot with the new token's digest, revoking whatever
// session existed before.
func (s *Service) IssueSession(ctx context.Context, u model.User) (Session, error) {
	access, err := NewAccessToken(s.accessSecret, u, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, err := NewRefreshToken(s.refreshSecret, u.ID, s.refreshTTL)
	if err != nil {
		return Session{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, HashRefreshRaw(refresh.Value)); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Rotate exchanges a live refresh token for a new pair.  The checks run in a
// fixed order and short-circuit at the first failure:
//
//	signature/expiry -> account lookup -> slot comparison -> compare-and-swap
//
// A slot mismatch on a token whose signature still verifies means the token
// was already rotated out or revoked; that is the revocation mechanism
// working, and for a stolen token it is the moment theft becomes visible, so
// it is logged as a security event (without the token itself).
func (s *Service) Rotate(ctx context.Context, raw string) (RotationResult, error) {
	if strings.TrimSpace(raw) == "" {
		return RotationResult{Stage: StageSignatureInvalid}, ErrRefreshTokenRequired
	}
	userID, err := ParseRefreshToken(s.refreshSecret, raw)
	if err != nil {
		return RotationResult{Stage: StageSignatureInvalid}, ErrInvalidRefreshToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Same generic rejection as a bad token; the response must not
			// reveal whether the account exists.
			return RotationResult{Stage: StageAccountNotFound}, ErrInvalidRefreshToken
		}
		return RotationResult{}, fmt.Errorf("load user: %w", err)
	}

	presented := HashRefreshRaw(raw)
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != presented {
		log.Printf("auth: refresh slot mismatch for user %d (rotated-out or revoked token presented)", u.ID)
		return RotationResult{Stage: StageSlotMismatch}, ErrInvalidRefreshToken
	}

	access, err := NewAccessToken(s.accessSecret, u, s.accessTTL)
	if err != nil {
		return RotationResult{}, err
	}
	refresh, err := NewRefreshToken(s.refreshSecret, u.ID, s.refreshTTL)
	if err != nil {
		return RotationResult{}, err
	}
	swapped, err := s.users.SwapRefreshTokenHash(ctx, u.ID, presented, HashRefreshRaw(refresh.Value))
	if err != nil {
		return RotationResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		// A concurrent rotation won the slot between our read and the swap.
		return RotationResult{Stage: StageSlotMismatch}, ErrInvalidRefreshToken
	}
	return RotationResult{
		Stage:   StageRotated,
		Session: Session{User: u, Access: access, Refresh: refresh},
	}, nil
}

// Revoke clears the user's refresh token slot, invalidating every
// outstanding refresh token at once.  Already-issued access tokens stay
// valid until their natural expiry; they are stateless and carry no
// revocation hook.
func (s *Service) Revoke(ctx context.Context, userID uint64) error {
	if err := s.users.ClearRefreshTokenHash(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password, stores a hash of the new one and
// revokes the refresh slot so other devices have to log in again.  The old
// password failing verification yields the same ErrInvalidCredentials as a
// failed login.
func (s *Service) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !VerifyPassword(u.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return s.Revoke(ctx, userID)
}

// ParseAccess verifies an access token with the service's configured secret.
// Used by the JWT middleware.
func (s *Service) ParseAccess(raw string) (AccessClaims, error) {
	return ParseAccessToken(s.accessSecret, raw)
}
