package auth

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamtube/internal/model"
)

// fakeUserStore is an in-memory UserStore.  Its swap is guarded by a mutex so
// the concurrency test exercises real single-winner semantics.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uint64]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[uint64]*model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByUserName(_ context.Context, userName string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UserName == userName {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) SetRefreshTokenHash(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		h := hash
		u.RefreshTokenHash = &h
		return nil
	}
	return sql.ErrNoRows
}

func (s *fakeUserStore) SwapRefreshTokenHash(_ context.Context, id uint64, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != current {
		return false, nil
	}
	n := next
	u.RefreshTokenHash = &n
	return true, nil
}

func (s *fakeUserStore) ClearRefreshTokenHash(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.RefreshTokenHash = nil
	}
	return nil
}

func (s *fakeUserStore) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.PasswordHash = hash
		return nil
	}
	return sql.ErrNoRows
}

func (s *fakeUserStore) slot(id uint64) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.RefreshTokenHash
	}
	return nil
}

func newTestService(t *testing.T, store *fakeUserStore) *Service {
	t.Helper()
	return NewService(store, "access-secret", "refresh-secret", time.Minute, time.Hour, 4)
}

func seedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := HashPassword(password, 4)
	require.NoError(t, err)
	return &model.User{
		ID:           7,
		UserName:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice A",
		PasswordHash: hash,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	u := seedUser(t, "correct horse")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	sess, err := svc.Authenticate(context.Background(), "Alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.NotEmpty(t, sess.Access.Value)
	assert.NotEmpty(t, sess.Refresh.Value)

	// The slot now holds the digest of the issued refresh token.
	require.NotNil(t, store.slot(u.ID))
	assert.Equal(t, HashRefreshRaw(sess.Refresh.Value), *store.slot(u.ID))
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	store := newFakeUserStore(seedUser(t, "correct horse"))
	svc := newTestService(t, store)

	_, errUnknown := svc.Authenticate(context.Background(), "nobody", "whatever")
	_, errWrongPass := svc.Authenticate(context.Background(), "alice", "wrong")

	// Unknown user and wrong password must be the same error value, not just
	// the same message.
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrongPass)
}

func TestLoginSupersedesPreviousSession(t *testing.T) {
	u := seedUser(t, "pw")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	first, err := svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)

	// The first session's refresh token was rotated out by the second login.
	res, err := svc.Rotate(context.Background(), first.Refresh.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageSlotMismatch, res.Stage)
}

func TestRotateOnce(t *testing.T) {
	u := seedUser(t, "pw")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	sess, err := svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)

	res, err := svc.Rotate(context.Background(), sess.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, StageRotated, res.Stage)
	assert.NotEqual(t, sess.Refresh.Value, res.Session.Refresh.Value)
	assert.Equal(t, HashRefreshRaw(res.Session.Refresh.Value), *store.slot(u.ID))

	// The consumed token is dead; presenting it again is a slot mismatch.
	res2, err := svc.Rotate(context.Background(), sess.Refresh.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageSlotMismatch, res2.Stage)

	// The freshly issued one still works.
	res3, err := svc.Rotate(context.Background(), res.Session.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, StageRotated, res3.Stage)
}

func TestRotateRejectionStages(t *testing.T) {
	u := seedUser(t, "pw")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	res, err := svc.Rotate(context.Background(), "")
	assert.ErrorIs(t, err, ErrRefreshTokenRequired)
	assert.Equal(t, StageSignatureInvalid, res.Stage)

	res, err = svc.Rotate(context.Background(), "garbage.token.value")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageSignatureInvalid, res.Stage)

	// Valid signature for an account that no longer exists.
	ghost, err := NewRefreshToken("refresh-secret", 9999, time.Hour)
	require.NoError(t, err)
	res, err = svc.Rotate(context.Background(), ghost.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageAccountNotFound, res.Stage)

	// Valid signature for a real account whose slot holds something else.
	stray, err := NewRefreshToken("refresh-secret", u.ID, time.Hour)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)
	res, err = svc.Rotate(context.Background(), stray.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageSlotMismatch, res.Stage)
}

func TestRevokeThenRotateFails(t *testing.T) {
	u := seedUser(t, "pw")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	sess, err := svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), u.ID))
	assert.Nil(t, store.slot(u.ID))

	res, err := svc.Rotate(context.Background(), sess.Refresh.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, StageSlotMismatch, res.Stage)
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	u := seedUser(t, "pw")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	sess, err := svc.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]RotationResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Rotate(context.Background(), sess.Refresh.Value)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, res := range results {
		if res.Stage == StageRotated {
			winners++
			assert.Equal(t, HashRefreshRaw(res.Session.Refresh.Value), *store.slot(u.ID))
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent rotation may win the slot")
}

func TestChangePassword(t *testing.T) {
	u := seedUser(t, "old-pass")
	store := newFakeUserStore(u)
	svc := newTestService(t, store)

	sess, err := svc.Authenticate(context.Background(), "alice", "old-pass")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), u.ID, "wrong", "new-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "old-pass", "new-pass"))

	// Old password no longer works, new one does.
	_, err = svc.Authenticate(context.Background(), "alice", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "alice", "new-pass")
	assert.NoError(t, err)

	// The change also revoked the session that was live before it.
	res, err := svc.Rotate(context.Background(), sess.Refresh.Value)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NotEqual(t, StageRotated, res.Stage)
}
