package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamtube/internal/auth"
	"github.com/iliyamo/streamtube/internal/config"
	"github.com/iliyamo/streamtube/internal/model"
	"github.com/iliyamo/streamtube/internal/repository"
	"github.com/iliyamo/streamtube/internal/storage"
)

// memStore is an in-memory account store implementing both the handler's
// AccountStore and auth.UserStore.
type memStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newMemStore() *memStore { return &memStore{users: map[uint64]*model.User{}, nextID: 1} }

func (s *memStore) Create(_ context.Context, u *model.User) error {
	for _, e := range s.users {
		if e.UserName == u.UserName || e.Email == u.Email {
			return repository.ErrConflict
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memStore) GetByUserName(_ context.Context, userName string) (model.User, error) {
	for _, u := range s.users {
		if u.UserName == userName {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memStore) SetRefreshTokenHash(_ context.Context, id uint64, hash string) error {
	if u, ok := s.users[id]; ok {
		h := hash
		u.RefreshTokenHash = &h
		return nil
	}
	return sql.ErrNoRows
}

func (s *memStore) SwapRefreshTokenHash(_ context.Context, id uint64, current, next string) (bool, error) {
	u, ok := s.users[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != current {
		return false, nil
	}
	n := next
	u.RefreshTokenHash = &n
	return true, nil
}

func (s *memStore) ClearRefreshTokenHash(_ context.Context, id uint64) error {
	if u, ok := s.users[id]; ok {
		u.RefreshTokenHash = nil
	}
	return nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	if u, ok := s.users[id]; ok {
		u.PasswordHash = hash
		return nil
	}
	return sql.ErrNoRows
}

// recordingMedia accepts every object and records removals so tests can
// assert on compensating deletes.
type recordingMedia struct {
	stored  int
	removed []string
}

func (m *recordingMedia) Enabled() bool { return true }

func (m *recordingMedia) Store(_ context.Context, kind, fileName, _ string, body io.Reader) (*storage.StoredObject, error) {
	_, _ = io.Copy(io.Discard, body)
	m.stored++
	key := kind + "/" + fileName
	return &storage.StoredObject{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (m *recordingMedia) Remove(_ context.Context, key string) error {
	m.removed = append(m.removed, key)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
}

func newTestAuthHandler(store *memStore, media *recordingMedia) *AuthHandler {
	cfg := testConfig()
	svc := auth.NewService(store, cfg.AccessSecret, cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		cfg.BcryptCost)
	return NewAuthHandler(cfg, store, svc, media)
}

func registerForm(t *testing.T, userName, email, fullName, password string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("user_name", userName))
	require.NoError(t, w.WriteField("email", email))
	require.NoError(t, w.WriteField("full_name", fullName))
	require.NoError(t, w.WriteField("password", password))
	fw, err := w.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doRegister(t *testing.T, h *AuthHandler, userName, email string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := registerForm(t, userName, email, "Test User", "pass-word")
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Register(c))
	return rec
}

func doLogin(t *testing.T, h *AuthHandler, userName, password string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"user_name": userName, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Login(c))
	return rec
}

func TestRegisterReturnsSanitizedView(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})

	rec := doRegister(t, h, "Bob", "Bob@Example.com")
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	// Identifiers are normalized to lower case.
	assert.Equal(t, "bob", got["user_name"])
	assert.Equal(t, "bob@example.com", got["email"])
	// Secrets never appear in any response shape.
	raw := rec.Body.String()
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "refresh_token_hash")
	// Registration does not establish a session.
	assert.NotContains(t, raw, "access")
	assert.Empty(t, rec.Result().Cookies())
}

func TestRegisterDuplicateCleansUpMedia(t *testing.T) {
	media := &recordingMedia{}
	h := newTestAuthHandler(newMemStore(), media)

	rec := doRegister(t, h, "bob", "bob@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRegister(t, h, "bob", "bob@example.com")
	assert.Equal(t, http.StatusConflict, rec.Code)
	// The avatar stored for the failed attempt was removed again.
	assert.Equal(t, []string{"avatars/avatar.png"}, media.removed)
}

func TestLoginSetsCookiesAndReturnsPair(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})
	doRegister(t, h, "bob", "bob@example.com")

	rec := doLogin(t, h, "bob", "pass-word")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User    map[string]any    `json:"user"`
		Access  map[string]string `json:"access"`
		Refresh map[string]string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Access["token"])
	assert.NotEmpty(t, resp.Refresh["token"])

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, ck := range cookies {
		byName[ck.Name] = ck
	}
	require.Contains(t, byName, "accessToken")
	require.Contains(t, byName, "refreshToken")
	for _, name := range []string{"accessToken", "refreshToken"} {
		ck := byName[name]
		assert.True(t, ck.HttpOnly, "%s must be HttpOnly", name)
		assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
		assert.False(t, ck.Secure, "test env is not prod")
		assert.Positive(t, ck.MaxAge)
	}
	assert.Greater(t, byName["refreshToken"].MaxAge, byName["accessToken"].MaxAge)
}

func TestLoginFailureShapesMatch(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})
	doRegister(t, h, "bob", "bob@example.com")

	unknown := doLogin(t, h, "nobody", "pass-word")
	wrongPass := doLogin(t, h, "bob", "wrong")

	// Unknown user and wrong password must be indistinguishable on the wire.
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestRefreshRotatesViaCookie(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})
	doRegister(t, h, "bob", "bob@example.com")
	login := doLogin(t, h, "bob", "pass-word")

	var refreshCookie *http.Cookie
	for _, ck := range login.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refreshCookie = ck
		}
	}
	require.NotNil(t, refreshCookie)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(refreshCookie)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Refresh map[string]string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, refreshCookie.Value, resp.Refresh["token"])

	// The consumed token is now rejected.
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(refreshCookie)
	rec = httptest.NewRecorder()
	c = echo.New().NewContext(req, rec)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectionsAreGeneric(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})

	// Missing token.
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token in the body.
	payload, _ := json.Marshal(map[string]string{"refresh_token": "garbage"})
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = echo.New().NewContext(req, rec)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesSlotAndClearsCookies(t *testing.T) {
	store := newMemStore()
	h := newTestAuthHandler(store, &recordingMedia{})
	doRegister(t, h, "bob", "bob@example.com")
	login := doLogin(t, h, "bob", "pass-word")

	var refreshCookie *http.Cookie
	for _, ck := range login.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refreshCookie = ck
		}
	}
	require.NotNil(t, refreshCookie)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", uint64(1))
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Both cookies are expired client-side.
	expired := 0
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "accessToken" || ck.Name == "refreshToken" {
			assert.LessOrEqual(t, ck.MaxAge, 0)
			assert.Empty(t, ck.Value)
			expired++
		}
	}
	assert.Equal(t, 2, expired)

	// The server-side slot is gone: the old refresh token cannot rotate.
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(refreshCookie)
	rec = httptest.NewRecorder()
	c = echo.New().NewContext(req, rec)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	h := newTestAuthHandler(newMemStore(), &recordingMedia{})
	doRegister(t, h, "bob", "bob@example.com")

	do := func(old, new string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]string{"old_password": old, "new_password": new})
		req := httptest.NewRequest(http.MethodPost, "/v1/change-password", bytes.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)
		c.Set("user_id", uint64(1))
		require.NoError(t, h.ChangePassword(c))
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("wrong", "next-pass").Code)
	assert.Equal(t, http.StatusOK, do("pass-word", "next-pass").Code)

	// Old credentials are dead, new ones work.
	assert.Equal(t, http.StatusUnauthorized, doLogin(t, h, "bob", "pass-word").Code)
	assert.Equal(t, http.StatusOK, doLogin(t, h, "bob", "next-pass").Code)
}
