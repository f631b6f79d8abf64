package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel error matching
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/streamtube/internal/auth"       // credential & session lifecycle
	"github.com/iliyamo/streamtube/internal/config"     // app configuration
	"github.com/iliyamo/streamtube/internal/model"      // row structs
	"github.com/iliyamo/streamtube/internal/repository" // DB repositories
	"github.com/iliyamo/streamtube/internal/storage"    // media store
)

// AccountStore is the slice of the user repository the auth handler needs.
type AccountStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountStore
	Sessions *auth.Service
	Media    storage.MediaStore
}

func NewAuthHandler(cfg config.Config, accounts AccountStore, sessions *auth.Service, media storage.MediaStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Sessions: sessions, Media: media}
}

// ----- DTOs -----

type loginReq struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// userView is the account representation returned to clients.  It never
// carries the password hash or the refresh token slot.
type userView struct {
	ID        uint64    `json:"id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type authResp struct {
	User    userView  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func viewOf(u model.User) userView {
	return userView{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CoverURL:  u.CoverURL,
		CreatedAt: u.CreatedAt,
	}
}

func sessionResp(s auth.Session) authResp {
	return authResp{
		User:    viewOf(s.User),
		Access:  tokenPart{Token: s.Access.Value, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Value, Expires: s.Refresh.Exp},
	}
}

// Register: create a user from a multipart form carrying the profile fields
// plus an avatar file (required) and an optional cover image.  When the user
// name or email is already taken, any media stored before the collision is
// removed again (best effort) and the request fails with 409.
func (h *AuthHandler) Register(c echo.Context) error {
	userName := strings.ToLower(strings.TrimSpace(c.FormValue("user_name")))
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	fullName := strings.TrimSpace(c.FormValue("full_name"))
	password := c.FormValue("password")
	if userName == "" || email == "" || fullName == "" || strings.TrimSpace(password) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Hashing runs once here, on account creation; it is deliberately the
	// expensive step of this request.
	hash, err := auth.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	avatar, err := storeFile(ctx, h.Media, "avatars", avatarFile)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar upload failed"})
	}
	var cover *storage.StoredObject
	if coverFile, err := c.FormFile("cover_image"); err == nil {
		// A failed cover upload does not block registration.
		if cover, err = storeFile(ctx, h.Media, "covers", coverFile); err != nil {
			cover = nil
		}
	}

	u := model.User{
		UserName:     userName,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if avatar != nil {
		u.AvatarURL, u.AvatarKey = avatar.URL, avatar.Key
	}
	if cover != nil {
		u.CoverURL, u.CoverKey = cover.URL, cover.Key
	}

	if err := h.Accounts.Create(ctx, &u); err != nil {
		// Compensate for media accepted before the failure.
		removeStored(ctx, h.Media, avatar, cover)
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, viewOf(u))
}

// Login: verify credentials and establish a session.  "No such user" and
// "wrong password" produce byte-identical responses.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.Password) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_name/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Sessions.Authenticate(ctx, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	setAuthCookies(c, session.Access, session.Refresh, h.Cfg.IsProd())
	return c.JSON(http.StatusOK, sessionResp(session))
}

// Refresh: rotate the refresh token presented in the refreshToken cookie or
// the request body and re-transport the new pair.  Every rejection —
// missing, malformed, expired, unknown account or slot mismatch — collapses
// into a generic 401 and the client must authenticate from scratch.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Sessions.Rotate(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) || errors.Is(err, auth.ErrRefreshTokenRequired) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	setAuthCookies(c, res.Session.Access, res.Session.Refresh, h.Cfg.IsProd())
	return c.JSON(http.StatusOK, sessionResp(res.Session))
}

// Logout: clear the server-side refresh slot first, then expire both
// cookies.  In that order a refresh token copied from the cookie is already
// useless before the cookie disappears.  Previously issued access tokens
// remain valid until natural expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	clearAuthCookies(c, h.Cfg.IsProd())
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword: verify the old password and store a hash of the new one.
// The refresh slot is revoked as part of the change, so other devices fall
// back to the login flow.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, uid, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// Profile: return the authenticated user's current record.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Accounts.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, viewOf(u))
}
