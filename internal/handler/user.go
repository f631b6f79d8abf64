package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/repository"
	"github.com/iliyamo/streamtube/internal/storage"
)

// UserHandler serves profile mutation, channel profiles and watch history.
type UserHandler struct {
	Users   *repository.UserRepo
	Subs    *repository.SubscriptionRepo
	History *repository.HistoryRepo
	Media   storage.MediaStore
}

func NewUserHandler(users *repository.UserRepo, subs *repository.SubscriptionRepo, history *repository.HistoryRepo, media storage.MediaStore) *UserHandler {
	return &UserHandler{Users: users, Subs: subs, History: history, Media: media}
}

type updateAccountReq struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UpdateAccount changes the caller's email and display name.
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.FullName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, uid, req.Email, req.FullName); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, viewOf(u))
}

// UpdateAvatar stores a new avatar object, points the user at it, and then
// removes the previous object best effort.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatars", "avatar",
		func(ctx context.Context, uid uint64, url, key string) error {
			return h.Users.UpdateAvatar(ctx, uid, url, key)
		})
}

// UpdateCover stores a new cover image, analogous to UpdateAvatar.
func (h *UserHandler) UpdateCover(c echo.Context) error {
	return h.updateImage(c, "covers", "cover_image",
		func(ctx context.Context, uid uint64, url, key string) error {
			return h.Users.UpdateCover(ctx, uid, url, key)
		})
}

// updateImage is the shared store-swap-cleanup sequence behind the avatar
// and cover endpoints.
func (h *UserHandler) updateImage(c echo.Context, kind, field string,
	apply func(context.Context, uint64, string, string) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Read the current record first so the replaced object can be removed
	// once the swap has succeeded.
	before, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	obj, err := storeFile(ctx, h.Media, kind, fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	var url, key string
	if obj != nil {
		url, key = obj.URL, obj.Key
	}
	if err := apply(ctx, uid, url, key); err != nil {
		removeStored(ctx, h.Media, obj)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	// Old object cleanup is best effort; the new reference is already live.
	oldKey := before.AvatarKey
	if kind == "covers" {
		oldKey = before.CoverKey
	}
	if oldKey != "" && oldKey != key {
		_ = h.Media.Remove(ctx, oldKey)
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, viewOf(u))
}

// Channel returns the aggregated public profile for a user name: identity,
// subscriber counts and whether the caller is subscribed.  Works for
// anonymous callers behind OptionalJWT.
func (h *UserHandler) Channel(c echo.Context) error {
	userName := strings.TrimSpace(c.Param("userName"))
	if userName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Subs.ChannelProfile(ctx, userName, optionalUserID(c))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load channel failed"})
	}
	return c.JSON(http.StatusOK, profile)
}

// WatchHistory returns the caller's watch history, newest first.
func (h *UserHandler) WatchHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.History.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
