package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/repository"
)

// LikeHandler serves the like toggle endpoints for videos, comments and
// tweets, plus the caller's liked-video listing.
type LikeHandler struct {
	Likes *repository.LikeRepo
}

func NewLikeHandler(likes *repository.LikeRepo) *LikeHandler {
	return &LikeHandler{Likes: likes}
}

// ToggleVideo handles POST /v1/videos/:id/like.
func (h *LikeHandler) ToggleVideo(c echo.Context) error {
	return h.toggle(c, h.Likes.ToggleVideo)
}

// ToggleComment handles POST /v1/comments/:id/like.
func (h *LikeHandler) ToggleComment(c echo.Context) error {
	return h.toggle(c, h.Likes.ToggleComment)
}

// ToggleTweet handles POST /v1/tweets/:id/like.
func (h *LikeHandler) ToggleTweet(c echo.Context) error {
	return h.toggle(c, h.Likes.ToggleTweet)
}

func (h *LikeHandler) toggle(c echo.Context, fn func(context.Context, uint64, uint64) (bool, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	liked, err := fn(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked})
}

// ListLikedVideos handles GET /v1/likes/videos.
func (h *LikeHandler) ListLikedVideos(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Likes.ListLikedVideos(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": videoViewsOf(items)})
}
