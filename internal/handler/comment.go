package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/model"
	"github.com/iliyamo/streamtube/internal/repository"
)

// CommentHandler serves video comment endpoints.
type CommentHandler struct {
	Comments *repository.CommentRepo
}

func NewCommentHandler(comments *repository.CommentRepo) *CommentHandler {
	return &CommentHandler{Comments: comments}
}

type commentReq struct {
	Content string `json:"content"`
}

type commentView struct {
	ID        uint64    `json:"id"`
	VideoID   uint64    `json:"video_id"`
	OwnerID   uint64    `json:"owner_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func commentViewOf(cm model.Comment) commentView {
	return commentView{ID: cm.ID, VideoID: cm.VideoID, OwnerID: cm.OwnerID, Content: cm.Content, CreatedAt: cm.CreatedAt, UpdatedAt: cm.UpdatedAt}
}

// Create handles POST /v1/videos/:id/comments.
func (h *CommentHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	videoID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cm := model.Comment{VideoID: videoID, OwnerID: uid, Content: content}
	if err := h.Comments.Create(ctx, &cm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}
	cm.CreatedAt, cm.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	return c.JSON(http.StatusCreated, commentViewOf(cm))
}

// ListByVideo handles GET /v1/videos/:id/comments.
func (h *CommentHandler) ListByVideo(c echo.Context) error {
	videoID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Comments.ListByVideo(ctx, videoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	views := make([]commentView, 0, len(items))
	for _, cm := range items {
		views = append(views, commentViewOf(cm))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// Delete handles DELETE /v1/comments/:id for the owner.
func (h *CommentHandler) Delete(c echo.Context) error {
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

	if err := h.Comments.Delete(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
