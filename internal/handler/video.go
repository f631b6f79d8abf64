package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/model"
	"github.com/iliyamo/streamtube/internal/queue"
	"github.com/iliyamo/streamtube/internal/repository"
	queue_publisher "github.com/iliyamo/streamtube/internal/service"
	"github.com/iliyamo/streamtube/internal/storage"
)

// VideoHandler serves video upload, browse and owner mutation endpoints.
type VideoHandler struct {
	Videos  *repository.VideoRepo
	Users   *repository.UserRepo
	History *repository.HistoryRepo
	Media   storage.MediaStore
}

func NewVideoHandler(videos *repository.VideoRepo, users *repository.UserRepo, history *repository.HistoryRepo, media storage.MediaStore) *VideoHandler {
	return &VideoHandler{Videos: videos, Users: users, History: history, Media: media}
}

type videoView struct {
	ID           uint64    `json:"id"`
	OwnerID      uint64    `json:"owner_id"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Duration     float64   `json:"duration_seconds"`
	Views        uint64    `json:"views"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
}

func videoViewOf(v model.Video) videoView {
	return videoView{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Title:        v.Title,
		Description:  v.Description,
		Duration:     v.DurationSeconds,
		Views:        v.Views,
		IsPublic:     v.IsPublic,
		CreatedAt:    v.CreatedAt,
	}
}

func videoViewsOf(vs []model.Video) []videoView {
	out := make([]videoView, 0, len(vs))
	for _, v := range vs {
		out = append(out, videoViewOf(v))
	}
	return out
}

// Upload handles POST /v1/videos: a multipart form with the video file, its
// thumbnail, title, optional description, duration_seconds and is_public.
// Media is stored first; if the database insert then fails the stored
// objects are removed again (best effort).  A video.published event is
// emitted after success; delivery failures never fail the upload.
func (h *VideoHandler) Upload(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	duration, _ := strconv.ParseFloat(c.FormValue("duration_seconds"), 64)
	if duration <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_seconds is required"})
	}
	isPublic := true
	if v := c.FormValue("is_public"); v != "" {
		isPublic = v == "true" || v == "1"
	}
	videoFile, err := c.FormFile("video")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "video is required"})
	}
	thumbFile, err := c.FormFile("thumbnail")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "thumbnail is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	videoObj, err := storeFile(ctx, h.Media, "videos", videoFile)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "video upload failed"})
	}
	thumbObj, err := storeFile(ctx, h.Media, "thumbnails", thumbFile)
	if err != nil {
		removeStored(ctx, h.Media, videoObj)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "thumbnail upload failed"})
	}

	v := model.Video{
		OwnerID:         uid,
		Title:           title,
		Description:     strings.TrimSpace(c.FormValue("description")),
		DurationSeconds: duration,
		IsPublic:        isPublic,
	}
	if videoObj != nil {
		v.VideoURL, v.VideoKey = videoObj.URL, videoObj.Key
	}
	if thumbObj != nil {
		v.ThumbnailURL, v.ThumbnailKey = thumbObj.URL, thumbObj.Key
	}

	if err := h.Videos.Create(ctx, &v); err != nil {
		removeStored(ctx, h.Media, videoObj, thumbObj)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create video failed"})
	}

	// Best-effort event publication; the upload already succeeded.
	ownerName := ""
	if owner, err := h.Users.GetByID(ctx, uid); err == nil {
		ownerName = owner.UserName
	}
	if err := queue_publisher.PublishVideoPublished(ctx, queue.VideoPublishedEvent{
		VideoID:       v.ID,
		OwnerID:       uid,
		OwnerUserName: ownerName,
		Title:         v.Title,
		Duration:      v.DurationSeconds,
		IsPublic:      v.IsPublic,
		PublishedAt:   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("video: publish event failed for video %d: %v", v.ID, err)
	}

	return c.JSON(http.StatusCreated, videoViewOf(v))
}

// ListPublic handles GET /v1/videos and returns the newest public videos.
// Sits behind the Redis response cache.
func (h *VideoHandler) ListPublic(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Videos.ListPublic(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": videoViewsOf(items)})
}

// Get handles GET /v1/videos/:id.  Fetching a video bumps its view counter;
// authenticated viewers also get a watch history entry.  Private videos are
// only visible to their owner.
func (h *VideoHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "video not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	uid := optionalUserID(c)
	if !v.IsPublic && v.OwnerID != uid {
		// Hide the existence of private videos from non-owners.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "video not found"})
	}

	if err := h.Videos.IncrementViews(ctx, id); err == nil {
		v.Views++
	}
	if uid != 0 {
		if err := h.History.Record(ctx, uid, id); err != nil {
			log.Printf("video: record watch failed for user %d video %d: %v", uid, id, err)
		}
	}
	return c.JSON(http.StatusOK, videoViewOf(v))
}

// denyMutation writes the response for a non-owner mutation attempt.  A
// private video is reported as missing, matching Get, so non-owners cannot
// use PATCH or DELETE to confirm it exists; a public one gets a plain 403.
func denyMutation(c echo.Context, v model.Video) error {
	if !v.IsPublic {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "video not found"})
	}
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}

type updateVideoReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// Update handles PATCH /v1/videos/:id for the owner.  Absent fields keep
// their current values.
func (h *VideoHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateVideoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "video not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if v.OwnerID != uid {
		return denyMutation(c, v)
	}
	title, description, isPublic := v.Title, v.Description, v.IsPublic
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
	}
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	if err := h.Videos.UpdateDetails(ctx, id, uid, title, description, isPublic); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Videos.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, videoViewOf(updated))
}

// Delete handles DELETE /v1/videos/:id for the owner.  The database row
// goes first; object removal is a best-effort follow-up.
func (h *VideoHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	v, err := h.Videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "video not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if v.OwnerID != uid {
		return denyMutation(c, v)
	}
	if err := h.Videos.Delete(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if v.VideoKey != "" {
		_ = h.Media.Remove(ctx, v.VideoKey)
	}
	if v.ThumbnailKey != "" {
		_ = h.Media.Remove(ctx, v.ThumbnailKey)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByOwner handles GET /v1/users/:id/videos (public uploads of a user;
// owners also see their private ones).
func (h *VideoHandler) ListByOwner(c echo.Context) error {
	ownerID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Videos.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if optionalUserID(c) != ownerID {
		visible := items[:0]
		for _, v := range items {
			if v.IsPublic {
				visible = append(visible, v)
			}
		}
		items = visible
	}
	return c.JSON(http.StatusOK, echo.Map{"items": videoViewsOf(items)})
}
