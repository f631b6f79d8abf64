package repository

import (
	"context"
	"database/sql"
	"time"
)

// HistoryRepo records and lists watch history.  One row per (user, video);
// re-watching refreshes the timestamp instead of adding a row.
type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

// WatchHistoryItem is the joined view returned to clients: the watched video
// plus a summary of its owner.
type WatchHistoryItem struct {
	VideoID       uint64    `json:"video_id"`
	Title         string    `json:"title"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	VideoURL      string    `json:"video_url"`
	Duration      float64   `json:"duration_seconds"`
	Views         uint64    `json:"views"`
	OwnerID       uint64    `json:"owner_id"`
	OwnerUserName string    `json:"owner_user_name"`
	OwnerFullName string    `json:"owner_full_name"`
	OwnerAvatar   string    `json:"owner_avatar_url"`
	WatchedAt     time.Time `json:"watched_at"`
}

// Record upserts a watch entry for the user.
func (r *HistoryRepo) Record(ctx context.Context, userID, videoID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO watch_history (user_id, video_id) VALUES (?,?) ON DUPLICATE KEY UPDATE watched_at=NOW()",
		userID, videoID)
	return err
}

// ListByUser returns the user's history joined with videos and their owners,
// most recent first.
func (r *HistoryRepo) ListByUser(ctx context.Context, userID uint64) ([]WatchHistoryItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT v.id, v.title, v.thumbnail_url, v.video_url, v.duration_seconds, v.views,
		       u.id, u.user_name, u.full_name, u.avatar_url, h.watched_at
		FROM watch_history h
		JOIN videos v ON v.id = h.video_id
		JOIN users u  ON u.id = v.owner_id
		WHERE h.user_id = ?
		ORDER BY h.watched_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WatchHistoryItem{}
	for rows.Next() {
		var it WatchHistoryItem
		if err := rows.Scan(&it.VideoID, &it.Title, &it.ThumbnailURL, &it.VideoURL,
			&it.Duration, &it.Views, &it.OwnerID, &it.OwnerUserName,
			&it.OwnerFullName, &it.OwnerAvatar, &it.WatchedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
