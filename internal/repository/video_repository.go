package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/streamtube/internal/model"
)

// VideoRepo persists videos.
type VideoRepo struct{ DB *sql.DB }

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{DB: db} }

const videoColumns = "id,owner_id,video_url,video_key,thumbnail_url,thumbnail_key,title,description,duration_seconds,views,is_public,created_at,updated_at"

// Create inserts a video and fills in the generated ID.
func (r *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO videos (owner_id, video_url, video_key, thumbnail_url, thumbnail_key, title, description, duration_seconds, is_public) VALUES (?,?,?,?,?,?,?,?,?)",
		v.OwnerID, v.VideoURL, v.VideoKey, v.ThumbnailURL, v.ThumbnailKey,
		v.Title, v.Description, v.DurationSeconds, v.IsPublic)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByID fetches a single video.
func (r *VideoRepo) GetByID(ctx context.Context, id uint64) (model.Video, error) {
	return scanVideo(r.DB.QueryRowContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE id=? LIMIT 1", id))
}

// ListPublic returns the newest public videos, capped at limit.
func (r *VideoRepo) ListPublic(ctx context.Context, limit int) ([]model.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE is_public=1 ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

// ListByOwner returns all videos uploaded by a user, newest first.
func (r *VideoRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Video, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE owner_id=? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

// UpdateDetails changes title, description and visibility.  The owner filter
// makes mutation owner-scoped; zero rows affected means the video does not
// exist or belongs to someone else, reported as ErrForbidden.
func (r *VideoRepo) UpdateDetails(ctx context.Context, id, ownerID uint64, title, description string, isPublic bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE videos SET title=?, description=?, is_public=? WHERE id=? AND owner_id=?",
		title, description, isPublic, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}

// Delete removes a video owned by ownerID.  Dependent comments, likes and
// history rows go with it via ON DELETE CASCADE.
func (r *VideoRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM videos WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *VideoRepo) IncrementViews(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE videos SET views=views+1 WHERE id=?", id)
	return err
}

func scanVideo(row *sql.Row) (model.Video, error) {
	var v model.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL,
		&v.ThumbnailKey, &v.Title, &v.Description, &v.DurationSeconds,
		&v.Views, &v.IsPublic, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func collectVideos(rows *sql.Rows) ([]model.Video, error) {
	out := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL,
			&v.ThumbnailKey, &v.Title, &v.Description, &v.DurationSeconds,
			&v.Views, &v.IsPublic, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
