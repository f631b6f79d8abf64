package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/streamtube/internal/model"
)

// LikeRepo persists likes with toggle semantics: the first call for a
// (user, target) pair inserts a row, the second removes it.  Unique indexes
// per target column keep concurrent toggles from double-inserting.
type LikeRepo struct{ DB *sql.DB }

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{DB: db} }

// ToggleVideo toggles the caller's like on a video.  Returns true when the
// video is liked after the call.
func (r *LikeRepo) ToggleVideo(ctx context.Context, userID, videoID uint64) (bool, error) {
	return r.toggle(ctx, "video_id", userID, videoID)
}

// ToggleComment toggles the caller's like on a comment.
func (r *LikeRepo) ToggleComment(ctx context.Context, userID, commentID uint64) (bool, error) {
	return r.toggle(ctx, "comment_id", userID, commentID)
}

// ToggleTweet toggles the caller's like on a tweet.
func (r *LikeRepo) ToggleTweet(ctx context.Context, userID, tweetID uint64) (bool, error) {
	return r.toggle(ctx, "tweet_id", userID, tweetID)
}

func (r *LikeRepo) toggle(ctx context.Context, column string, userID, targetID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id=? AND "+column+"=?", userID, targetID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil // was liked, now removed
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO likes (user_id, "+column+") VALUES (?,?)", userID, targetID)
	if err != nil {
		if isDuplicate(err) {
			// A concurrent toggle inserted first; the like exists either way.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// ListLikedVideos returns the public videos the user has liked, most recent
// like first.
func (r *LikeRepo) ListLikedVideos(ctx context.Context, userID uint64) ([]model.Video, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
		       v.title, v.description, v.duration_seconds, v.views, v.is_public, v.created_at, v.updated_at
		FROM likes l
		JOIN videos v ON v.id = l.video_id
		WHERE l.user_id = ? AND l.video_id IS NOT NULL AND v.is_public = 1
		ORDER BY l.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}
