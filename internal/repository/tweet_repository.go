package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/streamtube/internal/model"
)

// TweetRepo persists tweets.
type TweetRepo struct{ DB *sql.DB }

func NewTweetRepo(db *sql.DB) *TweetRepo { return &TweetRepo{DB: db} }

// Create inserts a tweet and fills in the generated ID.
func (r *TweetRepo) Create(ctx context.Context, t *model.Tweet) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tweets (owner_id, content) VALUES (?,?)", t.OwnerID, t.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a single tweet.
func (r *TweetRepo) GetByID(ctx context.Context, id uint64) (model.Tweet, error) {
	var t model.Tweet
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,owner_id,content,created_at,updated_at FROM tweets WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListByOwner returns a user's tweets, newest first.
func (r *TweetRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Tweet, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,owner_id,content,created_at,updated_at FROM tweets WHERE owner_id=? ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Tweet{}
	for rows.Next() {
		var t model.Tweet
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateContent changes a tweet's body.  Owner-scoped; zero rows affected is
// reported as ErrForbidden.
func (r *TweetRepo) UpdateContent(ctx context.Context, id, ownerID uint64, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tweets SET content=? WHERE id=? AND owner_id=?", content, id, ownerID)
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

// Delete removes a tweet owned by ownerID.
func (r *TweetRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tweets WHERE id=? AND owner_id=?", id, ownerID)
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
