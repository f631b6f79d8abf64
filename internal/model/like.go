package model

import "time"

// Like marks that a user liked exactly one target: a video, a comment or a
// tweet.  Exactly one of the three target columns is non-NULL per row, and a
// unique index per (user, target) pair gives the toggle semantics: the first
// like inserts a row, the second removes it.  This struct corresponds to a
// row in the `likes` table.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the user who liked.
//  VideoID   – liked video (nullable).
//  CommentID – liked comment (nullable).
//  TweetID   – liked tweet (nullable).
//  CreatedAt – timestamp of the like.
type Like struct {
	ID        uint64    // likes.id
	UserID    uint64    // likes.user_id
	VideoID   *uint64   // likes.video_id (nullable)
	CommentID *uint64   // likes.comment_id (nullable)
	TweetID   *uint64   // likes.tweet_id (nullable)
	CreatedAt time.Time // likes.created_at
}
