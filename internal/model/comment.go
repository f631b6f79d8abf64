package model

import "time"

// Comment is a text comment left on a video.  This struct corresponds to a
// row in the `comments` table.
//
// Fields:
//  ID        – primary key identifier.
//  VideoID   – the video the comment belongs to.
//  OwnerID   – user ID of the author.
//  Content   – comment body.
//  CreatedAt – timestamp when the comment was created.
//  UpdatedAt – timestamp of last update.
type Comment struct {
	ID        uint64    // comments.id
	VideoID   uint64    // comments.video_id
	OwnerID   uint64    // comments.owner_id
	Content   string    // comments.content
	CreatedAt time.Time // comments.created_at
	UpdatedAt time.Time // comments.updated_at
}
