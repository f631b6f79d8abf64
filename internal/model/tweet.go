package model

import "time"

// Tweet is a short text post attached to a user's channel.  This struct
// corresponds to a row in the `tweets` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the author.
//  Content   – tweet body.
//  CreatedAt – timestamp when the tweet was created.
//  UpdatedAt – timestamp of last update.
type Tweet struct {
	ID        uint64    // tweets.id
	OwnerID   uint64    // tweets.owner_id
	Content   string    // tweets.content
	CreatedAt time.Time // tweets.created_at
	UpdatedAt time.Time // tweets.updated_at
}
