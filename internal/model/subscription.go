package model

import "time"

// Subscription links a subscriber to a channel (both are users).  A unique
// index on (subscriber_id, channel_id) makes the subscribe endpoint a
// toggle.  This struct corresponds to a row in the `subscriptions` table.
//
// Fields:
//  ID           – primary key identifier.
//  SubscriberID – the following user.
//  ChannelID    – the followed user (channel owner).
//  CreatedAt    – timestamp when the subscription was created.
type Subscription struct {
	ID           uint64    // subscriptions.id
	SubscriberID uint64    // subscriptions.subscriber_id
	ChannelID    uint64    // subscriptions.channel_id
	CreatedAt    time.Time // subscriptions.created_at
}

// ChannelProfile is the aggregated public view of a user's channel:
// identity fields plus subscriber counts and whether the calling user is
// subscribed.  It is assembled by the subscription repository, not stored.
type ChannelProfile struct {
	UserID          uint64 `json:"user_id"`
	UserName        string `json:"user_name"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url"`
	CoverURL        string `json:"cover_url,omitempty"`
	SubscriberCount uint64 `json:"subscriber_count"`
	SubscribedTo    uint64 `json:"channels_subscribed_to_count"`
	IsSubscribed    bool   `json:"is_subscribed"`
}
