// Package queue defines message payloads exchanged over the message broker.
package queue

// VideoPublishedEvent is published when a video upload completes.  It
// contains enough information for downstream consumers to log, notify
// subscribers, or trigger analytics without querying the primary database.
type VideoPublishedEvent struct {
	VideoID       uint64  `json:"video_id"`
	OwnerID       uint64  `json:"owner_id"`
	OwnerUserName string  `json:"owner_user_name"`
	Title         string  `json:"title"`
	Duration      float64 `json:"duration_seconds"`
	IsPublic      bool    `json:"is_public"`
	PublishedAt   string  `json:"published_at"`
}

// ChannelSubscribedEvent is published when a user subscribes to a channel.
// Unsubscribes are not published; downstream consumers only care about new
// audience.
type ChannelSubscribedEvent struct {
	SubscriberID       uint64 `json:"subscriber_id"`
	SubscriberUserName string `json:"subscriber_user_name"`
	ChannelID          uint64 `json:"channel_id"`
	SubscribedAt       string `json:"subscribed_at"`
}
