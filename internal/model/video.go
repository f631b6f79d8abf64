package model

import "time"

// Video represents an uploaded video and its thumbnail.  The binary
// artifacts live in the object store; rows keep both the public URL and
// the store key so deletion can remove the objects.  This struct
// corresponds to a row in the `videos` table.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – user ID of the uploader.
//  VideoURL        – public URL of the video object.
//  VideoKey        – object store key of the video.
//  ThumbnailURL    – public URL of the thumbnail object.
//  ThumbnailKey    – object store key of the thumbnail.
//  Title           – video title.
//  Description     – optional description.
//  DurationSeconds – playback length in seconds.
//  Views           – number of times the video was fetched.
//  IsPublic        – whether the video appears in public listings.
//  CreatedAt       – timestamp when the video was created.
//  UpdatedAt       – timestamp of last update.
type Video struct {
	ID              uint64    // videos.id
	OwnerID         uint64    // videos.owner_id
	VideoURL        string    // videos.video_url
	VideoKey        string    // videos.video_key
	ThumbnailURL    string    // videos.thumbnail_url
	ThumbnailKey    string    // videos.thumbnail_key
	Title           string    // videos.title
	Description     string    // videos.description
	DurationSeconds float64   // videos.duration_seconds
	Views           uint64    // videos.views
	IsPublic        bool      // videos.is_public
	CreatedAt       time.Time // videos.created_at
	UpdatedAt       time.Time // videos.updated_at
}

// WatchHistoryEntry records that a user watched a video.  Entries are
// appended when an authenticated user fetches a video and are joined with
// `videos` and `users` to build the watch history feed.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the watcher.
//  VideoID   – the watched video.
//  WatchedAt – timestamp of the (latest) watch.
type WatchHistoryEntry struct {
	ID        uint64    // watch_history.id
	UserID    uint64    // watch_history.user_id
	VideoID   uint64    // watch_history.video_id
	WatchedAt time.Time // watch_history.watched_at
}
