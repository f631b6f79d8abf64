package config

import (
	"os"
	"strings"
)

// MediaConfig defines settings for the S3-compatible media store that holds
// uploaded video files, thumbnails, avatars and cover images.  When Bucket
// or Endpoint is empty the store degrades to a no-op and records are created
// with empty media URLs, which keeps local development possible without
// object storage credentials.
type MediaConfig struct {
	Endpoint      string // S3 endpoint, e.g. "s3.amazonaws.com" or a MinIO host
	Region        string // bucket region; "us-east-1" when unset
	Bucket        string // bucket holding media objects
	AccessKey     string // static credential id
	SecretKey     string // static credential secret
	PublicBaseURL string // base URL prepended to object keys in API responses
	UsePathStyle  bool   // path-style addressing for MinIO-compatible endpoints
}

// LoadMediaConfig reads media store settings from environment variables.
// All variables are optional; an incomplete configuration yields a disabled
// store rather than a startup failure.
func LoadMediaConfig() MediaConfig {
	return MediaConfig{
		Endpoint:      os.Getenv("MEDIA_S3_ENDPOINT"),
		Region:        getenv("MEDIA_S3_REGION", "us-east-1"),
		Bucket:        os.Getenv("MEDIA_S3_BUCKET"),
		AccessKey:     os.Getenv("MEDIA_S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("MEDIA_S3_SECRET_KEY"),
		PublicBaseURL: strings.TrimRight(os.Getenv("MEDIA_PUBLIC_BASE_URL"), "/"),
		UsePathStyle:  envBool("MEDIA_S3_PATH_STYLE", true),
	}
}
