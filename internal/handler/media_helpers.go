package handler

import (
	"context"
	"mime/multipart"

	"github.com/iliyamo/streamtube/internal/storage"
)

// storeFile streams one multipart file into the media store under the given
// kind ("avatars", "covers", "videos", "thumbnails").  A nil result with a
// nil error means the store is disabled; callers decide whether that is
// acceptable for the artifact at hand.
func storeFile(ctx context.Context, media storage.MediaStore, kind string, fh *multipart.FileHeader) (*storage.StoredObject, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return media.Store(ctx, kind, fh.Filename, fh.Header.Get("Content-Type"), f)
}

// removeStored is the best-effort compensating action used when a request
// fails after media was already accepted: the error is deliberately
// discarded, an orphaned object is preferable to masking the original
// failure.
func removeStored(ctx context.Context, media storage.MediaStore, objs ...*storage.StoredObject) {
	for _, o := range objs {
		if o != nil {
			_ = media.Remove(ctx, o.Key)
		}
	}
}
