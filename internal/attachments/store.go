package attachments

import "context"

// Store persists and retrieves attachment blobs keyed by an opaque
// string (domain.Attachment.BlobKey).
type Store interface {
	Put(ctx context.Context, threadID int64, filename string, contentType string, data []byte) (blobKey string, err error)
	Get(ctx context.Context, blobKey string) ([]byte, error)
}
