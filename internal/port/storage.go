package port

import "context"

// ObjectStorage abstracts read access to stored document files.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}
