// Package storage provides object storage for receipt images.
package storage

import (
	"context"
	"io"
	"time"
)

// FileRepository abstracts object storage for receipt files. Upload returns
// the object key; presigned URLs are generated on demand for reads.
type FileRepository interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
