package model

import (
	"context"
	"io"
)

// ImageStore keeps uploaded profile images in object storage.
type ImageStore interface {
	// Upload stores the object under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
