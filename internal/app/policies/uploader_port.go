package policies

import (
	"context"
	"io"
)

// ImageUploader stores listing images and returns their public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
