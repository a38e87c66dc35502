package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"tinyhouse/internal/app/policies"
)

type image struct {
	contentType string
	data        []byte
}

// ImageStore keeps uploaded images in memory and serves them under BaseURL.
type ImageStore struct {
	BaseURL string

	mu     sync.RWMutex
	images map[string]image
}

func NewImageStore(baseURL string) *ImageStore {
	return &ImageStore{BaseURL: strings.TrimRight(baseURL, "/"), images: make(map[string]image)}
}

func (s *ImageStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("memory: image reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("memory: image key is required")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.images[key] = image{contentType: contentType, data: buf.Bytes()}
	s.mu.Unlock()
	return s.BaseURL + "/" + key, nil
}

// Get returns a stored image and its content type.
func (s *ImageStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[strings.Trim(key, "/")]
	return img.data, img.contentType, ok
}

var _ policies.ImageUploader = (*ImageStore)(nil)
