package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{Bucket: "images"}, nil)
	require.ErrorIs(t, err, ErrEndpointRequired)
	_, err = NewClient(Config{Endpoint: "localhost:9000"}, nil)
	require.ErrorIs(t, err, ErrBucketRequired)

	c, err := NewClient(Config{Endpoint: "http://minio:9000/", Bucket: "images"}, nil)
	require.NoError(t, err)
	require.Equal(t, "http://minio:9000", c.publicURL)
}

func TestUploadRejectsEmptyObjects(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "localhost:9000", Bucket: "images"}, nil)
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), " / ", strings.NewReader("x"), "image/png")
	require.ErrorIs(t, err, ErrEmptyObject)
	_, err = c.Upload(context.Background(), "listings/a.png", nil, "image/png")
	require.ErrorIs(t, err, ErrEmptyObject)
}

func TestHostOf(t *testing.T) {
	require.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	require.Equal(t, "minio:9000", hostOf("minio:9000"))
}
