package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tinyhouse/internal/app/policies"
)

var (
	ErrEndpointRequired = errors.New("s3: endpoint is required")
	ErrBucketRequired   = errors.New("s3: bucket is required")
	ErrEmptyObject      = errors.New("s3: object key and body are required")
)

// Config addresses the bucket holding listing images. PublicURL is the base
// browsers use to fetch images; it defaults to Endpoint.
type Config struct {
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Client uploads listing images to MinIO or S3 and returns their public URL.
type Client struct {
	bucket    string
	publicURL string
	mc        *minio.Client
	logger    *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	switch {
	case endpoint == "":
		return nil, ErrEndpointRequired
	case bucket == "":
		return nil, ErrBucketRequired
	}
	mc, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: new client: %w", err)
	}
	public := strings.TrimSpace(cfg.PublicURL)
	if public == "" {
		public = endpoint
	}
	return &Client{
		bucket:    bucket,
		publicURL: strings.TrimRight(public, "/"),
		mc:        mc,
		logger:    logger,
	}, nil
}

// Upload stores an image under key. The bucket is created on first use with
// anonymous read access so listing cards can link images directly.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || body == nil {
		return "", ErrEmptyObject
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := c.mc.PutObject(ctx, c.bucket, key, body, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	link := c.publicURL + "/" + c.bucket + "/" + key
	if c.logger != nil {
		c.logger.Info("listing image stored", "key", key, "bytes", info.Size, "url", link)
	}
	return link, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketOnce.Do(func() {
		c.bucketErr = c.createBucket(ctx)
	})
	return c.bucketErr
}

func (c *Client) createBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("s3: bucket lookup: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("s3: make bucket: %w", err)
	}
	if err := c.mc.SetBucketPolicy(ctx, c.bucket, readOnlyPolicy(c.bucket)); err != nil {
		return fmt.Errorf("s3: bucket policy: %w", err)
	}
	return nil
}

func readOnlyPolicy(bucket string) string {
	return `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},` +
		`"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::` + bucket + `/*"]}]}`
}

// hostOf accepts either "minio:9000" or "http://minio:9000".
func hostOf(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.mc.BucketExists(ctx, c.bucket); err != nil {
		return fmt.Errorf("s3: ping: %w", err)
	}
	return nil
}

var _ policies.ImageUploader = (*Client)(nil)
