// Package storage wraps the S3-compatible bucket that holds ad images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// ErrDisabled is returned by every operation when no bucket is configured.
var ErrDisabled = errors.New("object storage is not configured")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	PresignTTL      time.Duration
}

// PresignedUpload is handed to the client, which PUTs the file body to URL.
type PresignedUpload struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client is nil-safe: a nil *Client behaves as disabled storage.
type Client struct {
	s3      *s3.Client
	presign *s3.PresignClient
	cfg     Config
}

// NewClient builds an S3 client with static credentials. A custom endpoint
// switches to path-style addressing for S3-compatible providers.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	return &Client{
		s3:      client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// ImageKey builds the object key for a user's ad image.
func ImageKey(userID int64, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return path.Join("ads", fmt.Sprintf("%d", userID), ulid.Make().String()+ext), nil
}

// PresignPut returns a time-limited upload URL for key.
func (c *Client) PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error) {
	if c == nil {
		return nil, ErrDisabled
	}

	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.cfg.PresignTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		URL:       req.URL,
		Method:    req.Method,
		ObjectKey: key,
		PublicURL: c.PublicURL(key),
		ExpiresAt: time.Now().Add(c.cfg.PresignTTL),
	}, nil
}

// Delete removes an object. Missing objects are not an error on S3.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil {
		return ErrDisabled
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the URL under which an uploaded object is served.
func (c *Client) PublicURL(key string) string {
	if c == nil {
		return ""
	}
	if c.cfg.PublicBaseURL != "" {
		return strings.TrimRight(c.cfg.PublicBaseURL, "/") + "/" + key
	}
	if c.cfg.Endpoint != "" {
		return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}
