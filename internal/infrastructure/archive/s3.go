// Package archive keeps uploaded images in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/stockbox/backend/internal/domain"
)

// Options configures the S3 archive.
type Options struct {
	Bucket        string
	Endpoint      string // non-AWS endpoints (R2, MinIO) use path-style addressing
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads images under date-partitioned keys.
type S3Archive struct {
	client  putObjectAPI
	bucket  string
	baseURL string
	now     func() time.Time
	newID   func() string
}

// NewS3Archive builds an archive from opts. Static credentials are used when
// given, otherwise the default AWS credential chain.
func NewS3Archive(ctx context.Context, opts Options) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archive(client, opts.Bucket, opts.PublicBaseURL), nil
}

func newS3Archive(client putObjectAPI, bucket, baseURL string) *S3Archive {
	return &S3Archive{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Store uploads img and returns its public URL, or an s3:// URI when no
// public base URL is configured.
func (a *S3Archive) Store(ctx context.Context, name string, img *domain.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("%w: no image to archive", domain.ErrInvalidRequest)
	}

	key := a.Key(name, img.MIMEType)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.MIMEType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	log.Printf("[ARCHIVE] Stored %d bytes at %s", len(img.Data), key)

	if a.baseURL == "" {
		return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
	}
	return fmt.Sprintf("%s/%s", a.baseURL, key), nil
}

// Key returns audits/YYYY/MM/DD/<slug>-<uuid>.<ext> for an upload.
func (a *S3Archive) Key(name, mimeType string) string {
	base := name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	s := slug.Make(base)
	if s == "" {
		s = "upload"
	}
	return fmt.Sprintf("audits/%s/%s-%s.%s", a.now().UTC().Format("2006/01/02"), s, a.newID(), extension(mimeType))
}

func extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/heic":
		return "heic"
	default:
		return "bin"
	}
}
