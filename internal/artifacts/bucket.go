package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("artifacts: object not found")

// Bucket is an S3-compatible bucket that run artifacts are uploaded to.
type Bucket struct {
	s3Client  *s3.Client
	name      string
	publicURL string
}

// BucketConfig holds the connection settings for a Bucket.
type BucketConfig struct {
	// Endpoint is the S3 endpoint URL. Leave empty for AWS S3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Name            string
	// PublicURL is the base URL objects are browsable under, used in reports.
	PublicURL string
	// UsePathStyle enables path-style addressing (MinIO, gofakes3).
	UsePathStyle bool
}

// NewBucket creates a Bucket from cfg.
func NewBucket(ctx context.Context, cfg BucketConfig) (*Bucket, error) {
	if cfg.Name == "" {
		return nil, errors.New("artifacts: bucket name is required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewBucketFromS3Client(s3Client, cfg.Name, cfg.PublicURL), nil
}

// NewBucketFromS3Client wraps an existing S3 client.
func NewBucketFromS3Client(s3Client *s3.Client, name, publicURL string) *Bucket {
	return &Bucket{
		s3Client:  s3Client,
		name:      name,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Put stores content under key.
func (b *Bucket) Put(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := b.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("artifacts: failed to put object %q: %w", key, err)
	}
	return nil
}

// Get returns the content stored under key, or ErrObjectNotFound.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := b.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("artifacts: failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("artifacts: failed to read object body %q: %w", key, err)
	}
	return data, nil
}

// List returns the keys under prefix, in the order S3 reports them.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(b.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("artifacts: failed to list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// PublicURL returns the browsable URL for key, or "" without a public base.
func (b *Bucket) PublicURL(key string) string {
	if b.publicURL == "" {
		return ""
	}
	return b.publicURL + "/" + strings.TrimPrefix(key, "/")
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}
