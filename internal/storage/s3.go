// Package storage publishes the merged output to S3-compatible storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrPublishFailed indicates the merged file could not be uploaded.
var ErrPublishFailed = errors.New("publish failed")

// ErrBucketRequired indicates S3 publishing was configured without a bucket.
var ErrBucketRequired = errors.New("S3 bucket is required")

// S3Config holds the configuration for S3 publishing.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	Prefix          string // Optional: key prefix, e.g. "echoloop/"
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// objectPutter uploads one object. *s3.Client satisfies it.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ objectPutter = (*s3.Client)(nil)

// S3Publisher uploads files to a bucket.
type S3Publisher struct {
	client   objectPutter
	bucket   string
	region   string
	endpoint string
	prefix   string
	open     func(name string) (io.ReadCloser, error)
}

// NewS3Publisher creates an S3Publisher. Credentials come from cfg when
// both keys are set, otherwise from the default AWS chain.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	var configOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Publisher(s3.NewFromConfig(awsCfg, clientOpts...), cfg), nil
}

func newS3Publisher(client objectPutter, cfg S3Config) *S3Publisher {
	return &S3Publisher{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		prefix:   cfg.Prefix,
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// Key returns the object key a local file is uploaded under.
func (p *S3Publisher) Key(localPath string) string {
	base := filepath.Base(localPath)
	if p.prefix == "" {
		return base
	}
	return path.Join(p.prefix, base)
}

// Publish uploads localPath and returns the object URL.
func (p *S3Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := p.open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	defer f.Close()

	key := p.Key(localPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload to S3: %w", ErrPublishFailed, err)
	}

	return p.url(key), nil
}

// url returns the object location for display.
func (p *S3Publisher) url(key string) string {
	if p.endpoint != "" {
		u, err := url.JoinPath(p.endpoint, p.bucket, key)
		if err == nil {
			return u
		}
	}
	if p.region == "" {
		return fmt.Sprintf("s3://%s/%s", p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
