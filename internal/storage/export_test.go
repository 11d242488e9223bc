package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter exports objectPutter interface for testing.
type ObjectPutter = objectPutter

// NewS3PublisherWithClient creates an S3Publisher around a custom client.
func NewS3PublisherWithClient(client ObjectPutter, cfg S3Config) *S3Publisher {
	return newS3Publisher(client, cfg)
}

// PutFunc adapts a function to ObjectPutter.
type PutFunc func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error)

func (f PutFunc) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return f(ctx, params)
}
