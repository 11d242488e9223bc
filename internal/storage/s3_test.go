package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-echoloop/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestS3Config_Enabled(t *testing.T) {
	assert.False(t, storage.S3Config{}.Enabled())
	assert.False(t, storage.S3Config{Region: "us-east-1"}.Enabled())
	assert.True(t, storage.S3Config{Bucket: "b"}.Enabled())
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	_, err := storage.NewS3Publisher(context.Background(), storage.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, storage.ErrBucketRequired)
}

func TestS3Publisher_Key(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		path   string
		want   string
	}{
		{name: "no prefix", path: "/out/merged.mp3", want: "merged.mp3"},
		{name: "prefix without slash", prefix: "echoloop", path: "/out/merged.mp3", want: "echoloop/merged.mp3"},
		{name: "prefix with slash", prefix: "echoloop/", path: "out/merged.mp3", want: "echoloop/merged.mp3"},
		{name: "nested prefix", prefix: "a/b", path: "merged.mp3", want: "a/b/merged.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := storage.NewS3PublisherWithClient(nil, storage.S3Config{Bucket: "b", Prefix: tt.prefix})
			assert.Equal(t, tt.want, p.Key(tt.path))
		})
	}
}

func TestS3Publisher_Publish(t *testing.T) {
	t.Run("uploads with bucket, key and content type", func(t *testing.T) {
		var got *s3.PutObjectInput
		var body string
		client := storage.PutFunc(func(_ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			got = in
			b, err := io.ReadAll(in.Body)
			require.NoError(t, err)
			body = string(b)
			return &s3.PutObjectOutput{}, nil
		})

		p := storage.NewS3PublisherWithClient(client, storage.S3Config{
			Bucket: "media", Region: "eu-west-3", Prefix: "loops",
		})
		src := writeFile(t, "merged.mp3", "ID3 data")

		loc, err := p.Publish(context.Background(), src)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "media", aws.ToString(got.Bucket))
		assert.Equal(t, "loops/merged.mp3", aws.ToString(got.Key))
		assert.Equal(t, "audio/mpeg", aws.ToString(got.ContentType))
		assert.Equal(t, "ID3 data", body)
		assert.Equal(t, "https://media.s3.eu-west-3.amazonaws.com/loops/merged.mp3", loc)
	})

	t.Run("endpoint location", func(t *testing.T) {
		client := storage.PutFunc(func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return &s3.PutObjectOutput{}, nil
		})
		p := storage.NewS3PublisherWithClient(client, storage.S3Config{
			Bucket: "media", Endpoint: "http://localhost:9000/",
		})

		loc, err := p.Publish(context.Background(), writeFile(t, "merged.mp3", "x"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/media/merged.mp3", loc)
	})

	t.Run("upload error", func(t *testing.T) {
		errDenied := errors.New("AccessDenied")
		client := storage.PutFunc(func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errDenied
		})
		p := storage.NewS3PublisherWithClient(client, storage.S3Config{Bucket: "media"})

		_, err := p.Publish(context.Background(), writeFile(t, "merged.mp3", "x"))
		assert.ErrorIs(t, err, storage.ErrPublishFailed)
		assert.ErrorIs(t, err, errDenied)
	})

	t.Run("missing local file", func(t *testing.T) {
		p := storage.NewS3PublisherWithClient(nil, storage.S3Config{Bucket: "media"})

		_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
		assert.ErrorIs(t, err, storage.ErrPublishFailed)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestS3Publisher_Publish_MockServer(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := storage.NewS3Publisher(context.Background(), storage.S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		Prefix:          "runs",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	loc, err := p.Publish(context.Background(), writeFile(t, "merged.mp3", "test content"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/test-bucket/runs/merged.mp3", path)
	assert.True(t, strings.Contains(body, "test content"), "unexpected body: %s", body)
	assert.Equal(t, server.URL+"/test-bucket/runs/merged.mp3", loc)
}
