package database

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/locvowork/feeltime/internal/domain"
)

// GCSBucket wraps a Google Cloud Storage bucket handle.
type GCSBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// NewGCSBucket creates a client with application default credentials and binds it to bucketName.
func NewGCSBucket(ctx context.Context, bucketName string) (*GCSBucket, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs bucket name is empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create gcs client: %w", domain.ErrStorageUnavailable, err)
	}
	return WrapGCSClient(client, bucketName), nil
}

// WrapGCSClient wraps an existing storage client.
func WrapGCSClient(client *storage.Client, bucketName string) *GCSBucket {
	if client == nil {
		return nil
	}
	return &GCSBucket{client: client, bucket: client.Bucket(bucketName), name: bucketName}
}

// List returns every object name under prefix.
func (g *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	q := &storage.Query{Prefix: prefix}
	if err := q.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	it := g.bucket.Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, g.wrap("list "+prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (g *GCSBucket) Read(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, g.wrap("read "+key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, g.wrap("read "+key, err)
	}
	return data, nil
}

func (g *GCSBucket) Write(ctx context.Context, key string, data []byte, contentType string) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return g.wrap("write "+key, err)
	}
	if err := w.Close(); err != nil {
		return g.wrap("write "+key, err)
	}
	return nil
}

func (g *GCSBucket) Delete(ctx context.Context, key string) error {
	if err := g.bucket.Object(key).Delete(ctx); err != nil {
		return g.wrap("delete "+key, err)
	}
	return nil
}

// Ping fetches the bucket metadata.
func (g *GCSBucket) Ping(ctx context.Context) error {
	if _, err := g.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("%w: gcs bucket %s: %w", domain.ErrStorageUnavailable, g.name, err)
	}
	return nil
}

func (g *GCSBucket) Close() error {
	return g.client.Close()
}

func (g *GCSBucket) wrap(op string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs %s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: gcs %s: %w", domain.ErrStorageUnavailable, op, err)
}
