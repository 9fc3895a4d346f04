package client

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// BlobStore downloads recording audio by its storage path. Implementations
// may fail independently of the record store; an empty result is reported as
// an error.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// GCSBlobStore is the Google Cloud Storage backed BlobStore.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore creates a new GCS blob store for the given bucket.
func NewGCSBlobStore(ctx context.Context, bucket string) (*GCSBlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSBlobStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Close closes the underlying client.
func (s *GCSBlobStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Download fetches an object's bytes.
func (s *GCSBlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	obj := s.client.Bucket(s.bucket).Object(path)
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("object %s is empty", path)
	}
	return data, nil
}

// List lists objects in the bucket with the given prefix.
func (s *GCSBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, attrs.Name)
	}

	return objects, nil
}
