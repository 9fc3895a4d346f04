package client

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore is a BlobStore over any S3-compatible endpoint (Supabase
// Storage, Cloudflare R2, MinIO).
type S3BlobStore struct {
	s3Client *s3.Client
	bucket   string
}

// NewS3BlobStore creates a blob store against an S3-compatible endpoint.
func NewS3BlobStore(ctx context.Context, accessKeyID, secretKey, endpoint, bucket string) (*S3BlobStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3BlobStore{
		s3Client: s3Client,
		bucket:   bucket,
	}, nil
}

// Download fetches an object's bytes.
func (s *S3BlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("object %s is empty", path)
	}
	return data, nil
}
