package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Config holds connection settings for the S3-compatible blob store.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Store is an ObjectStore backed by an S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewS3Store creates an S3Store for the configured bucket.
func NewS3Store(cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Put stores body under key. Key uniqueness comes from the arrival-millis
// component; S3 offers no cheap not-exists precondition, so a same-millis
// same-dedup-key collision would overwrite and is treated as practically
// impossible.
func (s *S3Store) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	s.logger.Debug("stored object", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

// List returns up to maxKeys objects from the bucket.
func (s *S3Store) List(ctx context.Context, maxKeys int) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0, maxKeys)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key})
		if len(objects) >= maxKeys {
			break
		}
	}
	return objects, nil
}

// Get returns the body stored under key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return body, nil
}
