package staging

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		bucket: "staging",
		useSSL: false,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// MinioStore stages uploads as objects in a minio bucket, for deployments
// where the api pods have no durable local disk.
type MinioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

var _ Store = (*MinioStore)(nil)

func NewMinioStore(opts ...MinioOpts) (*MinioStore, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{cfg: cfg, client: minioClient}, nil
}

func (s *MinioStore) Stage(ctx context.Context, r io.Reader) (string, int64, error) {
	handle := uuid.NewString() + ".csv"

	// size -1: stream the part without knowing its length upfront
	info, err := s.client.PutObject(ctx, s.cfg.bucket, handle, r, -1, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", 0, err
	}

	return handle, info.Size, nil
}

func (s *MinioStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, s.cfg.bucket, handle, minio.GetObjectOptions{})
}

func (s *MinioStore) Delete(ctx context.Context, handle string) error {
	return s.client.RemoveObject(ctx, s.cfg.bucket, handle, minio.RemoveObjectOptions{})
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretAccessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretAccessKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
