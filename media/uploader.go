package media

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Blob is a media payload attached to a create or update call.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores a blob and returns a durable retrieval URL for it.
type Uploader interface {
	Upload(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

type Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Bucket       string
	PublicOrigin string
}

type MinioUploader struct {
	cfg    Config
	client *minio.Client
}

func NewMinioUploader(cfg Config) (*MinioUploader, error) {
	cl, err := minio.New(strings.TrimPrefix(cfg.Endpoint, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioUploader{cfg: cfg, client: cl}, nil
}

func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload writes the blob under a fresh key and returns its public URL.
// Keys carry a uuid prefix so two uploads with the same file name cannot
// collide.
func (u *MinioUploader) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	key := ObjectKey(name)
	_, err := u.client.PutObject(ctx, u.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return PublicURL(u.cfg.PublicOrigin, u.cfg.Bucket, key), nil
}

func ObjectKey(name string) string {
	return uuid.NewString() + "-" + name
}

func PublicURL(origin string, bucket string, key string) string {
	return strings.TrimSuffix(origin, "/") + "/" + bucket + "/" + key
}
