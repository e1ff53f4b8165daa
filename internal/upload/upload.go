// Package upload copies finished voice answers to S3-compatible object
// storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/store"
)

// Config locates the bucket.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

// Enabled reports whether uploads are configured.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Uploader puts recordings into a bucket.
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
	log    *zap.Logger
}

// New creates an Uploader. It does not contact the server.
func New(cfg Config, log *zap.Logger) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("upload endpoint and bucket are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, log: log.Named("upload")}, nil
}

// ObjectKey is where a recording is stored in the bucket.
func ObjectKey(prefix string, rec store.Recording) string {
	name := fmt.Sprintf("q%d%s", rec.QuestionID, strings.ToLower(filepath.Ext(rec.Path)))
	return path.Join(strings.Trim(prefix, "/"), rec.SessionID, name)
}

// CheckBucket verifies the bucket exists.
func (u *Uploader) CheckBucket(ctx context.Context) error {
	ok, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", u.bucket)
	}
	return nil
}

// Upload copies rec's file to the bucket and returns its object key.
func (u *Uploader) Upload(ctx context.Context, rec store.Recording) (string, error) {
	key := ObjectKey(u.prefix, rec)
	info, err := u.client.FPutObject(ctx, u.bucket, key, rec.Path, minio.PutObjectOptions{
		ContentType: contentType(rec.Path),
		UserMetadata: map[string]string{
			"session":  rec.SessionID,
			"question": fmt.Sprint(rec.QuestionID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", rec.Path, err)
	}
	u.log.Info("recording uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int64("bytes", info.Size),
	)
	return key, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
