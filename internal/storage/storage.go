// Package storage holds uploaded profile images in an object store.
// Two backends are supported, MinIO and Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/userhub/apiserver/config"
)

// ObjectStorage defines the object operations the upload handlers use.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// New selects an object storage backend from config. An empty backend
// returns nil; the upload routes are not registered in that case.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Backend)
	}
}
