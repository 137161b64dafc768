package repo

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
)

// NewGCSRepository creates a repository backed by a Cloud Storage bucket.
func NewGCSRepository(ctx context.Context, cfg Config) (Repository, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create storage client: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &gcsRepository{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

type gcsRepository struct {
	client *storage.Client
	bucket string
	prefix string
}

func (g *gcsRepository) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	key := path.Join(g.prefix, name)

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/yaml"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("unable to upload template %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("unable to finalize template upload %s: %w", key, err)
	}

	log.Debug().Str("bucket", g.bucket).Str("object", key).Msg("template staged")

	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}

func (g *gcsRepository) Close() error {
	return g.client.Close()
}

var _ Repository = (*gcsRepository)(nil)
