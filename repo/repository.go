// Package repo stages compiled pipeline manifests where the orchestration
// service can fetch them.
package repo

import (
	"context"
	"io"
)

type (
	// Config locates the template store.
	Config struct {
		Bucket string
		Prefix string
	}

	// Repository stores compiled manifests and returns the reference a
	// job submission hands to the orchestration service.
	Repository interface {
		Put(ctx context.Context, name string, r io.Reader) (string, error)
		Close() error
	}
)

// DefaultPrefix is where templates land inside the bucket when no prefix is
// configured.
const DefaultPrefix = "pipeline_templates"
