package storage

import (
	"context"
	"fmt"
	"strings"
)

// NewFromConfig builds a BlobStorage from configuration and makes sure the
// bucket exists before the pipeline starts writing into it.
func NewFromConfig(ctx context.Context, cfg *Config) (BlobStorage, error) {
	store, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", detectProvider(cfg.Endpoint), err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %q: %w", cfg.Bucket, err)
	}
	return store, nil
}

// detectProvider names the storage provider from its endpoint, for logs and
// error messages only. Behavior is identical across providers.
func detectProvider(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return "r2"
	case strings.Contains(endpoint, "amazonaws.com"):
		return "s3"
	default:
		return "s3-compatible"
	}
}
