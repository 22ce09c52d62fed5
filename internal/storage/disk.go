// Package storage holds the image disks. Two drivers exist: "local" writes
// under a root directory, "s3" writes to any S3-compatible bucket.
package storage

import (
	"context"
	"fmt"

	"catalog-admin/internal/config"
)

// Disk stores opaque files addressed by slash-separated paths
type Disk interface {
	// Put writes content to path, replacing any existing file.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}

// New builds the disk selected by cfg.Disk
func New(ctx context.Context, cfg config.StorageConfig) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocalDisk(cfg.LocalRoot, cfg.LocalURL)
	case "s3":
		return NewS3Disk(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DISK %q (supported: local, s3)", cfg.Disk)
	}
}
