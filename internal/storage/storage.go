package storage

import (
	"context"
	"io"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// ArchiveStore keeps the raw test case archives uploaded by problem
// authors, so a problem's test data can be audited or re-imported.
type ArchiveStore struct {
	backend ObjectStorage
}

// NewArchiveStore constructs an ArchiveStore for the provided backend.
func NewArchiveStore(backend ObjectStorage) *ArchiveStore {
	return &ArchiveStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *ArchiveStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// archiveContentType is the default for uploaded bundles; every
// accepted archive is a gzipped tarball.
const archiveContentType = "application/gzip"

// Put uploads an archive to the configured bucket.
func (s *ArchiveStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = archiveContentType
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for an archive in the configured bucket.
func (s *ArchiveStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an archive from the configured bucket.
func (s *ArchiveStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *ArchiveStore) Bucket() string {
	return s.backend.Bucket()
}
