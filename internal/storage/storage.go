// Package storage stores café photos behind a backend-agnostic
// interface. The default backend is the local uploads directory;
// MinIO and Google Cloud Storage backends are available for deployments
// that keep uploads off the application host.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// allowedExtensions is the photo upload whitelist.
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	// Ensure prepares the backing location (directory or bucket).
	Ensure(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// PhotoStorage wraps an ObjectStorage backend with a stable API.
type PhotoStorage struct {
	backend ObjectStorage
}

// NewPhotoStorage constructs a PhotoStorage wrapper for the provided
// backend.
func NewPhotoStorage(backend ObjectStorage) *PhotoStorage {
	return &PhotoStorage{backend: backend}
}

// Ensure prepares the backend's backing location.
func (s *PhotoStorage) Ensure(ctx context.Context) error {
	return s.backend.Ensure(ctx)
}

// Put uploads a photo under the given object key.
func (s *PhotoStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for a stored photo.
func (s *PhotoStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes a stored photo.
func (s *PhotoStorage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// AllowedFile reports whether the filename carries one of the accepted
// photo extensions (png, jpg, jpeg, gif).
func AllowedFile(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ContentType returns the MIME type for an accepted photo filename, or
// application/octet-stream for anything else.
func ContentType(filename string) string {
	if ct, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
