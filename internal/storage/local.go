package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores photos as plain files under a fixed uploads
// directory. Object keys never escape the directory: anything with a
// path separator or traversal element is rejected.
type LocalStorage struct {
	dir string
}

// NewLocalStorage constructs a local filesystem backend rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("uploads directory is required")
	}
	return &LocalStorage{dir: dir}, nil
}

// Ensure creates the uploads directory if needed.
func (l *LocalStorage) Ensure(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes the photo to the uploads directory.
func (l *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := l.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Get opens a stored photo.
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.objectPath(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a stored photo.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := l.objectPath(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (l *LocalStorage) objectPath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}
