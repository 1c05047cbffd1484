// Package store persists each collection as one JSON array document on
// disk, read and written whole. There are no partial updates: a save
// replaces the entire document. Repositories serialize their writers
// with a per-collection mutex and perform saves through a temp-file
// rename, so a mutation either lands completely or not at all.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Collection document filenames under the data directory.
const (
	CafesFile   = "cafes.json"
	UsersFile   = "users.json"
	AdminsFile  = "admin.json"
	ReviewsFile = "reviews.json"
)

// readDocument loads a whole collection document. A missing file is
// created with an empty array and an empty slice is returned; malformed
// content likewise yields the empty default rather than an error, so a
// corrupt collection degrades to "no records" instead of taking the
// request down.
func readDocument[T any](path string) ([]T, error) {
	records := []T{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := writeDocument(path, records); err != nil {
			return nil, err
		}
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return []T{}, nil
	}
	return records, nil
}

// writeDocument replaces the collection document atomically.
func writeDocument[T any](path string, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
