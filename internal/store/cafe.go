package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/kafekita/apiserver/types"
)

// CafeRepository handles persistence for the café catalog.
type CafeRepository struct {
	path string
	mu   sync.Mutex
}

func NewCafeRepository(path string) *CafeRepository {
	return &CafeRepository{path: path}
}

// List returns the full catalog in document order.
func (r *CafeRepository) List(ctx context.Context) ([]types.Cafe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cafes, err := readDocument[types.Cafe](r.path)
	if err != nil {
		return nil, err
	}
	normalizeCafes(cafes)
	return cafes, nil
}

// Get returns the café with the given identifier.
func (r *CafeRepository) Get(ctx context.Context, id string) (types.Cafe, error) {
	cafes, err := r.List(ctx)
	if err != nil {
		return types.Cafe{}, err
	}
	for _, cafe := range cafes {
		if cafe.ID == id {
			return cafe, nil
		}
	}
	return types.Cafe{}, ErrNotFound
}

// Create appends a café with the next free identifier (max existing + 1)
// and returns the stored record.
func (r *CafeRepository) Create(ctx context.Context, cafe types.Cafe) (types.Cafe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cafes, err := r.List(ctx)
	if err != nil {
		return types.Cafe{}, err
	}

	maxID := 0
	for _, c := range cafes {
		if n, err := strconv.Atoi(c.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	cafe.ID = strconv.Itoa(maxID + 1)

	cafes = append(cafes, cafe)
	if err := writeDocument(r.path, cafes); err != nil {
		return types.Cafe{}, err
	}
	return cafe, nil
}

// Update replaces the café with the matching identifier.
func (r *CafeRepository) Update(ctx context.Context, cafe types.Cafe) (types.Cafe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cafes, err := r.List(ctx)
	if err != nil {
		return types.Cafe{}, err
	}

	for i := range cafes {
		if cafes[i].ID == cafe.ID {
			cafes[i] = cafe
			if err := writeDocument(r.path, cafes); err != nil {
				return types.Cafe{}, err
			}
			return cafe, nil
		}
	}
	return types.Cafe{}, ErrNotFound
}

// Delete removes the café with the given identifier and reassigns the
// remaining identifiers to contiguous "1".."N". Identifiers are
// therefore not stable across deletions; callers holding old IDs (e.g.
// favorite lists) may find them pointing elsewhere afterwards.
func (r *CafeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cafes, err := r.List(ctx)
	if err != nil {
		return err
	}

	kept := make([]types.Cafe, 0, len(cafes))
	for _, cafe := range cafes {
		if cafe.ID != id {
			kept = append(kept, cafe)
		}
	}
	if len(kept) == len(cafes) {
		return ErrNotFound
	}

	for i := range kept {
		kept[i].ID = strconv.Itoa(i + 1)
	}
	return writeDocument(r.path, kept)
}

// normalizeCafes fills defaults for records written by hand or by older
// versions: positional IDs where missing and empty slices instead of
// nulls.
func normalizeCafes(cafes []types.Cafe) {
	for i := range cafes {
		if cafes[i].ID == "" {
			cafes[i].ID = strconv.Itoa(i + 1)
		}
		if cafes[i].Categories == nil {
			cafes[i].Categories = []string{}
		}
		if cafes[i].Menu == nil {
			cafes[i].Menu = []types.MenuItem{}
		}
	}
}
