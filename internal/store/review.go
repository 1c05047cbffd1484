package store

import (
	"context"
	"sync"

	"github.com/kafekita/apiserver/types"
)

// ReviewRepository handles persistence for reviews. Reviews are
// append-only; nothing in the system updates or deletes them.
type ReviewRepository struct {
	path string
	mu   sync.Mutex
}

func NewReviewRepository(path string) *ReviewRepository {
	return &ReviewRepository{path: path}
}

// List returns all reviews in submission order.
func (r *ReviewRepository) List(ctx context.Context) ([]types.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readDocument[types.Review](r.path)
}

// Append adds a review to the collection.
func (r *ReviewRepository) Append(ctx context.Context, review types.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviews, err := r.List(ctx)
	if err != nil {
		return err
	}
	reviews = append(reviews, review)
	return writeDocument(r.path, reviews)
}
