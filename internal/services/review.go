package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kafekita/apiserver/types"
)

// ErrInvalidReview is returned when a submission fails validation; no
// invalid review ever reaches the store.
var ErrInvalidReview = errors.New("invalid review")

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	List(ctx context.Context) ([]types.Review, error)
	Append(ctx context.Context, review types.Review) error
}

// ReviewService encapsulates review use-cases.
type ReviewService struct {
	repo ReviewRepository
	now  func() time.Time
}

func NewReviewService(repo ReviewRepository) *ReviewService {
	return &ReviewService{repo: repo, now: time.Now}
}

// ListForCafe returns the reviews for one café in submission order.
func (s *ReviewService) ListForCafe(ctx context.Context, cafeID string) ([]types.Review, error) {
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ReviewsFor(cafeID, reviews), nil
}

// Add validates and stores a review. The rating must be between 1 and 5
// and the text non-empty after trimming.
func (s *ReviewService) Add(ctx context.Context, cafeID, user string, rating int, text string) (types.Review, error) {
	if rating < 1 || rating > 5 {
		return types.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidReview)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Review{}, fmt.Errorf("%w: text must not be empty", ErrInvalidReview)
	}

	review := types.Review{
		CafeID:    cafeID,
		User:      user,
		Rating:    rating,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.repo.Append(ctx, review); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

// ReviewsFor selects the reviews whose café identifier matches cafeID.
// Both sides are compared as strings, so identifiers that arrived in a
// different representation still match.
func ReviewsFor(cafeID string, reviews []types.Review) []types.Review {
	matched := make([]types.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.CafeID == cafeID {
			matched = append(matched, review)
		}
	}
	return matched
}

// AverageRating returns the mean rating rounded to two decimal places.
// The second return is false when there are no reviews to average.
func AverageRating(reviews []types.Review) (float64, bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*100) / 100, true
}
