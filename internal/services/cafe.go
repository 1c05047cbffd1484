package services

import (
	"context"

	"github.com/kafekita/apiserver/types"
)

const defaultRecommendations = 4

// CafeRepository defines persistence operations for the café catalog.
type CafeRepository interface {
	List(ctx context.Context) ([]types.Cafe, error)
	Get(ctx context.Context, id string) (types.Cafe, error)
	Create(ctx context.Context, cafe types.Cafe) (types.Cafe, error)
	Update(ctx context.Context, cafe types.Cafe) (types.Cafe, error)
	Delete(ctx context.Context, id string) error
}

// CafeService encapsulates catalog use-cases.
type CafeService struct {
	repo CafeRepository
}

func NewCafeService(repo CafeRepository) *CafeService {
	return &CafeService{repo: repo}
}

// List returns the catalog filtered by the given criteria, in catalog
// order.
func (s *CafeService) List(ctx context.Context, filter CatalogFilter) ([]types.Cafe, error) {
	cafes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCafes(cafes, filter), nil
}

func (s *CafeService) Get(ctx context.Context, id string) (types.Cafe, error) {
	return s.repo.Get(ctx, id)
}

func (s *CafeService) Create(ctx context.Context, cafe types.Cafe) (types.Cafe, error) {
	return s.repo.Create(ctx, cafe)
}

func (s *CafeService) Update(ctx context.Context, cafe types.Cafe) (types.Cafe, error) {
	return s.repo.Update(ctx, cafe)
}

func (s *CafeService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Recommend returns up to topN cafés similar to the one identified by
// id, ranked by shared location and tags.
func (s *CafeService) Recommend(ctx context.Context, id string, topN int) ([]types.Cafe, error) {
	if topN <= 0 {
		topN = defaultRecommendations
	}

	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return RecommendCafes(target, catalog, topN), nil
}
