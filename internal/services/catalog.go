package services

import (
	"sort"
	"strings"

	"github.com/kafekita/apiserver/types"
)

// CatalogFilter carries the optional catalog search criteria. Zero
// value means "no filtering".
type CatalogFilter struct {
	// FreeText is matched as a case-folded substring against the café's
	// name, location, category tags and menu item names, space-joined.
	FreeText string

	// Location must equal the café's location exactly (case-sensitive).
	Location string

	// Categories match when at least one of them equals one of the
	// café's tags case-insensitively.
	Categories []string
}

// FilterCafes returns the cafés matching every non-empty criterion, in
// the original catalog order. With no criteria the input is returned
// unchanged.
func FilterCafes(cafes []types.Cafe, filter CatalogFilter) []types.Cafe {
	freeText := strings.ToLower(strings.TrimSpace(filter.FreeText))

	categories := make([]string, 0, len(filter.Categories))
	for _, category := range filter.Categories {
		if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
			categories = append(categories, c)
		}
	}

	if freeText == "" && filter.Location == "" && len(categories) == 0 {
		return cafes
	}

	matched := make([]types.Cafe, 0, len(cafes))
	for _, cafe := range cafes {
		if freeText != "" && !strings.Contains(searchHaystack(cafe), freeText) {
			continue
		}
		if filter.Location != "" && cafe.Location != filter.Location {
			continue
		}
		if len(categories) > 0 && !hasAnyCategory(cafe, categories) {
			continue
		}
		matched = append(matched, cafe)
	}
	return matched
}

// searchHaystack builds the case-folded text the free-text filter
// searches: name, location, tags and menu item names, space-joined.
func searchHaystack(cafe types.Cafe) string {
	parts := make([]string, 0, 2+len(cafe.Categories)+len(cafe.Menu))
	parts = append(parts, strings.ToLower(cafe.Name), strings.ToLower(cafe.Location))
	for _, category := range cafe.Categories {
		parts = append(parts, strings.ToLower(category))
	}
	for _, item := range cafe.Menu {
		parts = append(parts, strings.ToLower(item.Name))
	}
	return strings.Join(parts, " ")
}

func hasAnyCategory(cafe types.Cafe, wanted []string) bool {
	for _, tag := range cafe.Categories {
		folded := strings.ToLower(tag)
		for _, w := range wanted {
			if folded == w {
				return true
			}
		}
	}
	return false
}

// RecommendCafes ranks the catalog against the target café and returns
// the best topN candidates. The target itself is excluded by identifier
// equality. A candidate scores +2 for an exact location match plus one
// point per shared case-folded tag occurrence; duplicate tags in either
// list inflate the score. The sort is stable, so tied candidates keep
// their catalog order.
func RecommendCafes(target types.Cafe, catalog []types.Cafe, topN int) []types.Cafe {
	if topN <= 0 {
		topN = 4
	}

	targetTags := make(map[string]int, len(target.Categories))
	for _, tag := range target.Categories {
		targetTags[strings.ToLower(tag)]++
	}

	type scored struct {
		cafe  types.Cafe
		score int
	}
	candidates := make([]scored, 0, len(catalog))
	for _, cafe := range catalog {
		if cafe.ID == target.ID {
			continue
		}
		score := 0
		if cafe.Location == target.Location {
			score += 2
		}
		for _, tag := range cafe.Categories {
			score += targetTags[strings.ToLower(tag)]
		}
		candidates = append(candidates, scored{cafe: cafe, score: score})
	}

	// Stable sort keeps equal scores in catalog order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	recommendations := make([]types.Cafe, len(candidates))
	for i, candidate := range candidates {
		recommendations[i] = candidate.cafe
	}
	return recommendations
}
