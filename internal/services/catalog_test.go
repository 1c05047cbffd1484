package services

import (
	"testing"

	"github.com/kafekita/apiserver/types"
)

func sampleCatalog() []types.Cafe {
	return []types.Cafe{
		{
			ID:         "1",
			Name:       "Kopi Pagi",
			Location:   "Menteng",
			Categories: []string{"coffee", "wifi"},
			Menu:       []types.MenuItem{{Name: "Espresso", Price: 18000}, {Name: "Iced Mocha", Price: 28000}},
		},
		{
			ID:         "2",
			Name:       "Teh Sore",
			Location:   "Kemang",
			Categories: []string{"tea", "outdoor"},
			Menu:       []types.MenuItem{{Name: "Earl Grey", Price: 20000}},
		},
		{
			ID:         "3",
			Name:       "Warung Senja",
			Location:   "Menteng",
			Categories: []string{"Coffee", "live music"},
			Menu:       []types.MenuItem{{Name: "Kopi Tubruk", Price: 12000}},
		},
	}
}

func cafeIDs(cafes []types.Cafe) []string {
	ids := make([]string, len(cafes))
	for i, cafe := range cafes {
		ids[i] = cafe.ID
	}
	return ids
}

func assertIDs(t *testing.T, got []types.Cafe, want ...string) {
	t.Helper()
	gotIDs := cafeIDs(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestFilterCafes_NoFiltersReturnsInputUnchanged(t *testing.T) {
	t.Parallel()

	catalog := sampleCatalog()
	got := FilterCafes(catalog, CatalogFilter{})

	assertIDs(t, got, "1", "2", "3")
	if &got[0] != &catalog[0] {
		// Same backing array: no filters means the catalog itself.
		t.Fatalf("expected the input slice to be returned unchanged")
	}
}

func TestFilterCafes_FreeTextMatchesMenuItemName(t *testing.T) {
	t.Parallel()

	got := FilterCafes(sampleCatalog(), CatalogFilter{FreeText: "mocha"})
	assertIDs(t, got, "1")
}

func TestFilterCafes_FreeTextTrimmedAndCaseFolded(t *testing.T) {
	t.Parallel()

	got := FilterCafes(sampleCatalog(), CatalogFilter{FreeText: "  SENJA "})
	assertIDs(t, got, "3")
}

func TestFilterCafes_LocationIsExactAndCaseSensitive(t *testing.T) {
	t.Parallel()

	got := FilterCafes(sampleCatalog(), CatalogFilter{Location: "Menteng"})
	assertIDs(t, got, "1", "3")

	got = FilterCafes(sampleCatalog(), CatalogFilter{Location: "menteng"})
	assertIDs(t, got)
}

func TestFilterCafes_CategoriesMatchAnyCaseInsensitive(t *testing.T) {
	t.Parallel()

	got := FilterCafes(sampleCatalog(), CatalogFilter{Categories: []string{"COFFEE", "outdoor"}})
	assertIDs(t, got, "1", "2", "3")
}

func TestFilterCafes_FiltersCombineWithAnd(t *testing.T) {
	t.Parallel()

	got := FilterCafes(sampleCatalog(), CatalogFilter{
		FreeText:   "kopi",
		Location:   "Menteng",
		Categories: []string{"coffee"},
	})
	assertIDs(t, got, "1", "3")

	got = FilterCafes(sampleCatalog(), CatalogFilter{
		FreeText: "kopi",
		Location: "Kemang",
	})
	assertIDs(t, got)
}

func TestRecommendCafes_ExcludesTarget(t *testing.T) {
	t.Parallel()

	catalog := sampleCatalog()
	got := RecommendCafes(catalog[0], catalog, 10)
	for _, cafe := range got {
		if cafe.ID == catalog[0].ID {
			t.Fatalf("target %q appeared in its own recommendations", cafe.ID)
		}
	}
}

func TestRecommendCafes_TieBrokenByCatalogOrder(t *testing.T) {
	t.Parallel()

	target := types.Cafe{ID: "t", Location: "A", Categories: []string{"coffee", "wifi"}}
	catalog := []types.Cafe{
		{ID: "x", Location: "A", Categories: []string{}},
		{ID: "y", Location: "B", Categories: []string{"coffee", "wifi"}},
		{ID: "z", Location: "B", Categories: []string{}},
	}

	got := RecommendCafes(target, catalog, 2)
	assertIDs(t, got, "x", "y")
}

func TestRecommendCafes_DuplicateTagsInflateScore(t *testing.T) {
	t.Parallel()

	target := types.Cafe{ID: "t", Location: "A", Categories: []string{"coffee"}}
	catalog := []types.Cafe{
		{ID: "1", Location: "B", Categories: []string{"coffee"}},
		{ID: "2", Location: "B", Categories: []string{"Coffee", "coffee"}},
	}

	// Candidate 2 scores two tag points against candidate 1's one.
	got := RecommendCafes(target, catalog, 2)
	assertIDs(t, got, "2", "1")
}

func TestRecommendCafes_TruncatesToTopN(t *testing.T) {
	t.Parallel()

	catalog := sampleCatalog()
	got := RecommendCafes(catalog[0], catalog, 1)
	if len(got) != 1 {
		t.Fatalf("len=%d, want 1", len(got))
	}

	got = RecommendCafes(catalog[0], catalog, 10)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
}

func TestRecommendCafes_DefaultTopN(t *testing.T) {
	t.Parallel()

	target := types.Cafe{ID: "t", Location: "A"}
	catalog := make([]types.Cafe, 0, 6)
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		catalog = append(catalog, types.Cafe{ID: id, Location: "A"})
	}

	got := RecommendCafes(target, catalog, 0)
	if len(got) != 4 {
		t.Fatalf("len=%d, want default of 4", len(got))
	}
}
