package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kafekita/apiserver/internal/services"
	"github.com/kafekita/apiserver/internal/storage"
	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router   *chi.Mux
	cafeRepo *store.CafeRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	cafeRepo := store.NewCafeRepository(filepath.Join(dataDir, store.CafesFile))
	userRepo := store.NewCredentialRepository(filepath.Join(dataDir, store.UsersFile), types.RoleUser)
	adminRepo := store.NewCredentialRepository(filepath.Join(dataDir, store.AdminsFile), types.RoleAdmin)
	reviewRepo := store.NewReviewRepository(filepath.Join(dataDir, store.ReviewsFile))

	cafeService := services.NewCafeService(cafeRepo)
	reviewService := services.NewReviewService(reviewRepo)
	authService := services.NewAuthService(userRepo, adminRepo)

	local, err := storage.NewLocalStorage(filepath.Join(dataDir, "uploads"))
	require.NoError(t, err)
	photos := storage.NewPhotoStorage(local)
	require.NoError(t, photos.Ensure(context.Background()))

	authMiddleware := RequireAuth(testSecret)
	router := chi.NewRouter()
	router.Route("/cafes", func(r chi.Router) {
		CafeRouter(r, cafeService, reviewService, photos, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, testSecret)
	})
	router.Route("/favorites", func(r chi.Router) {
		FavoriteRouter(r, cafeService, testSecret)
	})

	cafeHandler := NewCafeHandler(cafeService, reviewService, photos)
	router.Get("/api/cafes", cafeHandler.DumpCatalog)
	router.Get("/uploads/{photoKey}", cafeHandler.ServePhoto)

	return &testEnv{router: router, cafeRepo: cafeRepo}
}

func (e *testEnv) seedCafes(t *testing.T, cafes ...types.Cafe) {
	t.Helper()
	for _, cafe := range cafes {
		_, err := e.cafeRepo.Create(context.Background(), cafe)
		require.NoError(t, err)
	}
}

func (e *testEnv) token(t *testing.T, username, role string, favorites []string) string {
	t.Helper()
	token, err := issueToken(types.Identity{Username: username, Role: role}, favorites, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, target, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&value))
	return value
}

func cafeForm(t *testing.T, fields map[string]string, menu [][2]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, row := range menu {
		require.NoError(t, writer.WriteField("menu_name[]", row[0]))
		require.NoError(t, writer.WriteField("menu_price[]", row[1]))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestListCafes_FreeTextMatchesMenu(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t,
		types.Cafe{Name: "Kopi Pagi", Location: "Menteng", Menu: []types.MenuItem{{Name: "Iced Mocha", Price: 28000}}},
		types.Cafe{Name: "Teh Sore", Location: "Kemang"},
	)

	rec := env.do(t, http.MethodGet, "/cafes?q=mocha", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[CafeListResponse](t, rec)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "Kopi Pagi", resp.Items[0].Name)
}

func TestListCafes_CategoryAndLocationFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t,
		types.Cafe{Name: "A", Location: "Menteng", Categories: []string{"coffee"}},
		types.Cafe{Name: "B", Location: "Menteng", Categories: []string{"tea"}},
		types.Cafe{Name: "C", Location: "Kemang", Categories: []string{"coffee"}},
	)

	rec := env.do(t, http.MethodGet, "/cafes?location=Menteng&category=COFFEE", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[CafeListResponse](t, rec)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "A", resp.Items[0].Name)
}

func TestGetCafe_DetailAggregatesReviewsAndRecommendations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t,
		types.Cafe{Name: "A", Location: "Menteng", Categories: []string{"coffee"}},
		types.Cafe{Name: "B", Location: "Menteng", Categories: []string{"coffee"}},
		types.Cafe{Name: "C", Location: "Kemang", Categories: []string{"tea"}},
	)

	token := env.token(t, "ani", types.RoleUser, nil)
	for _, body := range []string{
		`{"rating":4,"text":"good"}`,
		`{"rating":5,"text":"great"}`,
	} {
		rec := env.do(t, http.MethodPost, "/cafes/1/reviews", token, bytes.NewBufferString(body), "application/json")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/cafes/1", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[CafeDetailResponse](t, rec)
	require.Equal(t, "A", resp.Cafe.Name)
	require.Len(t, resp.Reviews, 2)
	require.NotNil(t, resp.AverageRating)
	require.Equal(t, 4.5, *resp.AverageRating)
	// B shares location and tag (score 3), C shares nothing.
	require.Len(t, resp.Recommendations, 2)
	require.Equal(t, "B", resp.Recommendations[0].Name)
}

func TestGetCafe_UnknownID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/cafes/42", "", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReview_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t, types.Cafe{Name: "A"})
	token := env.token(t, "ani", types.RoleUser, nil)

	rec := env.do(t, http.MethodPost, "/cafes/1/reviews", "", bytes.NewBufferString(`{"rating":4,"text":"x"}`), "application/json")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/cafes/1/reviews", token, bytes.NewBufferString(`{"rating":6,"text":"x"}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/cafes/1/reviews", token, bytes.NewBufferString(`{"rating":3,"text":"  "}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/cafes/9/reviews", token, bytes.NewBufferString(`{"rating":3,"text":"ok"}`), "application/json")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/cafes/1/reviews", token, bytes.NewBufferString(`{"rating":3,"text":"ok"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	review := decodeJSON[types.Review](t, rec)
	require.Equal(t, "ani", review.User)
	require.Equal(t, "1", review.CafeID)
}

func TestCreateCafe_RequiresAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body, contentType := cafeForm(t, map[string]string{"name": "Kopi Pagi"}, nil)

	rec := env.do(t, http.MethodPost, "/cafes", "", body, contentType)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body, contentType = cafeForm(t, map[string]string{"name": "Kopi Pagi"}, nil)
	userToken := env.token(t, "ani", types.RoleUser, nil)
	rec = env.do(t, http.MethodPost, "/cafes", userToken, body, contentType)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCafe_ParsesFormAndAssignsID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	adminToken := env.token(t, "root", types.RoleAdmin, nil)

	body, contentType := cafeForm(t, map[string]string{
		"name":       "Kopi Pagi",
		"location":   "Menteng",
		"categories": "coffee, wifi, ,",
	}, [][2]string{
		{"Espresso", "18000"},
		{"Iced Mocha", "28000.5"},
		{"", "999"},
		{"Water", "free"},
	})

	rec := env.do(t, http.MethodPost, "/cafes", adminToken, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code)

	cafe := decodeJSON[types.Cafe](t, rec)
	require.Equal(t, "1", cafe.ID)
	require.Equal(t, []string{"coffee", "wifi"}, cafe.Categories)
	require.Equal(t, []types.MenuItem{
		{Name: "Espresso", Price: 18000},
		{Name: "Iced Mocha", Price: 28000},
		{Name: "Water", Price: 0},
	}, cafe.Menu)
	require.Nil(t, cafe.Latitude)
}

func TestUpdateCafe_KeepsMenuWhenFormHasNoRows(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t, types.Cafe{
		Name:     "Kopi Pagi",
		Location: "Menteng",
		Menu:     []types.MenuItem{{Name: "Espresso", Price: 18000}},
	})
	adminToken := env.token(t, "root", types.RoleAdmin, nil)

	body, contentType := cafeForm(t, map[string]string{
		"name":      "Kopi Pagi Baru",
		"location":  "Menteng",
		"latitude":  "-6.1944",
		"longitude": "106.8229",
	}, nil)

	rec := env.do(t, http.MethodPut, "/cafes/1", adminToken, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	cafe := decodeJSON[types.Cafe](t, rec)
	require.Equal(t, "Kopi Pagi Baru", cafe.Name)
	require.Len(t, cafe.Menu, 1)
	require.NotNil(t, cafe.Latitude)
	require.Equal(t, -6.1944, *cafe.Latitude)
}

func TestDeleteCafe_ReassignsIDs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t,
		types.Cafe{Name: "A"},
		types.Cafe{Name: "B"},
		types.Cafe{Name: "C"},
	)
	adminToken := env.token(t, "root", types.RoleAdmin, nil)

	rec := env.do(t, http.MethodDelete, "/cafes/1", adminToken, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/cafes", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cafes := decodeJSON[[]types.Cafe](t, rec)
	require.Len(t, cafes, 2)
	require.Equal(t, "1", cafes[0].ID)
	require.Equal(t, "B", cafes[0].Name)
	require.Equal(t, "2", cafes[1].ID)
}

func TestFavorites_ToggleReissuesToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCafes(t, types.Cafe{Name: "A"}, types.Cafe{Name: "B"})
	token := env.token(t, "ani", types.RoleUser, nil)

	rec := env.do(t, http.MethodPost, "/favorites/1/toggle", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[FavoritesResponse](t, rec)
	require.Equal(t, []string{"1"}, resp.Favorites)
	require.NotEmpty(t, resp.Token)

	// Toggling again with the reissued token removes the favorite.
	rec = env.do(t, http.MethodPost, "/favorites/1/toggle", resp.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeJSON[FavoritesResponse](t, rec)
	require.Empty(t, resp.Favorites)

	rec = env.do(t, http.MethodPost, "/favorites/42/toggle", token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/favorites", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeJSON[FavoritesResponse](t, rec)
	require.Empty(t, resp.Favorites)
}
