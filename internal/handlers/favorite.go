package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kafekita/apiserver/internal/services"
	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
)

// FavoriteHandler manages the client's favorite list. Favorites are
// never persisted server-side: they live inside the JWT, and toggling
// reissues the token with the updated list.
type FavoriteHandler struct {
	cafeService *services.CafeService
	secret      []byte
	tokenTTL    time.Duration
}

// NewFavoriteHandler constructs a FavoriteHandler with the provided
// dependencies.
func NewFavoriteHandler(cafeService *services.CafeService, jwtSecret string) *FavoriteHandler {
	return &FavoriteHandler{
		cafeService: cafeService,
		secret:      []byte(jwtSecret),
		tokenTTL:    defaultTokenTTL,
	}
}

// FavoriteRouter registers favorite routes on the given router. All
// routes require authentication.
func FavoriteRouter(r chi.Router, cafeService *services.CafeService, jwtSecret string) {
	handler := NewFavoriteHandler(cafeService, jwtSecret)

	r.Use(RequireAuth(jwtSecret))
	r.Get("/", handler.ListFavorites)
	r.Post("/{cafeID}/toggle", handler.ToggleFavorite)
}

// ListFavorites returns the favorite café IDs carried by the token.
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	favorites := session.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	writeJSON(w, http.StatusOK, FavoritesResponse{Favorites: favorites})
}

// ToggleFavorite flips the café in the session's favorite list and
// returns a reissued token carrying the new list.
func (h *FavoriteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "cafeID")
	if _, err := h.cafeService.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cafe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch cafe")
		return
	}

	favorites := toggleID(session.Favorites, id)

	identity := types.Identity{Username: session.Username, Role: session.Role}
	token, err := issueToken(identity, favorites, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, FavoritesResponse{Token: token, Favorites: favorites})
}

// FavoritesResponse carries the favorite list and, after a toggle, the
// reissued token.
type FavoritesResponse struct {
	Token     string   `json:"token,omitempty"`
	Favorites []string `json:"favorites"`
}

// toggleID removes id when present, otherwise appends it, preserving
// the order of the remaining entries.
func toggleID(ids []string, id string) []string {
	result := make([]string, 0, len(ids)+1)
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		result = append(result, existing)
	}
	if !removed {
		result = append(result, id)
	}
	return result
}
