package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/kafekita/apiserver/internal/services"
	"github.com/kafekita/apiserver/internal/storage"
	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
)

const (
	maxMultipartMemory = 16 << 20
	maxPhotoBytes      = 8 << 20
	formFieldName      = "name"
	formFieldLocation  = "location"
	formFieldCategory  = "categories"
	formFieldMenuName  = "menu_name[]"
	formFieldMenuPrice = "menu_price[]"
	formFieldLatitude  = "latitude"
	formFieldLongitude = "longitude"
	formFieldPhoto     = "photo"
)

// PhotoFile represents an uploaded café photo.
type PhotoFile struct {
	Filename string
	Data     []byte
}

// CafeHandler provides HTTP handlers for the café catalog.
type CafeHandler struct {
	cafeService   *services.CafeService
	reviewService *services.ReviewService
	photos        *storage.PhotoStorage
}

// NewCafeHandler constructs a handler with the provided services.
func NewCafeHandler(
	cafeService *services.CafeService,
	reviewService *services.ReviewService,
	photos *storage.PhotoStorage,
) *CafeHandler {
	return &CafeHandler{
		cafeService:   cafeService,
		reviewService: reviewService,
		photos:        photos,
	}
}

// CafeRouter registers catalog routes on the given router.
func CafeRouter(
	r chi.Router,
	cafeService *services.CafeService,
	reviewService *services.ReviewService,
	photos *storage.PhotoStorage,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewCafeHandler(cafeService, reviewService, photos)

	r.Get("/", handler.ListCafes)
	r.With(authMiddleware, RequireAdmin).Post("/", handler.CreateCafe)
	r.Route("/{cafeID}", func(r chi.Router) {
		r.Get("/", handler.GetCafe)
		r.With(authMiddleware, RequireAdmin).Put("/", handler.UpdateCafe)
		r.With(authMiddleware, RequireAdmin).Delete("/", handler.DeleteCafe)
		r.With(authMiddleware).Post("/reviews", handler.CreateReview)
	})
}

// ListCafes returns the catalog filtered by q, location and category
// query parameters, in catalog order.
func (h *CafeHandler) ListCafes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.CatalogFilter{
		FreeText:   query.Get("q"),
		Location:   strings.TrimSpace(query.Get("location")),
		Categories: query["category"],
	}

	items, err := h.cafeService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cafes")
		return
	}

	writeJSON(w, http.StatusOK, CafeListResponse{Items: items, Total: len(items)})
}

// GetCafe returns one café together with its reviews, average rating
// and recommendations.
func (h *CafeHandler) GetCafe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cafeID")

	cafe, err := h.cafeService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cafe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch cafe")
		return
	}

	reviews, err := h.reviewService.ListForCafe(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch reviews")
		return
	}

	recommendations, err := h.cafeService.Recommend(r.Context(), id, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch recommendations")
		return
	}

	resp := CafeDetailResponse{
		Cafe:            cafe,
		Reviews:         reviews,
		Recommendations: recommendations,
	}
	if avg, ok := services.AverageRating(reviews); ok {
		resp.AverageRating = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CafeHandler) CreateCafe(w http.ResponseWriter, r *http.Request) {
	req, err := parseCafeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cafe := types.Cafe{
		Name:       req.Name,
		Location:   req.Location,
		Categories: req.Categories,
		Menu:       req.Menu,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}

	if req.Photo.Data != nil {
		key, err := h.storePhoto(r, req.Photo)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cafe.Photo = key
	}

	created, err := h.cafeService.Create(r.Context(), cafe)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create cafe")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CafeHandler) UpdateCafe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cafeID")

	current, err := h.cafeService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cafe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch cafe")
		return
	}

	req, err := parseCafeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current.Name = req.Name
	current.Location = req.Location
	current.Categories = req.Categories
	// The menu is only replaced when the form carries menu rows.
	if len(req.Menu) > 0 {
		current.Menu = req.Menu
	}
	current.Latitude = req.Latitude
	current.Longitude = req.Longitude

	if req.Photo.Data != nil {
		key, err := h.storePhoto(r, req.Photo)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		current.Photo = key
	}

	updated, err := h.cafeService.Update(r.Context(), current)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cafe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cafe")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *CafeHandler) DeleteCafe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cafeID")

	if err := h.cafeService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cafe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete cafe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateReview stores a review for the café, authored by the
// authenticated user.
func (h *CafeHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
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

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	review, err := h.reviewService.Add(r.Context(), id, session.Username, req.Rating, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrInvalidReview) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store review")
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// DumpCatalog returns the raw café array, matching the shape of the
// stored collection document.
func (h *CafeHandler) DumpCatalog(w http.ResponseWriter, r *http.Request) {
	cafes, err := h.cafeService.List(r.Context(), services.CatalogFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cafes")
		return
	}
	writeJSON(w, http.StatusOK, cafes)
}

// ServePhoto streams a stored café photo.
func (h *CafeHandler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "photoKey")

	obj, err := h.photos.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", storage.ContentType(key))
	_, _ = io.Copy(w, obj)
}

func (h *CafeHandler) storePhoto(r *http.Request, photo PhotoFile) (string, error) {
	if !storage.AllowedFile(photo.Filename) {
		return "", errors.New("file type not allowed (png/jpg/jpeg/gif)")
	}

	key := uniquePhotoKey(photo.Filename)
	contentType := storage.ContentType(photo.Filename)
	reader := bytes.NewReader(photo.Data)
	if err := h.photos.Put(r.Context(), key, reader, int64(len(photo.Data)), contentType); err != nil {
		return "", errors.New("failed to store photo")
	}
	return key, nil
}

// CafeUpsertRequest represents the parsed multipart form payload.
type CafeUpsertRequest struct {
	Name       string
	Location   string
	Categories []string
	Menu       []types.MenuItem
	Latitude   *float64
	Longitude  *float64
	Photo      PhotoFile
}

// CafeListResponse is the catalog list response payload.
type CafeListResponse struct {
	Items []types.Cafe `json:"items"`
	Total int          `json:"total"`
}

// CafeDetailResponse is the café detail payload.
type CafeDetailResponse struct {
	Cafe            types.Cafe     `json:"cafe"`
	AverageRating   *float64       `json:"avg_rating"`
	Reviews         []types.Review `json:"reviews"`
	Recommendations []types.Cafe   `json:"recommendations"`
}

// ReviewRequest is the review submission payload.
type ReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func parseCafeForm(r *http.Request) (CafeUpsertRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return CafeUpsertRequest{}, errors.New("invalid multipart form")
	}

	name := strings.TrimSpace(r.FormValue(formFieldName))
	if name == "" {
		return CafeUpsertRequest{}, errors.New("name is required")
	}
	location := strings.TrimSpace(r.FormValue(formFieldLocation))

	categories := parseCategories(r.FormValue(formFieldCategory))
	menu := parseMenu(r.MultipartForm.Value[formFieldMenuName], r.MultipartForm.Value[formFieldMenuPrice])

	latitude, err := parseOptionalFloat(r.FormValue(formFieldLatitude))
	if err != nil {
		return CafeUpsertRequest{}, errors.New("invalid latitude")
	}
	longitude, err := parseOptionalFloat(r.FormValue(formFieldLongitude))
	if err != nil {
		return CafeUpsertRequest{}, errors.New("invalid longitude")
	}

	photo, err := parsePhotoFile(r.MultipartForm)
	if err != nil {
		return CafeUpsertRequest{}, err
	}

	return CafeUpsertRequest{
		Name:       name,
		Location:   location,
		Categories: categories,
		Menu:       menu,
		Latitude:   latitude,
		Longitude:  longitude,
		Photo:      photo,
	}, nil
}

// parseCategories splits a comma-separated tag list, dropping blanks.
func parseCategories(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	categories := make([]string, 0, len(parts))
	for _, part := range parts {
		if category := strings.TrimSpace(part); category != "" {
			categories = append(categories, category)
		}
	}
	return categories
}

// parseMenu pairs the menu_name[]/menu_price[] form rows. Prices parse
// as integers with a float fallback; anything unparseable becomes 0.
// Rows with an empty name are dropped.
func parseMenu(names, prices []string) []types.MenuItem {
	menu := make([]types.MenuItem, 0, len(names))
	for i, rawName := range names {
		name := strings.TrimSpace(rawName)
		if name == "" {
			continue
		}
		price := 0
		if i < len(prices) {
			raw := strings.TrimSpace(prices[i])
			if v, err := strconv.Atoi(raw); err == nil {
				price = v
			} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
				price = int(f)
			}
		}
		menu = append(menu, types.MenuItem{Name: name, Price: price})
	}
	return menu
}

func parseOptionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parsePhotoFile(form *multipart.Form) (PhotoFile, error) {
	if form == nil {
		return PhotoFile{}, nil
	}

	files := form.File[formFieldPhoto]
	if len(files) == 0 {
		return PhotoFile{}, nil
	}
	if len(files) > 1 {
		return PhotoFile{}, errors.New("only one photo is allowed")
	}

	fileHeader := files[0]
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return PhotoFile{}, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return PhotoFile{}, fmt.Errorf("failed to read photo: %w", err)
	}

	data, err := readFileLimited(file, maxPhotoBytes)
	_ = file.Close()
	if err != nil {
		return PhotoFile{}, err
	}

	return PhotoFile{
		Filename: fileHeader.Filename,
		Data:     data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// uniquePhotoKey sanitizes the uploaded filename and prefixes it with a
// random UUID so concurrent uploads of the same filename cannot clobber
// each other.
func uniquePhotoKey(filename string) string {
	base := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(filename), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "photo"
	}
	id, err := uuid.NewV4()
	if err != nil {
		return base
	}
	return id.String() + "_" + base
}
