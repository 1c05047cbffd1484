package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kafekita/apiserver/config"
	"github.com/kafekita/apiserver/internal/handlers"
	"github.com/kafekita/apiserver/internal/services"
	"github.com/kafekita/apiserver/internal/storage"
	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cafeRepo := store.NewCafeRepository(filepath.Join(cfg.DataDir, store.CafesFile))
	userRepo := store.NewCredentialRepository(filepath.Join(cfg.DataDir, store.UsersFile), types.RoleUser)
	adminRepo := store.NewCredentialRepository(filepath.Join(cfg.DataDir, store.AdminsFile), types.RoleAdmin)
	reviewRepo := store.NewReviewRepository(filepath.Join(cfg.DataDir, store.ReviewsFile))

	cafeService := services.NewCafeService(cafeRepo)
	reviewService := services.NewReviewService(reviewRepo)
	authService := services.NewAuthService(userRepo, adminRepo)

	photos, err := newPhotoStorage(ctx, cfg.Uploads)
	if err != nil {
		return nil, err
	}
	if err := photos.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("prepare photo storage: %w", err)
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.New(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler,
	)

	cafeHandler := handlers.NewCafeHandler(cafeService, reviewService, photos)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/cafes", func(r chi.Router) {
		handlers.CafeRouter(r, cafeService, reviewService, photos, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, jwtSecret)
	})
	router.Route("/favorites", func(r chi.Router) {
		handlers.FavoriteRouter(r, cafeService, jwtSecret)
	})
	router.Get("/api/cafes", cafeHandler.DumpCatalog)
	router.Get("/uploads/{photoKey}", cafeHandler.ServePhoto)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		logger:     logger,
	}, nil
}

// newPhotoStorage selects the upload backend named by config.
func newPhotoStorage(ctx context.Context, cfg config.UploadsConfig) (*storage.PhotoStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "local":
		backend, err := storage.NewLocalStorage(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return storage.NewPhotoStorage(backend), nil
	case "minio":
		backend, err := storage.NewMinioStorage(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewPhotoStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSStorage(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewPhotoStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}
