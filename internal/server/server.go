package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/config"
	"github.com/slatecms/apiserver/internal/db"
	"github.com/slatecms/apiserver/internal/events"
	"github.com/slatecms/apiserver/internal/handlers"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/storage"
	"github.com/slatecms/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *events.Events
	log        zerolog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	media, err := buildMedia(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if media != nil {
		if err := media.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	publisher, err := buildEvents(ctx, cfg, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	templateRepo := store.NewTemplateRepository(dbConn)
	pageRepo := store.NewPageRepository(dbConn)
	sectionRepo := store.NewSectionRepository(dbConn)
	elementRepo := store.NewElementRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)

	userService := services.NewUserService(userRepo)
	templateService := services.NewTemplateService(templateRepo)
	pageService := services.NewPageService(pageRepo, templateRepo, publisher)
	sectionService := services.NewSectionService(sectionRepo, media, log)
	elementService := services.NewElementService(elementRepo, media, log)
	categoryService := services.NewCategoryService(categoryRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)
	optionalAuthMiddleware := handlers.OptionalAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/templates", func(r chi.Router) {
		handlers.TemplateRouter(r, templateService, userService, authMiddleware)
	})
	router.Route("/pages", func(r chi.Router) {
		handlers.PageRouter(r, pageService, sectionService, userService, authMiddleware, optionalAuthMiddleware)
	})
	router.Route("/sections", func(r chi.Router) {
		handlers.SectionRouter(r, sectionService, elementService, pageService, userService, media, authMiddleware, optionalAuthMiddleware)
	})
	router.Route("/elements", func(r chi.Router) {
		handlers.ElementRouter(r, elementService, sectionService, pageService, userService, media, authMiddleware, optionalAuthMiddleware)
	})
	router.Route("/themes", func(r chi.Router) {
		handlers.ThemeRouter(r)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, categoryService, userService, authMiddleware)
	})

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
		db:         dbConn,
		events:     publisher,
		log:        log,
	}, nil
}

// buildMedia constructs the configured object-storage client, or nil
// when no media backend is configured.
func buildMedia(ctx context.Context, cfg config.Config) (*storage.Media, error) {
	switch cfg.Media.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewMedia(client), nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewMedia(client), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}

// buildEvents constructs the configured event publisher, or nil when no
// broker is configured. A nil publisher is safe to use everywhere.
func buildEvents(ctx context.Context, cfg config.Config, log zerolog.Logger) (*events.Events, error) {
	switch cfg.Events.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.New(backend, log), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.New(backend, log), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
