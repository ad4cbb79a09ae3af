package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brainjam-arena/backend/config"
	"github.com/brainjam-arena/backend/internal/db"
	"github.com/brainjam-arena/backend/internal/handlers"
	"github.com/brainjam-arena/backend/internal/judge"
	"github.com/brainjam-arena/backend/internal/mq"
	"github.com/brainjam-arena/backend/internal/services"
	"github.com/brainjam-arena/backend/internal/storage"
	"github.com/brainjam-arena/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.Bus
	logger     *slog.Logger
}

// New constructs a fully wired Server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	httpLogger := httplog.NewLogger("brainjam", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})
	logger := httpLogger.Logger

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archives, err := newArchiveStore(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := newBus(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	problemRepo := store.NewProblemRepository(dbConn)
	testCaseRepo := store.NewTestCaseRepository(dbConn)
	submissionRepo := store.NewSubmissionRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	completionRepo := store.NewCompletionRepository(dbConn)

	evaluator := judge.NewEvaluator(judge.NewClient(cfg.Judge0))

	userService := services.NewUserService(userRepo)
	problemService := services.NewProblemService(problemRepo, testCaseRepo, archives, logger)
	submissionService := services.NewSubmissionService(submissionRepo)

	var events services.EventPublisher
	if bus != nil {
		events = bus
	}
	gradingService := services.NewGradingService(
		problemRepo,
		testCaseRepo,
		submissionRepo,
		completionRepo,
		evaluator,
		events,
		cfg.MQ.GradedTopic,
		logger,
	)

	authMiddleware := handlers.RequireAuth(jwtSecret)
	optionalAuth := handlers.OptionalAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		httplog.RequestLogger(httpLogger),
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/problems", func(r chi.Router) {
		handlers.ProblemRouter(r, problemService, userService, authMiddleware)
	})
	router.Route("/submissions", func(r chi.Router) {
		handlers.SubmissionRouter(r, submissionService, authMiddleware)
	})
	handlers.SolutionRouter(router, gradingService, optionalAuth)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		logger:     logger,
	}, nil
}

func newArchiveStore(ctx context.Context, cfg config.StorageConfig) (*storage.ArchiveStore, error) {
	var backend storage.ObjectStorage
	switch cfg.Provider {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}

	archives := storage.NewArchiveStore(backend)
	if err := archives.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return archives, nil
}

func newBus(ctx context.Context, cfg config.MQConfig) (*mq.Bus, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("mq: %w", err)
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("mq: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq provider %q", cfg.Provider)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases shared resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
