package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/tnp-portal/apiserver/config"
	"github.com/tnp-portal/apiserver/internal/db"
	"github.com/tnp-portal/apiserver/internal/handlers"
	"github.com/tnp-portal/apiserver/internal/mq"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/internal/storage"
	"github.com/tnp-portal/apiserver/internal/store"
)

// Server wraps the HTTP server and its external clients.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	redis      *redis.Client
	broker     *mq.MQ
}

// New opens the external clients, wires the service graph and builds
// the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	userRepo := store.NewUserRepository(dbConn)
	jobRepo := store.NewJobRepository(dbConn)
	appRepo := store.NewApplicationRepository(dbConn)
	notificationRepo := store.NewNotificationRepository(dbConn)
	collegeRepo := store.NewCollegeRepository(dbConn)
	activityRepo := store.NewActivityRepository(dbConn)

	notificationService := services.NewNotificationService(notificationRepo, broker)
	activityService := services.NewActivityService(activityRepo)
	userService := services.NewUserService(userRepo, notificationService, activityService)
	jobService := services.NewJobService(jobRepo, appRepo, notificationService, activityService)
	applicationService := services.NewApplicationService(appRepo, jobRepo, userService, notificationService, activityService)
	dashboardService := services.NewDashboardService(userRepo, jobRepo, appRepo)
	collegeService := services.NewCollegeService(collegeRepo)
	uploadService := services.NewUploadService(objectStore, cfg.Uploads)

	authenticator := handlers.NewAuthenticator(userService, cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authHandler := handlers.NewAuthHandler(userService, activityService, authenticator)
	userHandler := handlers.NewUserHandler(userService, uploadService)
	jobHandler := handlers.NewJobHandler(jobService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, uploadService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	collegeHandler := handlers.NewCollegeHandler(collegeService)
	analyticsHandler := handlers.NewAnalyticsHandler(dashboardService, activityService)

	authLimiter := handlers.NewRateLimiter(redisClient, "auth", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			handlers.AuthRouter(r, authHandler)
		})
		api.Route("/colleges", func(r chi.Router) {
			handlers.CollegeRouter(r, collegeHandler)
		})
		api.Group(func(r chi.Router) {
			r.Use(authenticator.RequireAuth)
			r.Route("/users", func(r chi.Router) {
				handlers.UserRouter(r, userHandler)
			})
			r.Route("/jobs", func(r chi.Router) {
				handlers.JobRouter(r, jobHandler, applicationHandler)
			})
			r.Route("/applications", func(r chi.Router) {
				handlers.ApplicationRouter(r, applicationHandler)
			})
			r.Route("/notifications", func(r chi.Router) {
				handlers.NotificationRouter(r, notificationHandler)
			})
			r.Route("/analytics", func(r chi.Router) {
				handlers.AnalyticsRouter(r, analyticsHandler)
			})
		})
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
		redis:      redisClient,
		broker:     broker,
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newBroker returns nil when no broker is configured; notification
// events are then only written to the database.
func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQ.Backend {
	case "":
		log.Println("no message broker configured, event publishing disabled")
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the external clients and stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
