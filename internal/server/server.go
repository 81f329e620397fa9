// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"threads/internal/bootstrap"
	"threads/internal/cache"
	"threads/internal/config"
	"threads/internal/database"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/notifications"
	"threads/internal/repository"
	"threads/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	handle           *database.Handle
	store            *repository.Store
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	shutdownCtx      context.Context
	shutdownFn       context.CancelFunc
	auth             *middleware.JWTAuth
	notifier         *notifications.Notifier
	threadService    *service.ThreadService
	userService      *service.UserService
	communityService *service.CommunityService
}

// NewServer connects to the store and Redis and creates a server over them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.Handle, rt.Store, rt.Redis)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; reads are then uncached and revalidation is logged only.
func NewServerWithDeps(cfg *config.Config, h *database.Handle, store *repository.Store, redisClient *redis.Client) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}

	viewCache := cache.New(redisClient, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second)
	notifier := notifications.NewNotifier(redisClient)
	revalidator := notifications.NewPathRevalidator(viewCache, notifier)

	server := &Server{
		config:         cfg,
		handle:         h,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("threads-api"),
		auth:           middleware.NewJWTAuth(cfg),
		notifier:       notifier,
	}
	server.threadService = service.NewThreadService(store, viewCache, revalidator)
	server.userService = service.NewUserService(store, revalidator, cfg.ImageHosts())
	server.communityService = service.NewCommunityService(store, revalidator, cfg.ImageHosts())

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// propagate request id into the user context for logging
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	authed := s.auth.Required

	threads := api.Group("/threads")
	threads.Get("/", s.GetThreads)
	threads.Post("/", authed, middleware.RateLimit(s.redis, 10, time.Minute, "create_thread"), s.CreateThread)
	threads.Post("/:id/comments", authed, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	threads.Get("/:id", s.GetThread)
	threads.Delete("/:id", authed, s.DeleteThread)

	// /me and the list route before the generic /:id routes
	users := api.Group("/users")
	users.Get("/", authed, s.GetUsers)
	users.Get("/me", authed, s.GetMyProfile)
	users.Put("/me", authed, middleware.RateLimit(s.redis, 10, time.Minute, "update_user"), s.UpdateMyProfile)
	users.Get("/:id/threads", s.GetUserThreads)
	users.Get("/:id/activity", authed, s.GetUserActivity)
	users.Get("/:id", s.GetUserProfile)

	communities := api.Group("/communities")
	communities.Get("/", s.GetCommunities)
	communities.Post("/", authed, middleware.RateLimit(s.redis, 5, time.Minute, "upsert_community"), s.UpsertCommunity)
	communities.Get("/:id/threads", s.GetCommunityThreads)
	communities.Post("/:id/members", authed, s.JoinCommunity)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; only a
// configured Redis that fails its ping makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	switch {
	case s.handle.Disabled():
		storeStatus = "disabled"
	case s.handle.Ping(ctx) != nil:
		storeStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "disabled"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	kind := database.KindDisabled
	if s.handle != nil {
		kind = s.handle.Kind
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store":  storeStatus,
			"redis":  redisStatus,
			"driver": string(kind),
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Threads API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// other instances publish revalidations too; log them for visibility
	if s.redis != nil {
		err := s.notifier.StartRevalidationSubscriber(s.shutdownCtx, func(r notifications.Revalidation) {
			middleware.Logger.Debug("path revalidated", slog.String("path", r.Path), slog.Time("at", r.At))
		})
		if err != nil {
			middleware.Logger.Warn("failed to subscribe to revalidations", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info(fmt.Sprintf("Server starting on port %s...", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.handle != nil {
		if err := s.handle.Close(ctx); err != nil {
			middleware.Logger.Error("error closing store", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
