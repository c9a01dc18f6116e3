// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	_ "dajtovon/docs" // swagger docs
	"dajtovon/internal/bootstrap"
	"dajtovon/internal/config"
	"dajtovon/internal/database"
	"dajtovon/internal/mail"
	"dajtovon/internal/middleware"
	"dajtovon/internal/models"
	"dajtovon/internal/notifications"
	"dajtovon/internal/ratelimit"
	"dajtovon/internal/repository"
	"dajtovon/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const retentionInterval = time.Hour

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	limiter  *ratelimit.Limiter
	policies map[string]ratelimit.Policy

	registry   *notifications.Registry
	dispatcher *notifications.Dispatcher

	userRepo         repository.UserRepository
	contentRepo      repository.ContentRepository
	commentRepo      repository.CommentRepository
	reactionRepo     repository.ReactionRepository
	notificationRepo repository.NotificationRepository

	reactionService     *service.ReactionService
	notificationService *service.NotificationService
	contentService      *service.ContentService
	commentService      *service.CommentService
	contactService      *service.ContactService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("dajtovon-api"),
		limiter:        ratelimit.New(ratelimit.WithIdleMultiple(cfg.RateLimitIdleMultiple)),
		policies:       cfg.RateLimitPolicies(),
		registry:       notifications.NewRegistry(cfg.WSMaxConnsPerUser),

		userRepo:         repository.NewUserRepository(db),
		contentRepo:      repository.NewContentRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		reactionRepo:     repository.NewReactionRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}
	s.dispatcher = notifications.NewDispatcher(s.registry, middleware.ParseToken)

	timeout := cfg.StoreTimeout()
	contentLocks := service.NewKeyedMutex()
	s.notificationService = service.NewNotificationService(
		s.notificationRepo, s.registry, timeout, cfg.NotificationDefaultLimit)
	s.reactionService = service.NewReactionService(
		s.contentRepo, s.commentRepo, s.reactionRepo, s.notificationService, contentLocks, timeout)
	s.contentService = service.NewContentService(
		s.contentRepo, s.commentRepo, s.reactionRepo, contentLocks, timeout, cfg.StatsCacheTTL())
	s.commentService = service.NewCommentService(
		s.commentRepo, s.contentRepo, s.notificationService, contentLocks, timeout)
	s.contactService = service.NewContactService(
		s.userRepo, s.contentRepo, mail.NewSender(cfg.MailWebhookURL), cfg.MailFrom, cfg.MailTo, timeout)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span; must run before ContextMiddleware picks up the trace ID.
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the per-route limiters so 429s still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining, X-Trace-ID",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))
}

// limit applies the named limiter policy keyed by key.
func (s *Server) limit(policy string, key middleware.KeyFunc) fiber.Handler {
	return middleware.SlidingWindow(s.limiter, s.policies[policy], key)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "dajtovon API Metrics",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", s.limit(config.PolicyAuth, middleware.ByClientIP), s.Signup)
	auth.Post("/login", s.limit(config.PolicyAuth, middleware.ByClientIP), s.Login)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	// Contact page is anonymous and throttled per client address.
	api.Post("/contact", s.limit(config.PolicyContactPage, middleware.ByClientIP), s.ContactPage)

	reactionLimit := s.limit(config.PolicyReaction, middleware.ByIdentity)

	// Content routes
	content := api.Group("/content")
	content.Get("/", s.ListContent)
	content.Post("/", middleware.AuthRequired, s.CreateContent)
	content.Get("/mine", middleware.AuthRequired, s.ListMyContent)
	content.Get("/:id", s.GetContent)
	content.Put("/:id", middleware.AuthRequired, s.UpdateContent)
	content.Delete("/:id", middleware.AuthRequired, s.DeleteContent)
	content.Post("/:id/view", s.RecordView)
	content.Get("/:id/stats", middleware.AuthOptional, s.GetContentStats)
	content.Post("/:id/contact-author", middleware.AuthRequired,
		s.limit(config.PolicyContactAuthor, middleware.ByParamAndIdentity("id")), s.ContactAuthor)
	content.Get("/:id/reactions", s.ContentReactions)
	for _, action := range []string{"like", "dislike", "neutral"} {
		content.Post("/:id/"+action, middleware.AuthRequired, reactionLimit, s.ReactToContent(action))
	}

	// Comment routes
	content.Get("/:id/comments", s.ListComments)
	content.Post("/:id/comments", middleware.AuthRequired,
		s.limit(config.PolicyComment, middleware.ByIdentity), s.CreateComment)
	content.Put("/:id/comments/:commentId", middleware.AuthRequired, s.UpdateComment)
	content.Delete("/:id/comments/:commentId", middleware.AuthRequired, s.DeleteComment)
	content.Get("/:id/comments/:commentId/reactions", s.CommentReactions)
	for _, action := range []string{"like", "dislike", "neutral"} {
		content.Post("/:id/comments/:commentId/"+action, middleware.AuthRequired, reactionLimit, s.ReactToComment(action))
	}

	// Notification routes
	notificationRoutes := api.Group("/notifications", middleware.AuthRequired)
	notificationRoutes.Get("/", s.ListNotifications)
	notificationRoutes.Get("/unread-count", s.UnreadNotificationCount)
	notificationRoutes.Post("/read-all", s.MarkAllNotificationsRead)
	notificationRoutes.Post("/:id/read", s.MarkNotificationRead)

	// WebSocket routes
	api.Post("/ws/ticket", middleware.AuthRequired, s.IssueWSTicket)
	api.Get("/ws", s.WebSocketUpgrade, s.WebSocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs the cache and tickets, so its absence degrades but does not fail readiness.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"connections": s.registry.Count(),
		"time":        time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "dajtovon API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the background jobs and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	s.limiter.StartSweeper(ctx, s.config.RateLimitSweepInterval())
	s.notificationService.StartRetention(ctx, s.config.NotificationRetention(), retentionInterval)

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the sweeper and retention jobs.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close WebSocket connections gracefully
	if err := s.registry.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error closing live connections", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
