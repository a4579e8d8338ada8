// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	_ "modulehub/docs" // swagger docs
	"modulehub/internal/billing"
	"modulehub/internal/bootstrap"
	"modulehub/internal/config"
	"modulehub/internal/featureflags"
	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/notifications"
	"modulehub/internal/repository"
	"modulehub/internal/service"
	"modulehub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Module names, used both as route prefixes under /modules and as MODULES flag keys.
const (
	ModuleCamera         = "camera"
	ModuleCorporateEvent = "corporate-event"
	ModuleChat           = "firebase-basic-chat"
	ModulePayments       = "payments"
	ModuleSocialFeed     = "social-feed"
)

var moduleNames = []string{ModuleCamera, ModuleCorporateEvent, ModuleChat, ModulePayments, ModuleSocialFeed}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	mediaStore     storage.MediaStore
	notifier       *notifications.Notifier
	chatHub        *notifications.Hub
	featureFlags   *featureflags.Manager
	authService    *service.AuthService
	cameraService  *service.CameraService
	paymentService *service.PaymentService
	feedService    *service.FeedService
	chatService    *service.ChatService
	eventService   *service.EventService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
// redisClient may be nil: caching, revocation and chat fan-out are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	userRepo := repository.NewUserRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("modulehub-api"),
		userRepo:       userRepo,
		mediaStore:     store,
		featureFlags:   featureflags.NewManager(cfg.Modules),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.chatHub = notifications.NewHub()
	}

	server.authService = service.NewAuthService(userRepo, redisClient, cfg.JWTSecret)
	server.cameraService = service.NewCameraService(repository.NewMediaRepository(db), store, cfg)
	server.paymentService = service.NewPaymentService(
		repository.NewPaymentRepository(db),
		userRepo,
		billing.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		billing.NewAppleVerifier(cfg.AppleProductVerifyURL, cfg.AppleReceiptVerifyURL, &http.Client{Timeout: 15 * time.Second}),
		cfg.ConnectedStripeAccountID,
	)
	server.feedService = service.NewFeedService(repository.NewPostRepository(db), userRepo, repository.NewFeedStores(db))
	server.chatService = service.NewChatService(repository.NewChatRepository(db), userRepo, server.notifier)
	server.eventService = service.NewEventService(repository.NewEventRepository(db), userRepo)

	return server, nil
}

// SetupMiddleware installs the global middleware chain. CORS runs before
// the limiter so rejected requests still carry CORS headers.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(), requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(
		helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}),
		middleware.StructuredLogger(),
		cors.New(s.corsConfig()),
		limiter.New(limiter.Config{
			Max:          globalRequestsPerMinute,
			Expiration:   time.Minute,
			Next:         skipGlobalLimit,
			KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests, please try again later.",
				})
			},
		}),
	)
}

const (
	globalRequestsPerMinute = 100
	defaultOrigins          = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	allowedHeaders          = "Origin, Content-Type, Accept, Authorization, Stripe-Signature, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version"
)

func (s *Server) corsConfig() cors.Config {
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     allowedHeaders,
		AllowCredentials: origins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	}
}

// skipGlobalLimit exempts preflight requests and provider callbacks.
func skipGlobalLimit(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodOptions || strings.HasSuffix(c.Path(), "/stripe_webhook")
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "modulehub Metrics Dashboard"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)

	if s.mediaStore != nil && s.mediaStore.Name() == storage.BackendLocal && strings.HasPrefix(s.config.MediaBaseURL, "/") {
		app.Static(s.config.MediaBaseURL, s.config.MediaUploadDir, fiber.Static{MaxAge: 3600})
	}

	modules := app.Group("/modules")
	s.mount(modules, ModuleCamera, s.cameraRoutes)
	s.mount(modules, ModuleCorporateEvent, s.corporateEventRoutes)
	s.mount(modules, ModuleChat, s.chatRoutes)
	s.mount(modules, ModulePayments, s.paymentRoutes)
	s.mount(modules, ModuleSocialFeed, s.socialFeedRoutes)
}

// mount registers a module's routes under /modules/<name> unless MODULES switches it off.
func (s *Server) mount(parent fiber.Router, name string, register func(fiber.Router)) {
	if !s.featureFlags.Mounted(name) {
		middleware.Logger.Info("module disabled", "module", name)
		return
	}
	register(parent.Group("/"+name, middleware.ModuleContext(name), s.moduleGate(name)))
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := s.config.MediaMaxUploadMB
	if bodyLimit <= 0 {
		bodyLimit = service.DefaultMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:   "modulehub",
		BodyLimit: (bodyLimit + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
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

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.chatHub != nil {
		go func() {
			if err := s.chatHub.Subscribe(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.chatHub.Name(), "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.chatHub != nil {
		if err := s.chatHub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", s.chatHub.Name(), "error", err)
		}
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

	middleware.Logger.Info("server shutdown complete")
	return nil
}
