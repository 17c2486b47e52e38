package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/mail"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FlagContactForm switches the contact endpoints on and off.
const FlagContactForm = "contact_form"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *middleware.Authenticator
	featureFlags   *featureflags.Manager
	images         *storage.ImageStore

	listing   *service.ListingService
	authoring *service.AuthoringService
	follows   *service.FollowService
	profiles  *service.ProfileService
	groups    *service.GroupService
	users     *service.UserService
	contact   *service.ContactService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting and token revocation are
// then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	followRepo := repository.NewFollowRepository(db)

	var indexCache *cache.PageCache
	if redisClient != nil && cfg.IndexCacheTTL > 0 {
		indexCache = cache.NewPageCache(redisClient, "index", cfg.IndexCacheTTL)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		images:         storage.NewImageStore(cfg),
	}
	s.listing = service.NewListingService(postRepo, indexCache)
	s.authoring = service.NewAuthoringService(postRepo, commentRepo, groupRepo, s.images)
	s.follows = service.NewFollowService(userRepo, followRepo, s.listing)
	s.profiles = service.NewProfileService(userRepo, s.listing, s.follows)
	s.groups = service.NewGroupService(groupRepo, s.listing)
	s.users = service.NewUserService(userRepo)
	s.contact = service.NewContactService(userRepo, mail.NewSender(cfg), cfg.ContactRecipient)

	return s, nil
}

// UseMailSender replaces the outbound mail transport.
func (s *Server) UseMailSender(sender mail.Sender) {
	s.contact = service.NewContactService(repository.NewUserRepository(s.db), sender, s.config.ContactRecipient)
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	maxMB := s.config.ImageMaxUploadSizeMB
	if maxMB <= 0 {
		maxMB = storage.DefaultMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:   "inkwell",
		BodyLimit: (maxMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

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
	app.Get("/api/swagger/*", swagger.HandlerDefault)
	app.Static("/media", s.images.Root())

	required := s.auth.Required()
	optional := s.auth.Optional()

	auth := app.Group("/auth")
	auth.Post("/signup/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout/", required, s.Logout)

	app.Get("/", s.Index)
	app.Get("/groups/", s.ListGroups)
	app.Get("/group/:slug/", s.GroupPosts)

	app.Get("/follow/", required, s.FollowIndex)
	app.Get("/feature-flags/", required, s.GetFeatureFlags)

	app.Post("/create/", required,
		middleware.RateLimit(s.redis, 5, time.Minute, "create_post"), s.CreatePost)

	posts := app.Group("/posts/:id")
	posts.Get("/", optional, s.PostDetail)
	posts.Post("/edit/", required, s.EditPost)
	posts.Post("/delete/", required, s.DeletePost)
	posts.Post("/comment/", required,
		middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.AddComment)

	profile := app.Group("/profile/:username")
	profile.Get("/", optional, s.Profile)
	profile.Add(fiber.MethodGet, "/follow/", required, s.ProfileFollow)
	profile.Add(fiber.MethodPost, "/follow/", required, s.ProfileFollow)
	profile.Add(fiber.MethodGet, "/unfollow/", required, s.ProfileUnfollow)
	profile.Add(fiber.MethodPost, "/unfollow/", required, s.ProfileUnfollow)

	contact := app.Group("/contact")
	contact.Get("/", required, s.contactEnabled, s.ContactForm)
	contact.Post("/", required, s.contactEnabled,
		middleware.RateLimit(s.redis, 3, 10*time.Minute, "contact"), s.SendContact)
	contact.Get("/success", optional, s.contactEnabled, s.ContactSuccess)

	app.Use(s.NotFound)
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound, &models.AppError{
		Code:    models.CodeNotFound,
		Message: "Page not found",
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: an
// unconfigured client is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
