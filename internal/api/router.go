package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/modd3/ai-prompt-builder/internal/api/handler"
	"github.com/modd3/ai-prompt-builder/internal/api/middleware"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
	"github.com/modd3/ai-prompt-builder/internal/core/service"
	catalogmongo "github.com/modd3/ai-prompt-builder/internal/infrastructure/db/mongo"
	catalogredis "github.com/modd3/ai-prompt-builder/internal/infrastructure/db/redis"
)

// Options carries the router's dependencies and settings.
type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Reconciler ports.BackrefEnqueuer
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("promptshare"))

	// --- Dependencies ---
	promptRepo := catalogmongo.NewPromptRepository(db)
	userRepo := catalogmongo.NewUserRepository(db)
	tagCache := catalogredis.NewTagCache(rdb)

	catalogService := service.NewCatalogService(promptRepo, userRepo, opts.Reconciler, tagCache, opts.Logger)
	ratingService := service.NewRatingService(promptRepo, opts.Logger)
	authService := service.NewAuthService(userRepo, opts.JWTSecret, opts.TokenTTL)

	promptHandler := handler.NewPromptHandler(catalogService, ratingService)
	authHandler := handler.NewAuthHandler(authService)

	requireAuth := middleware.Auth(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuth(opts.JWTSecret)

	// --- Auth routes ---
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)
	e.GET("/api/auth/me", authHandler.Me, requireAuth)

	// --- Catalog routes ---
	prompts := e.Group("/api/prompts")
	prompts.GET("", promptHandler.List, optionalAuth)
	prompts.POST("", promptHandler.Create, requireAuth)
	prompts.GET("/tags", promptHandler.Tags)
	prompts.GET("/mine", promptHandler.Mine, requireAuth)
	prompts.GET("/:id", promptHandler.Get, optionalAuth)
	prompts.PUT("/:id", promptHandler.Update, requireAuth)
	prompts.DELETE("/:id", promptHandler.Delete, requireAuth)
	prompts.POST("/:id/rate", promptHandler.Rate, requireAuth)

	// --- Ops surface ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness)  // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
