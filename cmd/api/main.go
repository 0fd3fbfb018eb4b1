package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	_ "github.com/rooklabs/marquee/docs"
	"github.com/rooklabs/marquee/internal/auth"
	"github.com/rooklabs/marquee/internal/background"
	"github.com/rooklabs/marquee/internal/config"
	"github.com/rooklabs/marquee/internal/database"
	"github.com/rooklabs/marquee/internal/handlers"
	middlewareCustom "github.com/rooklabs/marquee/internal/middleware"
	"github.com/rooklabs/marquee/internal/repositories"
	"github.com/rooklabs/marquee/internal/routes"
	"github.com/rooklabs/marquee/internal/services"
	pkglogger "github.com/rooklabs/marquee/pkg/logger"
)

// @title Marquee API
// @version 1.0
// @description Movie catalog service with release notifications.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	movieRepo := repositories.NewMovieRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	uploadService, err := services.NewS3UploadService(
		cfg.Storage.AWSRegion, cfg.Storage.Bucket, cfg.Storage.PresignExpiry, logger)
	if err != nil {
		logger.Error("failed to initialize upload service", slog.Any("error", err))
		os.Exit(1)
	}

	// Services
	authService := services.NewAuthService(
		userRepo,
		loginAttemptRepo,
		tokenManager,
		services.ThrottleConfig{
			MaxRetries:      cfg.Auth.MaxLoginRetries,
			LockoutDuration: cfg.Auth.LockoutDuration,
		},
		logger,
		auditLogger,
	)
	userService := services.NewUserService(userRepo, logger)
	movieService := services.NewMovieService(movieRepo, logger)

	notifier := background.NewNotifier(movieRepo, userRepo, emailService, cfg.Notify, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	movieHandler := handlers.NewMovieHandler(movieService)
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg.Storage.MaxUploadSize)
	healthHandler := handlers.NewHealthHandler(db)

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router,
		authHandler, userHandler, movieHandler, uploadHandler, healthHandler,
		tokenManager)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	notifierCtx, notifierCancel := context.WithCancel(context.Background())
	defer notifierCancel()

	go notifier.Start(notifierCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	notifierCancel()
	notifier.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
