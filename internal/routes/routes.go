package routes

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/rooklabs/marquee/internal/auth"
	"github.com/rooklabs/marquee/internal/handlers"
	"github.com/rooklabs/marquee/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	movieHandler *handlers.MovieHandler,
	uploadHandler *handlers.UploadHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes
	router.Get("/health", healthHandler.Health)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/signin", authHandler.SignIn)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/users", userHandler.Create)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Get("/users/{id}", userHandler.GetByID)

		r.Route("/movies", func(r chi.Router) {
			r.Post("/", movieHandler.Create)
			r.Get("/", movieHandler.List)
			r.Get("/stats", movieHandler.GetStats)
			r.Get("/{id}", movieHandler.GetByID)
			r.Put("/{id}", movieHandler.Update)
			r.Delete("/{id}", movieHandler.Delete)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", uploadHandler.Upload)
			r.Get("/presign", uploadHandler.PresignDownload)
			r.Delete("/", uploadHandler.Delete)
		})
	})
}
