package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/catalog"
	"github.com/frahmantamala/course-platform/internal/entitlement"
	"github.com/frahmantamala/course-platform/internal/favorite"
	"github.com/frahmantamala/course-platform/internal/promocode"
	"github.com/frahmantamala/course-platform/internal/transport/middleware"
	"github.com/frahmantamala/course-platform/internal/transport/swagger"
	"github.com/frahmantamala/course-platform/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Catalog     *catalog.Handler
	Favorite    *favorite.Handler
	Entitlement *entitlement.Handler
	PromoCode   *promocode.Handler
}

type Options struct {
	AllowedOrigins      string
	ActivationRateLimit *middleware.ActivationRateLimiter
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec at root, outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.RefreshToken)
			sr.Post("/logout", handlers.Auth.Logout)
		})

		// registration and the public catalog need no token
		r.Post("/users", handlers.User.Register)
		r.Get("/courses", handlers.Catalog.ListCourses)
		r.Get("/courses/{id}", handlers.Catalog.GetCourse)

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Get("/users/me", handlers.User.GetCurrentUser)
			pr.Get("/users/me/favorites", handlers.Favorite.ListFavorites)

			pr.Get("/courses/{id}/videos", handlers.Catalog.ListVideos)
			pr.Get("/courses/{id}/access", handlers.Entitlement.CheckAccess)
			pr.Post("/courses/{id}/favorite", handlers.Favorite.AddFavorite)
			pr.Delete("/courses/{id}/favorite", handlers.Favorite.RemoveFavorite)

			pr.Group(func(ar chi.Router) {
				if opts.ActivationRateLimit != nil {
					ar.Use(opts.ActivationRateLimit.Middleware)
				}
				ar.Post("/promocodes/activate", handlers.PromoCode.Activate)
			})

			// administrative surface
			pr.Route("/admin", func(am chi.Router) {
				am.Use(auth.RequireAdmin)

				am.Post("/courses", handlers.Catalog.CreateCourse)
				am.Patch("/courses/{id}", handlers.Catalog.UpdateCourse)
				am.Delete("/courses/{id}", handlers.Catalog.DeleteCourse)
				am.Post("/courses/{id}/videos", handlers.Catalog.AddVideo)
				am.Delete("/videos/{videoID}", handlers.Catalog.DeleteVideo)

				am.Post("/promocodes", handlers.PromoCode.CreatePromoCode)
				am.Get("/promocodes", handlers.PromoCode.ListPromoCodes)
				am.Get("/promocodes/{code}", handlers.PromoCode.GetPromoCode)
				am.Patch("/promocodes/{code}", handlers.PromoCode.UpdatePromoCode)
				am.Post("/promocodes/{code}/deactivate", handlers.PromoCode.DeactivatePromoCode)

				am.Post("/grants", handlers.Entitlement.GrantDirect)
			})
		})
	})
}
