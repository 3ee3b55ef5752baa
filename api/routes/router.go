package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/janmanch/janmanch-backend/api/controllers"
	"github.com/janmanch/janmanch-backend/api/middleware"
	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/internal/constituency"
	"github.com/janmanch/janmanch-backend/internal/presence"
	"github.com/janmanch/janmanch-backend/internal/users"
	"github.com/janmanch/janmanch-backend/pkg/config"
	"github.com/janmanch/janmanch-backend/pkg/identity"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	verifier identity.TokenVerifier,
	readiness []controllers.Check,
	usersService users.Service,
	constituencyService constituency.Service,
	presenceService presence.Service,
	analyticsService analytics.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(verifier, logg))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.CreateUser(usersService, logg))
			r.Get("/", controllers.ListUsers(usersService, logg))
			r.Get("/me", controllers.GetMe(usersService, logg))
			r.Post("/check-credentials", controllers.CheckCredentials(usersService, logg))
			r.Get("/{userId}", controllers.GetUser(usersService, logg))
			r.Patch("/{userId}", controllers.UpdateUser(usersService, logg))
			r.Delete("/{userId}", controllers.DeleteUser(usersService, logg))
		})

		r.Route("/location", func(r chi.Router) {
			r.Post("/resolve", controllers.ResolveLocation(constituencyService, logg))
		})

		r.Route("/presence", func(r chi.Router) {
			r.Post("/connect", controllers.PresenceConnect(presenceService, logg))
			r.Post("/disconnect", controllers.PresenceDisconnect(presenceService, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/online", controllers.AnalyticsOnline(analyticsService, logg))
			r.Get("/accounts", controllers.AnalyticsAccounts(analyticsService, logg))
		})
	})

	return r
}
