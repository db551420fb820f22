package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydroman/server/internal/auth"
	"github.com/hydroman/server/internal/http/handlers"
	"github.com/hydroman/server/internal/metrics"
	"github.com/hydroman/server/internal/middleware"
)

// Handlers groups the per-resource handlers the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	WaterLogs *handlers.WaterLogHandler
	Reminders *handlers.ReminderHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, jwtService *auth.JWTService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.NewHTTPMiddleware().Handler)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/send-otp", h.Auth.HandleSendOTP)
		r.Post("/verify-otp", h.Auth.HandleVerifyOTP)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtService))
			r.Get("/me", h.Auth.HandleMe)
		})
	})

	// Protected routes (require valid session credential)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtService))

		r.Get("/profile", h.Profile.HandleGet)
		r.Put("/profile", h.Profile.HandleUpdate)

		r.Get("/reminders", h.Reminders.HandleList)
		r.Post("/reminders/sync", h.Reminders.HandleSync)

		r.Get("/water-logs", h.WaterLogs.HandleList)
		r.Post("/water-logs/sync", h.WaterLogs.HandleSync)
		r.Delete("/water-logs/{id}", h.WaterLogs.HandleDelete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}`))
	})

	return r
}
