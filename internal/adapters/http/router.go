package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shambasecure/auth-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for the auth and telemetry
// use-cases. Keeping only application dependencies here preserves clean
// adapter boundaries.
type Handler struct {
	auth    *application.AuthService
	sensors *application.SensorService
}

// NewHandler constructs an HTTP handler bound to the application services.
func NewHandler(auth *application.AuthService, sensors *application.SensorService) *Handler {
	return &Handler{auth: auth, sensors: sensors}
}

// NewRouter registers the HTTP routes and middleware stack. Centralizing
// routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler, frontendOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", handler.register)

			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Get("/profile", handler.profile)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/check-email", handler.checkEmail)
			r.Post("/send-magic-link", handler.sendMagicLink)
			r.Post("/verify-token", handler.verifyToken)
			r.Post("/verify-device", handler.verifyDevice)

			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Get("/me", handler.me)
				r.Get("/trusted-devices", handler.listTrustedDevices)
				r.Delete("/trusted-devices/{fingerprint}", handler.removeTrustedDevice)
				r.Get("/login-history", handler.loginHistory)
			})
		})

		r.Route("/sensors", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/latest", handler.sensorLatest)
			r.Get("/history", handler.sensorHistory)
			r.Get("/stats", handler.sensorStats)
		})
	})

	return r
}
