package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isdelr/userdir/internal/api/handlers"
	"github.com/isdelr/userdir/internal/api/respond"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/services"
	"github.com/isdelr/userdir/internal/websocket"
)

// Options tunes the router.
type Options struct {
	AllowedOrigins []string
	// Registry receives the request metrics and backs GET /metrics. Nil disables both.
	Registry *prometheus.Registry
}

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, userService services.UserServiceProvider, eventService services.EventServiceProvider, verifier auth.TokenVerifier, opts Options) *chi.Mux {
	r := chi.NewRouter()

	var metrics *Metrics
	if opts.Registry != nil {
		metrics = NewMetrics(opts.Registry)
	}

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument(metrics))
	r.Use(recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	eventHandler := handlers.NewEventHandler(eventService, hub, opts.AllowedOrigins)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, respond.Envelope{Status: "success", Message: "ok"})
	})
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.Gate(verifier, respond.GateError))
		r.Get("/", userHandler.GetAll)
		r.Post("/", userHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.Get)
			r.Put("/", userHandler.Update)
			r.Delete("/", userHandler.Delete)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Use(auth.Gate(verifier, respond.GateError))
		r.Get("/", eventHandler.GetRecent)
		r.Get("/stream", eventHandler.Stream)
	})

	return r
}
