package router

import (
	"net/http"
	"time"

	"loyalty-wallet/internal/handler"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler      *handler.Handler
	CardHandler  *handler.CardHandler
	SyncHandler  *handler.SyncHandler
	AuthHandler  *handler.AuthHandler
	AdminHandler *handler.AdminHandler
	EventHandler *handler.EventHandler

	SessionMiddleware func(http.Handler) http.Handler
	ServiceWorker     http.HandlerFunc
	StaticDir         string
	SignInRateLimit   int
	Logger            *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	logger := logging.OrNop(cfg.Logger)
	session := cfg.SessionMiddleware
	if session == nil {
		session = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Payload-Class", "X-Renderer-Format"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// Offline shell
	if cfg.ServiceWorker != nil {
		r.Get("/service-worker.js", cfg.ServiceWorker)
	}
	if cfg.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		r.Get("/manifest.json", fileServer.ServeHTTP)
		r.Get("/icons/*", fileServer.ServeHTTP)
		r.Get("/", fileServer.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					if cfg.SignInRateLimit > 0 {
						r.Use(httprate.LimitByIP(cfg.SignInRateLimit, 1*time.Minute))
					}
					r.Post("/sign-in", cfg.AuthHandler.SignIn)
					r.Post("/verify", cfg.AuthHandler.Verify)
				})
				r.With(session).Post("/sign-out", cfg.AuthHandler.SignOut)
			})
		}

		// Card routes work without a session
		if cfg.CardHandler != nil {
			r.Route("/cards", func(r chi.Router) {
				r.Get("/", cfg.CardHandler.List)
				r.Post("/", cfg.CardHandler.Create)
				r.Post("/scan", cfg.CardHandler.Scan)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.CardHandler.Get)
					r.Delete("/", cfg.CardHandler.Delete)
					r.Get("/code.png", cfg.CardHandler.Code)
				})
			})
		}

		if cfg.SyncHandler != nil {
			r.Route("/sync", func(r chi.Router) {
				r.Use(session)
				r.Use(middleware.RequireIdentity)
				r.Post("/", cfg.SyncHandler.Run)
				r.Get("/status", cfg.SyncHandler.Status)
			})
		}

		if cfg.EventHandler != nil {
			r.With(session, middleware.RequireIdentity).Get("/events", cfg.EventHandler.Stream)
		}

		if cfg.AdminHandler != nil {
			r.Get("/admin/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}
