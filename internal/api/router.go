package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Auth           *Authenticator
	Metrics        *Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	StaticDir      string // served at / when it exists
}

// NewRouter creates a new Chi router and registers the cashcanvas routes.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)

		r.Post("/link/token", h.handleCreateLinkToken)
		r.Post("/link/exchange", h.handleExchangePublicToken)

		r.Get("/items", h.handleListItems)
		r.Delete("/items/{id}", h.handleUnlinkItem)

		r.Get("/accounts", h.handleAccounts)
		r.Get("/transactions", h.handleTransactions)
		r.Get("/spending", h.handleSpending)

		r.Get("/stats", h.handleGetStats)
		r.Put("/stats", h.handleUpdateStats)
		r.Post("/stats/increment", h.handleIncrementCounter)
	})

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
