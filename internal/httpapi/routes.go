package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/auth"
	"github.com/DoyleJ11/blackjack-backend/internal/hub"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	Store    store.Store
	Verifier *auth.Verifier
	Logger   *zap.Logger
	WS       ws.Config
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/tables", ListTables(d.Hub, d.Logger))
	r.Get("/tables/{id}", GetTable(d.Store))
	// The socket checks its own token; browsers cannot set headers on it.
	r.Get("/ws", ws.Handler(d.Hub, d.Verifier, d.WS))

	r.Group(func(r chi.Router) {
		r.Use(d.Verifier.Middleware)
		r.Post("/tables", CreateTable(d.Store, d.Logger))
		r.Get("/me", Me(d.Store))
	})
	return r
}
