package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyhub/internal/api/handler"
	"github.com/mcoot/partyhub/internal/api/middleware"
	"github.com/mcoot/partyhub/internal/realtime"
	"github.com/mcoot/partyhub/internal/services/games"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Parties  handler.PartyCounter
	Registry *games.Registry
	Realtime *realtime.Router
	// AllowedOrigins is passed to the /platform upgrader
	AllowedOrigins []string
}

// NewRouter creates the HTTP router: the JSON API under /api/v1 and the
// party WebSocket endpoint at /platform
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Parties, cfg.Realtime, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.Registry)
	joinTokenHandler := handler.NewJoinTokenHandler(cfg.Realtime, cfg.Logger)
	platformHandler := realtime.NewHandler(cfg.Realtime, cfg.AllowedOrigins, cfg.Logger)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Game catalog
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/join-token/validate", joinTokenHandler.Validate).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)

	// WebSocket endpoint. The logging writer implements http.Hijacker.
	r.Handle("/platform", recoveryMiddleware(loggingMiddleware(platformHandler))).Methods(http.MethodGet)

	return r
}
