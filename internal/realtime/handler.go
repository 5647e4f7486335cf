package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Handler upgrades /platform requests and attaches them to the router
type Handler struct {
	router   *Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. An empty origin list admits only
// requests without an Origin header; "*" admits any origin.
func NewHandler(router *Router, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "websocket")),
	}
}

// ServeHTTP handles GET /platform
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	client := NewClient(conn, h.router, h.logger)
	h.router.Connect(client, token)
	client.Start()

	h.logger.Info("websocket client connected",
		slog.String("conn_id", client.ID()),
		slog.Bool("resume", token != ""),
	)
}

// extractToken reads the resume token from the Authorization header, falling
// back to the token query parameter since browsers cannot set WebSocket headers
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Same-origin or non-browser clients
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
