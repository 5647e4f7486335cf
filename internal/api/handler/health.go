package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/partyhub/internal/api/response"
)

// PartyCounter reports how many parties are live
type PartyCounter interface {
	CountParties(ctx context.Context) (int, error)
}

// ConnectionCounter reports how many realtime connections are open
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	parties     PartyCounter
	connections ConnectionCounter
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(parties PartyCounter, connections ConnectionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		parties:     parties,
		connections: connections,
		logger:      logger,
	}
}

// Get handles GET /api/v1/health. A failing party count degrades the
// status instead of failing the probe.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok"}

	count, err := h.parties.CountParties(r.Context())
	if err != nil {
		h.logger.Warn("health: count parties failed", slog.String("error", err.Error()))
		resp.Status = "degraded"
	}
	resp.Parties = count
	resp.Connections = h.connections.ConnectionCount()

	response.JSON(w, http.StatusOK, resp)
}
