package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/partyhub/internal/api/request"
	"github.com/mcoot/partyhub/internal/api/response"
	"github.com/mcoot/partyhub/internal/model"
)

// JoinTokenValidator checks a game-join token
type JoinTokenValidator interface {
	ValidateJoinToken(ctx context.Context, token string) (*model.Credential, error)
}

// JoinTokenHandler lets game servers exchange a join token for the
// party, player and session it was minted for
type JoinTokenHandler struct {
	validator JoinTokenValidator
	logger    *slog.Logger
}

// NewJoinTokenHandler creates a new join token handler
func NewJoinTokenHandler(validator JoinTokenValidator, logger *slog.Logger) *JoinTokenHandler {
	return &JoinTokenHandler{
		validator: validator,
		logger:    logger,
	}
}

// Validate handles POST /api/v1/games/join-token/validate
func (h *JoinTokenHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateJoinTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		WriteError(w, NewInvalidRequestError("token is required"))
		return
	}

	cred, err := h.validator.ValidateJoinToken(r.Context(), req.Token)
	if err != nil {
		h.logger.Info("join token rejected", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinTokenValidationFromModel(cred))
}
