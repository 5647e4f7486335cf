package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyhub/internal/api/response"
	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/games"
)

// GameHandler serves the game catalog
type GameHandler struct {
	registry *games.Registry
}

// NewGameHandler creates a new game handler
func NewGameHandler(registry *games.Registry) *GameHandler {
	return &GameHandler{registry: registry}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.GameListFromModel(h.registry.All()))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	def, err := h.registry.Get(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(def))
}
