package response

import (
	"time"

	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/games"
)

// Game represents a registered game in API responses
type Game struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MinPlayers  int      `json:"minPlayers"`
	MaxPlayers  int      `json:"maxPlayers"`
	Roles       []string `json:"roles,omitempty"`
	WSNamespace string   `json:"wsNamespace"`
}

// GameFromModel converts a model.GameDefinition
func GameFromModel(d model.GameDefinition) Game {
	return Game{
		ID:          string(d.ID),
		Name:        d.Name,
		MinPlayers:  d.MinPlayers,
		MaxPlayers:  d.MaxPlayers,
		Roles:       d.Roles,
		WSNamespace: games.Namespace(d.ID),
	}
}

// GameList is the response for GET /api/v1/games
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModel converts registry definitions, never returning a nil slice
func GameListFromModel(defs []model.GameDefinition) GameList {
	list := GameList{Games: make([]Game, len(defs))}
	for i, d := range defs {
		list.Games[i] = GameFromModel(d)
	}
	return list
}

// Health is the response for GET /api/v1/health
type Health struct {
	Status      string `json:"status"`
	Parties     int    `json:"parties"`
	Connections int    `json:"connections"`
}

// JoinTokenValidation is the identity behind a valid join token
type JoinTokenValidation struct {
	PartyID   string `json:"partyId"`
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
	ExpiresAt string `json:"expiresAt"`
}

// JoinTokenValidationFromModel converts a game-join credential
func JoinTokenValidationFromModel(c *model.Credential) JoinTokenValidation {
	return JoinTokenValidation{
		PartyID:   string(c.PartyID),
		PlayerID:  string(c.PlayerID),
		SessionID: string(c.SessionID),
		ExpiresAt: c.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
