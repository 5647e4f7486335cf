package realtime

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/partyhub/internal/model"
)

// Client to server events
const (
	EventCreate     = "party:create"
	EventJoin       = "party:join"
	EventLeave      = "party:leave"
	EventSetRole    = "party:setRole"
	EventSelectGame = "party:selectGame"
	EventStart      = "party:start"
)

// Server to client events
const (
	EventJoined      = "party:joined"
	EventState       = "party:state"
	EventError       = "party:error"
	EventGameStarted = "party:gameStarted"
)

// Error codes sent in party:error
const (
	CodeCreateFailed     = "CREATE_FAILED"
	CodeJoinFailed       = "JOIN_FAILED"
	CodeNotInParty       = "NOT_IN_PARTY"
	CodeSetRoleFailed    = "SET_ROLE_FAILED"
	CodeSelectGameFailed = "SELECT_GAME_FAILED"
	CodeStartFailed      = "START_FAILED"
	CodeInvalidMessage   = "INVALID_MESSAGE"
)

// MaxNameLength is the longest player name accepted, in characters
const MaxNameLength = 50

// Envelope is the JSON frame exchanged in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps a payload in an envelope
func Encode(eventType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// Decode parses an inbound frame
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, model.NewValidationError("envelope", "malformed JSON")
	}
	if env.Type == "" {
		return Envelope{}, model.NewValidationError("type", "is required")
	}
	return env, nil
}

// Requests

// CreateRequest is a validated party:create payload
type CreateRequest struct {
	Name   string
	GameID *model.GameID
}

// JoinRequest is a validated party:join payload
type JoinRequest struct {
	PartyID model.PartyID
	Name    string
}

// SetRoleRequest is a validated party:setRole payload. A nil Role clears the role.
type SetRoleRequest struct {
	PlayerID model.PlayerID
	Role     *string
}

// SelectGameRequest is a validated party:selectGame payload
type SelectGameRequest struct {
	GameID model.GameID
}

// ParseCreate validates a party:create payload
func ParseCreate(raw json.RawMessage) (CreateRequest, error) {
	var p struct {
		Name   string  `json:"name"`
		GameID *string `json:"gameId"`
	}
	if err := unmarshalPayload(raw, &p); err != nil {
		return CreateRequest{}, err
	}

	name, err := validateName(p.Name)
	if err != nil {
		return CreateRequest{}, err
	}

	req := CreateRequest{Name: name}
	if p.GameID != nil {
		if *p.GameID == "" {
			return CreateRequest{}, model.NewValidationError("gameId", "must not be empty")
		}
		g := model.GameID(*p.GameID)
		req.GameID = &g
	}
	return req, nil
}

// ParseJoin validates a party:join payload. Party codes are matched case-insensitively.
func ParseJoin(raw json.RawMessage) (JoinRequest, error) {
	var p struct {
		PartyID string `json:"partyId"`
		Name    string `json:"name"`
	}
	if err := unmarshalPayload(raw, &p); err != nil {
		return JoinRequest{}, err
	}

	partyID := strings.ToUpper(strings.TrimSpace(p.PartyID))
	if partyID == "" {
		return JoinRequest{}, model.NewValidationError("partyId", "is required")
	}

	name, err := validateName(p.Name)
	if err != nil {
		return JoinRequest{}, err
	}
	return JoinRequest{PartyID: model.PartyID(partyID), Name: name}, nil
}

// ParseSetRole validates a party:setRole payload
func ParseSetRole(raw json.RawMessage) (SetRoleRequest, error) {
	var p struct {
		PlayerID string  `json:"playerId"`
		Role     *string `json:"role"`
	}
	if err := unmarshalPayload(raw, &p); err != nil {
		return SetRoleRequest{}, err
	}

	if p.PlayerID == "" {
		return SetRoleRequest{}, model.NewValidationError("playerId", "is required")
	}
	if p.Role != nil && *p.Role == "" {
		return SetRoleRequest{}, model.NewValidationError("role", "must be null or non-empty")
	}
	return SetRoleRequest{PlayerID: model.PlayerID(p.PlayerID), Role: p.Role}, nil
}

// ParseSelectGame validates a party:selectGame payload
func ParseSelectGame(raw json.RawMessage) (SelectGameRequest, error) {
	var p struct {
		GameID string `json:"gameId"`
	}
	if err := unmarshalPayload(raw, &p); err != nil {
		return SelectGameRequest{}, err
	}

	if p.GameID == "" {
		return SelectGameRequest{}, model.NewValidationError("gameId", "is required")
	}
	return SelectGameRequest{GameID: model.GameID(p.GameID)}, nil
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return model.NewValidationError("payload", "is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return model.NewValidationError("payload", "malformed: "+err.Error())
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", model.NewValidationError("name", "is required")
	}
	if n > MaxNameLength {
		return "", model.NewValidationError("name", "must be at most 50 characters")
	}
	return name, nil
}

// Responses

// JoinedPayload answers a successful create or join
type JoinedPayload struct {
	PartyID  string `json:"partyId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// ErrorPayload is sent to the originating connection only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GameStartedPayload is unicast to each member when the party starts
type GameStartedPayload struct {
	GameID      string `json:"gameId"`
	SessionID   string `json:"sessionId"`
	WSNamespace string `json:"wsNamespace"`
	JoinToken   string `json:"joinToken"`
}

// PlayerState is one player in a party snapshot
type PlayerState struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      *string `json:"role"`
	Connected bool    `json:"connected"`
}

// PartyState is the full party snapshot broadcast on every change
type PartyState struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	OwnerID   string        `json:"ownerId"`
	HostID    string        `json:"hostId"`
	GameID    *string       `json:"gameId"`
	SessionID string        `json:"sessionId,omitempty"`
	Players   []PlayerState `json:"players"`
}

// PartyStateFromModel converts a model.Party to its wire snapshot
func PartyStateFromModel(p *model.Party) PartyState {
	players := make([]PlayerState, len(p.Players))
	for i, pl := range p.Players {
		players[i] = PlayerState{
			ID:        string(pl.ID),
			Name:      pl.Name,
			Role:      pl.Role,
			Connected: pl.Connected,
		}
	}

	var gameID *string
	if p.GameID != nil {
		g := string(*p.GameID)
		gameID = &g
	}

	return PartyState{
		ID:        string(p.ID),
		Status:    string(p.Status),
		OwnerID:   string(p.OwnerID),
		HostID:    string(p.HostID),
		GameID:    gameID,
		SessionID: string(p.SessionID),
		Players:   players,
	}
}
