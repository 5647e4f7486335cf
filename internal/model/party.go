package model

import "time"

// PartyID is the short human-typeable code players use to join a party
type PartyID string

// GameID identifies a game type in the registry (e.g. "chess")
type GameID string

// SessionID identifies one downstream game session minted at start
type SessionID string

// PartyStatus represents the current state of a party
type PartyStatus string

const (
	PartyStatusLobby  PartyStatus = "lobby"   // Gathering players
	PartyStatusInGame PartyStatus = "in_game" // Handed off to a game, terminal
)

// Party is one lobby-to-game lifecycle instance
type Party struct {
	ID      PartyID
	Status  PartyStatus
	OwnerID PlayerID // Original creator, never reassigned
	HostID  PlayerID // Current authority, may migrate
	GameID  *GameID  // nil until a game is selected
	Players []Player // Join order preserved, never removed

	// Set when the party starts
	SessionID SessionID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the player with the given ID, or nil if not found
func (p *Party) GetPlayer(playerID PlayerID) *Player {
	for i := range p.Players {
		if p.Players[i].ID == playerID {
			return &p.Players[i]
		}
	}
	return nil
}

// IsHost reports whether the given player currently holds host authority
func (p *Party) IsHost(playerID PlayerID) bool {
	return p.HostID == playerID
}

// IsOwner reports whether the given player created the party
func (p *Party) IsOwner(playerID PlayerID) bool {
	return p.OwnerID == playerID
}

// HasGame reports whether a game has been selected
func (p *Party) HasGame() bool {
	return p.GameID != nil && *p.GameID != ""
}

// ConnectedPlayers returns all connected players in join order
func (p *Party) ConnectedPlayers() []Player {
	var connected []Player
	for _, pl := range p.Players {
		if pl.Connected {
			connected = append(connected, pl)
		}
	}
	return connected
}

// AllDisconnected reports whether no player is currently connected
func (p *Party) AllDisconnected() bool {
	for _, pl := range p.Players {
		if pl.Connected {
			return false
		}
	}
	return true
}

// FirstConnectedExcept returns the first connected player in join order other
// than the given one, or nil if there is none
func (p *Party) FirstConnectedExcept(playerID PlayerID) *Player {
	for i := range p.Players {
		if p.Players[i].Connected && p.Players[i].ID != playerID {
			return &p.Players[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the party
func (p *Party) Clone() *Party {
	c := *p
	if p.GameID != nil {
		gameID := *p.GameID
		c.GameID = &gameID
	}
	c.Players = make([]Player, len(p.Players))
	for i, pl := range p.Players {
		c.Players[i] = pl
		if pl.Role != nil {
			role := *pl.Role
			c.Players[i].Role = &role
		}
	}
	return &c
}
