package model

import "time"

// PlayerID uniquely identifies a player within a party. It survives reconnects
// and is never the same as a connection ID.
type PlayerID string

// Player represents a party member
type Player struct {
	ID        PlayerID
	Name      string
	Role      *string // nil when no role is assigned
	Connected bool
	JoinedAt  time.Time
}
