package model

import "time"

// CredentialKind distinguishes the two kinds of ephemeral credential
type CredentialKind string

const (
	CredentialKindResume   CredentialKind = "resume"    // Restores party membership after a drop
	CredentialKindGameJoin CredentialKind = "game_join" // Hands one player into one game session
)

// Credential is the server-side record behind an opaque token.
// IsHost is only meaningful for resume credentials, SessionID only for game-join.
type Credential struct {
	Token     string
	Kind      CredentialKind
	PartyID   PartyID
	PlayerID  PlayerID
	IsHost    bool
	SessionID SessionID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential is past its TTL at the given time
func (c *Credential) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
