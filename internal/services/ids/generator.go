package ids

import (
	"context"
	"fmt"

	"github.com/mcoot/partyhub/internal/dependencies/random"
	"github.com/mcoot/partyhub/internal/model"
)

const (
	// CodeBytes is the number of random bytes in a normal party code (6 hex chars)
	CodeBytes = 3
	// FallbackCodeBytes is used once MaxCodeAttempts short codes have collided (12 hex chars)
	FallbackCodeBytes = 6
	// MaxCodeAttempts bounds the retries against the live party set
	MaxCodeAttempts = 10
)

// ExistsFunc reports whether a party code is already in use
type ExistsFunc func(ctx context.Context, id model.PartyID) (bool, error)

// Generator creates party codes and opaque identifiers
type Generator struct {
	random random.Random
}

// New creates a new Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// NewSessionCode returns a short uppercase hex code not currently reported by exists.
// After MaxCodeAttempts collisions it returns a longer code without checking again.
func (g *Generator) NewSessionCode(ctx context.Context, exists ExistsFunc) (model.PartyID, error) {
	for i := 0; i < MaxCodeAttempts; i++ {
		code := model.PartyID(g.random.Hex(CodeBytes))
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check party code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return model.PartyID(g.random.Hex(FallbackCodeBytes)), nil
}

// NewPlayerID returns a fresh player identifier
func (g *Generator) NewPlayerID() model.PlayerID {
	return model.PlayerID(g.random.ID("p_"))
}

// NewSessionID returns a fresh game session identifier
func (g *Generator) NewSessionID() model.SessionID {
	return model.SessionID(g.random.ID("s_"))
}
