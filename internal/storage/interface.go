package storage

import (
	"context"
	"time"

	"github.com/mcoot/partyhub/internal/model"
)

// Storage defines the interface for party and credential state
type Storage interface {
	// Party operations
	SaveParty(ctx context.Context, party *model.Party) error
	GetParty(ctx context.Context, id model.PartyID) (*model.Party, error)
	DeleteParty(ctx context.Context, id model.PartyID) error
	PartyExists(ctx context.Context, id model.PartyID) (bool, error)
	CountParties(ctx context.Context) (int, error)

	// Credential operations
	SaveCredential(ctx context.Context, cred *model.Credential) error
	GetCredential(ctx context.Context, token string) (*model.Credential, error)
	DeleteCredential(ctx context.Context, token string) error
	DeleteCredentialsForParty(ctx context.Context, partyID model.PartyID) (int, error)
	DeleteExpiredCredentials(ctx context.Context, now time.Time) (int, error)
}
