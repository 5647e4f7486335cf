package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/partyhub/internal/dependencies/clock"
	"github.com/mcoot/partyhub/internal/dependencies/random"
	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/storage"
)

// Service issues and validates ephemeral resume and game-join credentials
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	resumeTTL   time.Duration
	gameJoinTTL time.Duration
}

// Config holds configuration for the credential service
type Config struct {
	ResumeTTL   time.Duration
	GameJoinTTL time.Duration
}

// DefaultConfig returns default credential configuration
func DefaultConfig() Config {
	return Config{
		ResumeTTL:   24 * time.Hour,
		GameJoinTTL: time.Hour,
	}
}

// New creates a new credential Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.ResumeTTL == 0 {
		cfg.ResumeTTL = defaults.ResumeTTL
	}
	if cfg.GameJoinTTL == 0 {
		cfg.GameJoinTTL = defaults.GameJoinTTL
	}
	return &Service{
		storage:     storage,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "credential-service")),
		resumeTTL:   cfg.ResumeTTL,
		gameJoinTTL: cfg.GameJoinTTL,
	}
}

// IssueResume creates a credential that lets a dropped connection rejoin its party
func (s *Service) IssueResume(ctx context.Context, partyID model.PartyID, playerID model.PlayerID, isHost bool) (string, error) {
	cred := s.newCredential(model.CredentialKindResume, partyID, playerID, s.resumeTTL)
	cred.IsHost = isHost
	if err := s.storage.SaveCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("save resume credential: %w", err)
	}
	return cred.Token, nil
}

// IssueGameJoin creates a credential admitting one player to one game session
func (s *Service) IssueGameJoin(ctx context.Context, partyID model.PartyID, playerID model.PlayerID, sessionID model.SessionID) (string, error) {
	cred := s.newCredential(model.CredentialKindGameJoin, partyID, playerID, s.gameJoinTTL)
	cred.SessionID = sessionID
	if err := s.storage.SaveCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("save game join credential: %w", err)
	}
	return cred.Token, nil
}

// Validate returns the credential behind a token. An expired credential is
// purged before ErrCredentialExpired is returned.
func (s *Service) Validate(ctx context.Context, token string) (*model.Credential, error) {
	if token == "" {
		return nil, model.ErrInvalidCredential
	}

	cred, err := s.storage.GetCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	if cred.Expired(s.clock.Now()) {
		if err := s.storage.DeleteCredential(ctx, token); err != nil {
			s.logger.Warn("failed to purge expired credential",
				slog.String("party_id", string(cred.PartyID)),
				slog.String("error", err.Error()),
			)
		}
		return nil, model.ErrCredentialExpired
	}

	return cred, nil
}

// ValidateResume validates a token and requires it to be a resume credential
func (s *Service) ValidateResume(ctx context.Context, token string) (*model.Credential, error) {
	return s.validateKind(ctx, token, model.CredentialKindResume)
}

// ValidateGameJoin validates a token and requires it to be a game-join credential
func (s *Service) ValidateGameJoin(ctx context.Context, token string) (*model.Credential, error) {
	return s.validateKind(ctx, token, model.CredentialKindGameJoin)
}

func (s *Service) validateKind(ctx context.Context, token string, kind model.CredentialKind) (*model.Credential, error) {
	cred, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if cred.Kind != kind {
		return nil, model.ErrWrongCredentialKind
	}
	return cred, nil
}

// Revoke invalidates a single token. Unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.storage.DeleteCredential(ctx, token)
}

// RevokeAllForParty invalidates every credential tied to a party
func (s *Service) RevokeAllForParty(ctx context.Context, partyID model.PartyID) error {
	count, err := s.storage.DeleteCredentialsForParty(ctx, partyID)
	if err != nil {
		return fmt.Errorf("revoke party credentials: %w", err)
	}
	s.logger.Debug("party credentials revoked",
		slog.String("party_id", string(partyID)),
		slog.Int("count", count),
	)
	return nil
}

// Sweep removes every expired credential (call periodically)
func (s *Service) Sweep(ctx context.Context) error {
	count, err := s.storage.DeleteExpiredCredentials(ctx, s.clock.Now())
	if err != nil {
		return fmt.Errorf("sweep credentials: %w", err)
	}
	if count > 0 {
		s.logger.Info("expired credentials swept", slog.Int("count", count))
	}
	return nil
}

func (s *Service) newCredential(kind model.CredentialKind, partyID model.PartyID, playerID model.PlayerID, ttl time.Duration) *model.Credential {
	prefix := "rt_"
	if kind == model.CredentialKindGameJoin {
		prefix = "jt_"
	}
	now := s.clock.Now()
	return &model.Credential{
		Token:     s.random.ID(prefix),
		Kind:      kind,
		PartyID:   partyID,
		PlayerID:  playerID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsAuthError reports whether err means the token should be treated as absent
func IsAuthError(err error) bool {
	return errors.Is(err, model.ErrInvalidCredential) ||
		errors.Is(err, model.ErrCredentialExpired) ||
		errors.Is(err, model.ErrWrongCredentialKind)
}
