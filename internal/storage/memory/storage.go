package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Parties are cloned on the way in and out so callers never share state with
// the registry.
type Storage struct {
	mu sync.RWMutex

	parties     map[model.PartyID]*model.Party
	credentials map[string]*model.Credential
	partyTokens map[model.PartyID]map[string]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		parties:     make(map[model.PartyID]*model.Party),
		credentials: make(map[string]*model.Credential),
		partyTokens: make(map[model.PartyID]map[string]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Party operations

func (s *Storage) SaveParty(ctx context.Context, party *model.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[party.ID] = party.Clone()
	return nil
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	party, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	return party.Clone(), nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parties, id)
	return nil
}

func (s *Storage) PartyExists(ctx context.Context, id model.PartyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.parties[id]
	return ok, nil
}

func (s *Storage) CountParties(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parties), nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	s.credentials[cred.Token] = &c

	tokens, ok := s.partyTokens[cred.PartyID]
	if !ok {
		tokens = make(map[string]struct{})
		s.partyTokens[cred.PartyID] = tokens
	}
	tokens[cred.Token] = struct{}{}
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, token string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[token]
	if !ok {
		return nil, model.ErrInvalidCredential
	}
	c := *cred
	return &c, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCredentialLocked(token)
	return nil
}

func (s *Storage) DeleteCredentialsForParty(ctx context.Context, partyID model.PartyID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.partyTokens[partyID]
	count := 0
	for token := range tokens {
		if _, ok := s.credentials[token]; ok {
			delete(s.credentials, token)
			count++
		}
	}
	delete(s.partyTokens, partyID)
	return count, nil
}

func (s *Storage) DeleteExpiredCredentials(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for token, cred := range s.credentials {
		if cred.Expired(now) {
			s.deleteCredentialLocked(token)
			count++
		}
	}
	return count, nil
}

// deleteCredentialLocked removes a credential and its index entry; s.mu must be held
func (s *Storage) deleteCredentialLocked(token string) {
	cred, ok := s.credentials[token]
	if !ok {
		return
	}
	delete(s.credentials, token)
	if tokens, ok := s.partyTokens[cred.PartyID]; ok {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(s.partyTokens, cred.PartyID)
		}
	}
}
