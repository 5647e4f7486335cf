package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Party operations

func (s *Storage) SaveParty(ctx context.Context, party *model.Party) error {
	data, err := json.Marshal(party)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, partyKey(party.ID), data, s.cfg.PartyTTL)
	pipe.SAdd(ctx, partyIndexKey(), string(party.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	data, err := s.client.Get(ctx, partyKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPartyNotFound
		}
		return nil, err
	}

	var party model.Party
	if err := json.Unmarshal(data, &party); err != nil {
		return nil, err
	}
	return &party, nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, partyKey(id))
	pipe.SRem(ctx, partyIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) PartyExists(ctx context.Context, id model.PartyID) (bool, error) {
	exists, err := s.client.Exists(ctx, partyKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// CountParties counts live parties, pruning index entries whose party key has expired
func (s *Storage) CountParties(ctx context.Context) (int, error) {
	ids, err := s.client.SMembers(ctx, partyIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Exists(ctx, partyKey(model.PartyID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	count := 0
	var stale []any
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			count++
		} else {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, partyIndexKey(), stale...).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	// The token itself is the lookup key; it is not stored in the value
	stored := *cred
	stored.Token = ""
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	ttl := cred.ExpiresAt.Sub(cred.IssuedAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	key := credentialKey(cred.Token)
	indexKey := credentialsForPartyIndexKey(cred.PartyID)

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, indexKey, key)
	pipe.Expire(ctx, indexKey, s.cfg.CredentialIndexTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCredential(ctx context.Context, token string) (*model.Credential, error) {
	data, err := s.client.Get(ctx, credentialKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidCredential
		}
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	cred.Token = token
	return &cred, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, token string) error {
	cred, err := s.GetCredential(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredential) {
			return nil
		}
		return err
	}

	key := credentialKey(token)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, credentialsForPartyIndexKey(cred.PartyID), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteCredentialsForParty(ctx context.Context, partyID model.PartyID) (int, error) {
	indexKey := credentialsForPartyIndexKey(partyID)

	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, err
	}

	// Delete all credentials and the index in one pipeline
	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	count := 0
	for _, cmd := range cmds {
		count += int(cmd.Val())
	}
	return count, nil
}

// DeleteExpiredCredentials is a no-op: Redis expires credential keys natively
func (s *Storage) DeleteExpiredCredentials(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
