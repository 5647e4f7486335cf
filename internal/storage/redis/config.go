package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// PartyTTL bounds how long an abandoned party record can linger
	PartyTTL time.Duration

	// CredentialIndexTTL is applied to the per-party token index. It must be
	// at least as long as the longest credential TTL.
	CredentialIndexTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                "redis://localhost:6379",
		PoolSize:           10,
		MinIdleConns:       2,
		PartyTTL:           24 * time.Hour,
		CredentialIndexTTL: 24 * time.Hour,
	}
}
