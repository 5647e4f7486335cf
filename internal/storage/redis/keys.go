package redis

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/partyhub/internal/model"
)

// Key prefix for all party data
const keyPrefix = "partyhub"

// partyKey returns the Redis key for a Party
func partyKey(id model.PartyID) string {
	return fmt.Sprintf("%s:party:%s", keyPrefix, id)
}

// partyIndexKey returns the Redis key for the SET of live party IDs
func partyIndexKey() string {
	return fmt.Sprintf("%s:idx:parties", keyPrefix)
}

// credentialKey returns the Redis key for a credential. Tokens are hashed so
// a key listing never reveals a usable token.
func credentialKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return fmt.Sprintf("%s:credential:%s", keyPrefix, hex.EncodeToString(sum[:]))
}

// credentialsForPartyIndexKey returns the Redis key for the SET of credential keys for a party
func credentialsForPartyIndexKey(partyID model.PartyID) string {
	return fmt.Sprintf("%s:idx:credentials_for_party:%s", keyPrefix, partyID)
}
