package realtime

import (
	"errors"

	"github.com/mcoot/partyhub/internal/model"
)

// ErrNotInParty is reported when an unbound connection sends a party request
var ErrNotInParty = errors.New("not in a party")

// toErrorPayload builds the party:error payload for a failed request. The
// second result is false for errors with no client-facing mapping.
func toErrorPayload(code string, err error) (ErrorPayload, bool) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return ErrorPayload{code, "Invalid request: " + ve.Error()}, true
	case errors.Is(err, ErrNotInParty):
		return ErrorPayload{code, "You are not in a party"}, true
	case errors.Is(err, model.ErrPartyNotFound):
		return ErrorPayload{code, "Party not found"}, true
	case errors.Is(err, model.ErrPlayerNotFound):
		return ErrorPayload{code, "Player not found"}, true
	case errors.Is(err, model.ErrNotHost):
		return ErrorPayload{code, "Only the host can perform this action"}, true
	case errors.Is(err, model.ErrNotInLobby):
		return ErrorPayload{code, "Party is not in the lobby"}, true
	case errors.Is(err, model.ErrNoGameSelected):
		return ErrorPayload{code, "Please select a game before starting"}, true
	default:
		return ErrorPayload{code, "Internal error"}, false
	}
}
