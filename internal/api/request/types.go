package request

// ValidateJoinTokenRequest is the request body a game server sends to
// exchange a join token for the player's identity
type ValidateJoinTokenRequest struct {
	Token string `json:"token"`
}
