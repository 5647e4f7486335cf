package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParty() *Party {
	role := "white"
	game := GameID("chess")
	return &Party{
		ID:      "AB12CD",
		Status:  PartyStatusLobby,
		OwnerID: "p_1",
		HostID:  "p_1",
		GameID:  &game,
		Players: []Player{
			{ID: "p_1", Name: "Alice", Role: &role, Connected: true},
			{ID: "p_2", Name: "Bob", Connected: false},
			{ID: "p_3", Name: "Carol", Connected: true},
		},
	}
}

func TestPartyLookups(t *testing.T) {
	p := testParty()

	require.NotNil(t, p.GetPlayer("p_2"))
	assert.Equal(t, "Bob", p.GetPlayer("p_2").Name)
	assert.Nil(t, p.GetPlayer("p_9"))

	assert.True(t, p.IsHost("p_1"))
	assert.True(t, p.IsOwner("p_1"))
	assert.False(t, p.IsHost("p_3"))
	assert.True(t, p.HasGame())

	empty := GameID("")
	p.GameID = &empty
	assert.False(t, p.HasGame())
}

func TestConnectedPlayers(t *testing.T) {
	p := testParty()

	connected := p.ConnectedPlayers()
	require.Len(t, connected, 2)
	assert.Equal(t, PlayerID("p_1"), connected[0].ID)
	assert.Equal(t, PlayerID("p_3"), connected[1].ID)
	assert.False(t, p.AllDisconnected())

	for i := range p.Players {
		p.Players[i].Connected = false
	}
	assert.True(t, p.AllDisconnected())
	assert.Empty(t, p.ConnectedPlayers())
}

func TestFirstConnectedExcept(t *testing.T) {
	p := testParty()

	// Skips the disconnected Bob
	next := p.FirstConnectedExcept("p_1")
	require.NotNil(t, next)
	assert.Equal(t, PlayerID("p_3"), next.ID)

	p.Players[2].Connected = false
	assert.Nil(t, p.FirstConnectedExcept("p_1"))
}

func TestCloneIsDeep(t *testing.T) {
	p := testParty()
	c := p.Clone()

	*c.GameID = "go"
	*c.Players[0].Role = "black"
	c.Players[1].Name = "Robert"

	assert.Equal(t, GameID("chess"), *p.GameID)
	assert.Equal(t, "white", *p.Players[0].Role)
	assert.Equal(t, "Bob", p.Players[1].Name)
}

func TestCredentialExpired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &Credential{IssuedAt: issued, ExpiresAt: issued.Add(time.Hour)}

	assert.False(t, c.Expired(issued))
	assert.False(t, c.Expired(issued.Add(time.Hour)))
	assert.True(t, c.Expired(issued.Add(time.Hour+time.Nanosecond)))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "must be 1-50 characters")
	assert.Equal(t, "name: must be 1-50 characters", err.Error())
}
