package party

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyhub/internal/dependencies/mocks"
	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/credential"
	"github.com/mcoot/partyhub/internal/services/ids"
	"github.com/mcoot/partyhub/internal/storage/memory"
	"github.com/mcoot/partyhub/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	credentials *credential.Service
	controller  *Controller
	ctx         context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.credentials = credential.New(s.storage, s.clock, s.random, credential.DefaultConfig(), logger)
	s.controller = NewController(s.storage, s.credentials, ids.New(s.random), s.clock, logger)
	s.ctx = context.Background()
}

func gameID(id string) *model.GameID {
	g := model.GameID(id)
	return &g
}

func role(r string) *string {
	return &r
}

// createWithGuests creates a party owned by "Alice" and joins the given names
func (s *ControllerSuite) createWithGuests(names ...string) (*model.Party, []model.PlayerID) {
	party, ownerID, err := s.controller.Create(s.ctx, "Alice", nil)
	s.Require().NoError(err)

	playerIDs := []model.PlayerID{ownerID}
	for _, name := range names {
		_, id, err := s.controller.Join(s.ctx, party.ID, name)
		s.Require().NoError(err)
		playerIDs = append(playerIDs, id)
	}

	party, err = s.controller.Get(s.ctx, party.ID)
	s.Require().NoError(err)
	return party, playerIDs
}

func (s *ControllerSuite) assertHostInvariants(party *model.Party, ownerID model.PlayerID) {
	s.Equal(ownerID, party.OwnerID)
	s.NotNil(party.GetPlayer(party.HostID), "host must be a party member")
}

// Create tests

func (s *ControllerSuite) TestCreateSucceeds() {
	s.random.QueueHex("ABC123")

	party, playerID, err := s.controller.Create(s.ctx, "Alice", gameID("chess"))
	s.Require().NoError(err)

	s.Equal(model.PartyID("ABC123"), party.ID)
	s.Equal(model.PartyStatusLobby, party.Status)
	s.Equal(playerID, party.OwnerID)
	s.Equal(playerID, party.HostID)
	s.Require().Len(party.Players, 1)
	s.Equal("Alice", party.Players[0].Name)
	s.True(party.Players[0].Connected)
	s.Nil(party.Players[0].Role)
	s.Require().NotNil(party.GameID)
	s.Equal(model.GameID("chess"), *party.GameID)
}

func (s *ControllerSuite) TestCreateWithoutGame() {
	party, _, err := s.controller.Create(s.ctx, "Alice", nil)
	s.Require().NoError(err)
	s.Nil(party.GameID)
}

func (s *ControllerSuite) TestCreateIsPersisted() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", nil)

	retrieved, err := s.controller.Get(s.ctx, party.ID)
	s.Require().NoError(err)
	s.Equal(party.ID, retrieved.ID)
}

func (s *ControllerSuite) TestCreateSkipsLiveCodes() {
	s.random.QueueHex("ABC123", "ABC123", "DEF456")

	first, _, _ := s.controller.Create(s.ctx, "Alice", nil)
	second, _, _ := s.controller.Create(s.ctx, "Bob", nil)

	s.Equal(model.PartyID("ABC123"), first.ID)
	s.Equal(model.PartyID("DEF456"), second.ID)
}

// Join tests

func (s *ControllerSuite) TestJoinAppendsConnectedPlayer() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", nil)

	updated, bobID, err := s.controller.Join(s.ctx, party.ID, "Bob")
	s.Require().NoError(err)

	s.Require().Len(updated.Players, 2)
	s.Equal(bobID, updated.Players[1].ID)
	s.Equal("Bob", updated.Players[1].Name)
	s.True(updated.Players[1].Connected)
	s.NotEqual(updated.OwnerID, bobID)
	s.Equal(updated.OwnerID, updated.HostID)
}

func (s *ControllerSuite) TestJoinSameNameGetsDistinctID() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", nil)

	_, first, _ := s.controller.Join(s.ctx, party.ID, "Bob")
	_, second, _ := s.controller.Join(s.ctx, party.ID, "Bob")
	s.NotEqual(first, second)
}

func (s *ControllerSuite) TestJoinUnknownParty() {
	_, _, err := s.controller.Join(s.ctx, "NOPE00", "Bob")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *ControllerSuite) TestJoinAfterStartFails() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", gameID("chess"))
	_, err := s.controller.Start(s.ctx, party.ID, party.HostID)
	s.Require().NoError(err)

	_, _, err = s.controller.Join(s.ctx, party.ID, "Bob")
	s.ErrorIs(err, model.ErrNotInLobby)

	after, _ := s.controller.Get(s.ctx, party.ID)
	s.Len(after.Players, 1)
}

// Disconnect tests

func (s *ControllerSuite) TestSoleDisconnectDeletesPartyAndRevokes() {
	party, ownerID, _ := s.controller.Create(s.ctx, "Alice", nil)
	token, err := s.credentials.IssueResume(s.ctx, party.ID, ownerID, true)
	s.Require().NoError(err)

	after, err := s.controller.Disconnect(s.ctx, party.ID, ownerID)
	s.Require().NoError(err)
	s.Nil(after)

	_, err = s.controller.Get(s.ctx, party.ID)
	s.ErrorIs(err, model.ErrPartyNotFound)

	_, err = s.credentials.ValidateResume(s.ctx, token)
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *ControllerSuite) TestHostDisconnectMigratesToFirstConnected() {
	party, players := s.createWithGuests("Bob", "Carol")
	alice, bob := players[0], players[1]

	after, err := s.controller.Disconnect(s.ctx, party.ID, alice)
	s.Require().NoError(err)

	s.Equal(bob, after.HostID)
	s.Equal(alice, after.OwnerID)
	s.False(after.GetPlayer(alice).Connected)
	s.Len(after.Players, 3)
	s.assertHostInvariants(after, alice)
}

func (s *ControllerSuite) TestHostMigrationSkipsDisconnectedPlayers() {
	party, players := s.createWithGuests("Bob", "Carol")
	alice, bob, carol := players[0], players[1], players[2]

	_, _ = s.controller.Disconnect(s.ctx, party.ID, bob)
	after, err := s.controller.Disconnect(s.ctx, party.ID, alice)
	s.Require().NoError(err)
	s.Equal(carol, after.HostID)
}

func (s *ControllerSuite) TestGuestDisconnectKeepsHost() {
	party, players := s.createWithGuests("Bob")

	after, err := s.controller.Disconnect(s.ctx, party.ID, players[1])
	s.Require().NoError(err)
	s.Equal(players[0], after.HostID)
}

func (s *ControllerSuite) TestDisconnectUnknownPlayer() {
	party, _ := s.createWithGuests()

	_, err := s.controller.Disconnect(s.ctx, party.ID, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.controller.Disconnect(s.ctx, "NOPE00", "ghost")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *ControllerSuite) TestLastOfManyDisconnectDeletes() {
	party, players := s.createWithGuests("Bob")

	_, _ = s.controller.Disconnect(s.ctx, party.ID, players[0])
	after, err := s.controller.Disconnect(s.ctx, party.ID, players[1])
	s.Require().NoError(err)
	s.Nil(after)

	exists, _ := s.storage.PartyExists(s.ctx, party.ID)
	s.False(exists)
}

// Reconnect tests

func (s *ControllerSuite) TestOwnerReclaimsHostOnReconnect() {
	party, players := s.createWithGuests("Bob")
	alice, bob := players[0], players[1]

	migrated, _ := s.controller.Disconnect(s.ctx, party.ID, alice)
	s.Equal(bob, migrated.HostID)

	after, err := s.controller.Reconnect(s.ctx, party.ID, alice)
	s.Require().NoError(err)
	s.Equal(alice, after.HostID)
	s.True(after.GetPlayer(alice).Connected)
	s.assertHostInvariants(after, alice)
}

func (s *ControllerSuite) TestGuestReconnectDoesNotTakeHost() {
	party, players := s.createWithGuests("Bob")

	_, _ = s.controller.Disconnect(s.ctx, party.ID, players[1])
	after, err := s.controller.Reconnect(s.ctx, party.ID, players[1])
	s.Require().NoError(err)
	s.Equal(players[0], after.HostID)
	s.True(after.GetPlayer(players[1]).Connected)
}

func (s *ControllerSuite) TestReconnectKeepsRole() {
	party, players := s.createWithGuests("Bob")
	_, _ = s.controller.SetRole(s.ctx, party.ID, players[1], role("black"), players[0])

	_, _ = s.controller.Disconnect(s.ctx, party.ID, players[1])
	after, _ := s.controller.Reconnect(s.ctx, party.ID, players[1])

	s.Require().NotNil(after.GetPlayer(players[1]).Role)
	s.Equal("black", *after.GetPlayer(players[1]).Role)
}

func (s *ControllerSuite) TestReconnectUnknown() {
	party, _ := s.createWithGuests()

	_, err := s.controller.Reconnect(s.ctx, party.ID, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.controller.Reconnect(s.ctx, "NOPE00", "ghost")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

// SetRole tests

func (s *ControllerSuite) TestHostSetsAndClearsRole() {
	party, players := s.createWithGuests("Bob")

	after, err := s.controller.SetRole(s.ctx, party.ID, players[1], role("white"), players[0])
	s.Require().NoError(err)
	s.Require().NotNil(after.GetPlayer(players[1]).Role)
	s.Equal("white", *after.GetPlayer(players[1]).Role)

	after, err = s.controller.SetRole(s.ctx, party.ID, players[1], nil, players[0])
	s.Require().NoError(err)
	s.Nil(after.GetPlayer(players[1]).Role)
}

func (s *ControllerSuite) TestNonHostSetRoleForbiddenWithoutMutation() {
	party, players := s.createWithGuests("Bob")

	_, err := s.controller.SetRole(s.ctx, party.ID, players[1], role("white"), players[1])
	s.ErrorIs(err, model.ErrNotHost)

	after, _ := s.controller.Get(s.ctx, party.ID)
	s.Nil(after.GetPlayer(players[1]).Role)
}

func (s *ControllerSuite) TestSetRoleUnknownTarget() {
	party, players := s.createWithGuests()

	_, err := s.controller.SetRole(s.ctx, party.ID, "ghost", role("white"), players[0])
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// SelectGame tests

func (s *ControllerSuite) TestHostSelectsGame() {
	party, players := s.createWithGuests()

	after, err := s.controller.SelectGame(s.ctx, party.ID, "chess", players[0])
	s.Require().NoError(err)
	s.Require().NotNil(after.GameID)
	s.Equal(model.GameID("chess"), *after.GameID)
}

func (s *ControllerSuite) TestNonHostSelectGameForbidden() {
	party, players := s.createWithGuests("Bob")

	_, err := s.controller.SelectGame(s.ctx, party.ID, "chess", players[1])
	s.ErrorIs(err, model.ErrNotHost)

	after, _ := s.controller.Get(s.ctx, party.ID)
	s.Nil(after.GameID)
}

func (s *ControllerSuite) TestSelectGameAfterStartFails() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", gameID("chess"))
	_, _ = s.controller.Start(s.ctx, party.ID, party.HostID)

	_, err := s.controller.SelectGame(s.ctx, party.ID, "go", party.HostID)
	s.ErrorIs(err, model.ErrNotInLobby)
}

// Start tests

func (s *ControllerSuite) TestStartWithoutGameFails() {
	party, players := s.createWithGuests()

	_, err := s.controller.Start(s.ctx, party.ID, players[0])
	s.ErrorIs(err, model.ErrNoGameSelected)

	after, _ := s.controller.Get(s.ctx, party.ID)
	s.Equal(model.PartyStatusLobby, after.Status)
	s.Empty(after.SessionID)
}

func (s *ControllerSuite) TestStartSucceeds() {
	party, players := s.createWithGuests("Bob")
	_, _ = s.controller.SelectGame(s.ctx, party.ID, "chess", players[0])

	after, err := s.controller.Start(s.ctx, party.ID, players[0])
	s.Require().NoError(err)
	s.Equal(model.PartyStatusInGame, after.Status)
	s.NotEmpty(after.SessionID)

	stored, _ := s.controller.Get(s.ctx, party.ID)
	s.Equal(after.SessionID, stored.SessionID)
}

func (s *ControllerSuite) TestNonHostStartForbidden() {
	party, players := s.createWithGuests("Bob")
	_, _ = s.controller.SelectGame(s.ctx, party.ID, "chess", players[0])

	_, err := s.controller.Start(s.ctx, party.ID, players[1])
	s.ErrorIs(err, model.ErrNotHost)

	after, _ := s.controller.Get(s.ctx, party.ID)
	s.Equal(model.PartyStatusLobby, after.Status)
}

func (s *ControllerSuite) TestStartTwiceFails() {
	party, _, _ := s.controller.Create(s.ctx, "Alice", gameID("chess"))
	_, _ = s.controller.Start(s.ctx, party.ID, party.HostID)

	_, err := s.controller.Start(s.ctx, party.ID, party.HostID)
	s.ErrorIs(err, model.ErrNotInLobby)
}

func (s *ControllerSuite) TestStartIssuesFreshSessionPerParty() {
	a, _, _ := s.controller.Create(s.ctx, "Alice", gameID("chess"))
	b, _, _ := s.controller.Create(s.ctx, "Bob", gameID("chess"))

	startedA, _ := s.controller.Start(s.ctx, a.ID, a.HostID)
	startedB, _ := s.controller.Start(s.ctx, b.ID, b.HostID)
	s.NotEqual(startedA.SessionID, startedB.SessionID)
}

// Delete tests

func (s *ControllerSuite) TestDeleteRevokesCredentials() {
	party, players := s.createWithGuests("Bob")
	token, _ := s.credentials.IssueResume(s.ctx, party.ID, players[1], false)

	s.Require().NoError(s.controller.Delete(s.ctx, party.ID))

	_, err := s.controller.Get(s.ctx, party.ID)
	s.ErrorIs(err, model.ErrPartyNotFound)
	_, err = s.credentials.Validate(s.ctx, token)
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *ControllerSuite) TestDeleteUnknownIsNoop() {
	s.NoError(s.controller.Delete(s.ctx, "NOPE00"))
}

// Invariant walk

func (s *ControllerSuite) TestHostInvariantsHoldThroughLifecycle() {
	party, players := s.createWithGuests("Bob", "Carol")
	alice, bob, carol := players[0], players[1], players[2]

	steps := []func() (*model.Party, error){
		func() (*model.Party, error) { return s.controller.Disconnect(s.ctx, party.ID, alice) },
		func() (*model.Party, error) { return s.controller.Disconnect(s.ctx, party.ID, bob) },
		func() (*model.Party, error) { return s.controller.Reconnect(s.ctx, party.ID, bob) },
		func() (*model.Party, error) { return s.controller.Reconnect(s.ctx, party.ID, alice) },
		func() (*model.Party, error) { return s.controller.Disconnect(s.ctx, party.ID, carol) },
	}
	for _, step := range steps {
		after, err := step()
		s.Require().NoError(err)
		s.Require().NotNil(after)
		s.assertHostInvariants(after, alice)
	}

	final, _ := s.controller.Get(s.ctx, party.ID)
	s.Equal(alice, final.HostID)
}
