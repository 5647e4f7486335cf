package party

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/partyhub/internal/dependencies/clock"
	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/credential"
	"github.com/mcoot/partyhub/internal/services/ids"
	"github.com/mcoot/partyhub/internal/storage"
)

// Controller manages the party state machine and host authority.
// Every operation checks all of its guards before writing anything.
type Controller struct {
	storage     storage.Storage
	credentials *credential.Service
	ids         *ids.Generator
	clock       clock.Clock
	logger      *slog.Logger
}

// NewController creates a new party Controller
func NewController(
	storage storage.Storage,
	credentials *credential.Service,
	ids *ids.Generator,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:     storage,
		credentials: credentials,
		ids:         ids,
		clock:       clock,
		logger:      logger.With(slog.String("component", "party-controller")),
	}
}

// Create starts a new party with the caller as its owner and host
func (c *Controller) Create(ctx context.Context, name string, gameID *model.GameID) (*model.Party, model.PlayerID, error) {
	code, err := c.ids.NewSessionCode(ctx, c.storage.PartyExists)
	if err != nil {
		return nil, "", err
	}

	now := c.clock.Now()
	playerID := c.ids.NewPlayerID()

	party := &model.Party{
		ID:      code,
		Status:  model.PartyStatusLobby,
		OwnerID: playerID,
		HostID:  playerID,
		Players: []model.Player{
			{
				ID:        playerID,
				Name:      name,
				Connected: true,
				JoinedAt:  now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if gameID != nil {
		g := *gameID
		party.GameID = &g
	}

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, "", fmt.Errorf("save party: %w", err)
	}

	c.logger.Info("party created",
		slog.String("party_id", string(party.ID)),
		slog.String("owner_id", string(playerID)),
	)

	return party, playerID, nil
}

// Get retrieves a party by code
func (c *Controller) Get(ctx context.Context, partyID model.PartyID) (*model.Party, error) {
	return c.storage.GetParty(ctx, partyID)
}

// Join appends a new connected player to a party that is still in the lobby
func (c *Controller) Join(ctx context.Context, partyID model.PartyID, name string) (*model.Party, model.PlayerID, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, "", err
	}

	if party.Status != model.PartyStatusLobby {
		return nil, "", model.ErrNotInLobby
	}

	now := c.clock.Now()
	playerID := c.ids.NewPlayerID()
	party.Players = append(party.Players, model.Player{
		ID:        playerID,
		Name:      name,
		Connected: true,
		JoinedAt:  now,
	})
	party.UpdatedAt = now

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, "", fmt.Errorf("save party: %w", err)
	}

	return party, playerID, nil
}

// Reconnect marks a known player connected again. The owner always reclaims host.
func (c *Controller) Reconnect(ctx context.Context, partyID model.PartyID, playerID model.PlayerID) (*model.Party, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	player := party.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Connected = true
	if party.IsOwner(playerID) && !party.IsHost(playerID) {
		c.logger.Info("owner reclaimed host",
			slog.String("party_id", string(partyID)),
			slog.String("from", string(party.HostID)),
			slog.String("to", string(playerID)),
		)
		party.HostID = playerID
	}
	party.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}
	return party, nil
}

// Disconnect marks a player disconnected. When nobody is left connected the
// party is deleted and nil is returned; otherwise host migrates away from the
// departing player if needed.
func (c *Controller) Disconnect(ctx context.Context, partyID model.PartyID, playerID model.PlayerID) (*model.Party, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	player := party.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Connected = false

	if party.AllDisconnected() {
		if err := c.Delete(ctx, partyID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if party.IsHost(playerID) {
		if next := party.FirstConnectedExcept(playerID); next != nil {
			party.HostID = next.ID
			c.logger.Info("host migrated",
				slog.String("party_id", string(partyID)),
				slog.String("from", string(playerID)),
				slog.String("to", string(next.ID)),
			)
		}
	}
	party.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}
	return party, nil
}

// SetRole assigns or clears a player's role. Only the host may do this.
func (c *Controller) SetRole(ctx context.Context, partyID model.PartyID, playerID model.PlayerID, role *string, requesterID model.PlayerID) (*model.Party, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if !party.IsHost(requesterID) {
		return nil, model.ErrNotHost
	}

	player := party.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	if role != nil {
		r := *role
		player.Role = &r
	} else {
		player.Role = nil
	}
	party.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}
	return party, nil
}

// SelectGame sets the game a lobby will start
func (c *Controller) SelectGame(ctx context.Context, partyID model.PartyID, gameID model.GameID, requesterID model.PlayerID) (*model.Party, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if !party.IsHost(requesterID) {
		return nil, model.ErrNotHost
	}
	if party.Status != model.PartyStatusLobby {
		return nil, model.ErrNotInLobby
	}

	party.GameID = &gameID
	party.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}
	return party, nil
}

// Start moves a lobby with a selected game into the in-game state and mints
// the session identifier the game will run under
func (c *Controller) Start(ctx context.Context, partyID model.PartyID, requesterID model.PlayerID) (*model.Party, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if !party.IsHost(requesterID) {
		return nil, model.ErrNotHost
	}
	if party.Status != model.PartyStatusLobby {
		return nil, model.ErrNotInLobby
	}
	if !party.HasGame() {
		return nil, model.ErrNoGameSelected
	}

	party.Status = model.PartyStatusInGame
	party.SessionID = c.ids.NewSessionID()
	party.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveParty(ctx, party); err != nil {
		return nil, fmt.Errorf("save party: %w", err)
	}

	c.logger.Info("party started",
		slog.String("party_id", string(partyID)),
		slog.String("game_id", string(*party.GameID)),
		slog.String("session_id", string(party.SessionID)),
	)
	return party, nil
}

// Delete removes a party and revokes every credential tied to it
func (c *Controller) Delete(ctx context.Context, partyID model.PartyID) error {
	if err := c.storage.DeleteParty(ctx, partyID); err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if err := c.credentials.RevokeAllForParty(ctx, partyID); err != nil {
		return err
	}
	c.logger.Info("party deleted", slog.String("party_id", string(partyID)))
	return nil
}

// ControllerInterface is the surface the connection router depends on
type ControllerInterface interface {
	Create(ctx context.Context, name string, gameID *model.GameID) (*model.Party, model.PlayerID, error)
	Get(ctx context.Context, partyID model.PartyID) (*model.Party, error)
	Join(ctx context.Context, partyID model.PartyID, name string) (*model.Party, model.PlayerID, error)
	Reconnect(ctx context.Context, partyID model.PartyID, playerID model.PlayerID) (*model.Party, error)
	Disconnect(ctx context.Context, partyID model.PartyID, playerID model.PlayerID) (*model.Party, error)
	SetRole(ctx context.Context, partyID model.PartyID, playerID model.PlayerID, role *string, requesterID model.PlayerID) (*model.Party, error)
	SelectGame(ctx context.Context, partyID model.PartyID, gameID model.GameID, requesterID model.PlayerID) (*model.Party, error)
	Start(ctx context.Context, partyID model.PartyID, requesterID model.PlayerID) (*model.Party, error)
	Delete(ctx context.Context, partyID model.PartyID) error
}

var _ ControllerInterface = (*Controller)(nil)
