package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/credential"
	"github.com/mcoot/partyhub/internal/services/games"
	"github.com/mcoot/partyhub/internal/services/party"
)

// ErrRouterStopped is returned for requests made after the router loop exits
var ErrRouterStopped = errors.New("router stopped")

// Conn is a live client connection the router can write to
type Conn interface {
	ID() string
	// Send queues a frame without blocking; false means it was dropped
	Send(msg []byte) bool
	Close()
}

// ConnectionContext is the party identity bound to one live connection.
// It is replaced wholesale on rebind, never edited.
type ConnectionContext struct {
	ConnectionID string
	PartyID      model.PartyID
	PlayerID     model.PlayerID
	IsHost       bool
}

// Config holds router settings
type Config struct {
	// SweepInterval is how often expired credentials are purged; zero disables the sweep
	SweepInterval time.Duration
	// EventBuffer is the capacity of the inbound event queue
	EventBuffer int
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		SweepInterval: 5 * time.Minute,
		EventBuffer:   256,
	}
}

type eventKind int

const (
	eventConnect eventKind = iota
	eventMessage
	eventDisconnect
	eventValidateJoin
)

type event struct {
	kind   eventKind
	conn   Conn
	connID string
	token  string
	data   []byte
	reply  chan joinResult
}

type joinResult struct {
	cred *model.Credential
	err  error
}

// Router maps live connections to party members and dispatches their
// requests. All party and credential calls happen on the Run goroutine.
type Router struct {
	parties     party.ControllerInterface
	credentials *credential.Service
	registry    *games.Registry
	logger      *slog.Logger
	cfg         Config

	events chan event
	done   chan struct{}

	connCount atomic.Int64

	// Owned by the Run goroutine
	conns    map[string]Conn
	bindings map[string]ConnectionContext
	rooms    map[model.PartyID]map[string]struct{}
}

// NewRouter creates a new Router. Run must be called to start processing.
func NewRouter(
	parties party.ControllerInterface,
	credentials *credential.Service,
	registry *games.Registry,
	cfg Config,
	logger *slog.Logger,
) *Router {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	return &Router{
		parties:     parties,
		credentials: credentials,
		registry:    registry,
		logger:      logger.With(slog.String("component", "router")),
		cfg:         cfg,
		events:      make(chan event, cfg.EventBuffer),
		done:        make(chan struct{}),
		conns:       make(map[string]Conn),
		bindings:    make(map[string]ConnectionContext),
		rooms:       make(map[model.PartyID]map[string]struct{}),
	}
}

// Run processes events until ctx is cancelled, then closes every connection
func (r *Router) Run(ctx context.Context) {
	defer close(r.done)

	var sweep <-chan time.Time
	if r.cfg.SweepInterval > 0 {
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	r.logger.Info("router started")
	for {
		select {
		case ev := <-r.events:
			r.handle(ctx, ev)

		case <-sweep:
			if err := r.credentials.Sweep(ctx); err != nil {
				r.logger.Warn("credential sweep failed", slog.String("error", err.Error()))
			}

		case <-ctx.Done():
			count := len(r.conns)
			for id, conn := range r.conns {
				conn.Close()
				delete(r.conns, id)
			}
			r.connCount.Store(0)
			r.logger.Info("router stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// Connect registers a new connection. A non-empty token is treated as a
// resume credential; an invalid or stale one is silently ignored.
func (r *Router) Connect(conn Conn, token string) {
	r.enqueue(event{kind: eventConnect, conn: conn, connID: conn.ID(), token: token})
}

// Deliver queues an inbound frame from a connection
func (r *Router) Deliver(connID string, data []byte) {
	r.enqueue(event{kind: eventMessage, connID: connID, data: data})
}

// Disconnect queues the cleanup for a closed connection
func (r *Router) Disconnect(connID string) {
	r.enqueue(event{kind: eventDisconnect, connID: connID})
}

// ValidateJoinToken checks a game-join credential on the router loop so it
// observes every revocation made before it
func (r *Router) ValidateJoinToken(ctx context.Context, token string) (*model.Credential, error) {
	reply := make(chan joinResult, 1)
	if !r.enqueue(event{kind: eventValidateJoin, token: token, reply: reply}) {
		return nil, ErrRouterStopped
	}
	select {
	case res := <-reply:
		return res.cred, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, ErrRouterStopped
	}
}

// ConnectionCount returns the number of open connections
func (r *Router) ConnectionCount() int {
	return int(r.connCount.Load())
}

func (r *Router) enqueue(ev event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Router) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case eventConnect:
		r.handleConnect(ctx, ev.conn, ev.token)
	case eventMessage:
		r.handleMessage(ctx, ev.connID, ev.data)
	case eventDisconnect:
		r.handleDisconnect(ctx, ev.connID)
	case eventValidateJoin:
		cred, err := r.credentials.ValidateGameJoin(ctx, ev.token)
		ev.reply <- joinResult{cred: cred, err: err}
	}
}

func (r *Router) handleConnect(ctx context.Context, conn Conn, token string) {
	connID := conn.ID()
	r.conns[connID] = conn
	r.connCount.Store(int64(len(r.conns)))
	r.logger.Debug("connection opened", slog.String("conn_id", connID))

	if token == "" {
		return
	}

	cred, err := r.credentials.ValidateResume(ctx, token)
	if err != nil {
		if !credential.IsAuthError(err) {
			r.logger.Warn("resume validation failed",
				slog.String("conn_id", connID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	p, err := r.parties.Reconnect(ctx, cred.PartyID, cred.PlayerID)
	if err != nil {
		r.logger.Debug("resume target gone",
			slog.String("party_id", string(cred.PartyID)),
			slog.String("error", err.Error()),
		)
		return
	}

	r.bind(connID, p, cred.PlayerID)
	r.send(connID, EventState, PartyStateFromModel(p))
	r.broadcastState(ctx, p.ID, connID)

	r.logger.Info("player reconnected",
		slog.String("party_id", string(p.ID)),
		slog.String("player_id", string(cred.PlayerID)),
		slog.String("conn_id", connID),
	)
}

func (r *Router) handleDisconnect(ctx context.Context, connID string) {
	if _, ok := r.conns[connID]; !ok {
		return
	}
	r.detach(ctx, connID)
	delete(r.conns, connID)
	r.connCount.Store(int64(len(r.conns)))
	r.logger.Debug("connection closed", slog.String("conn_id", connID))
}

func (r *Router) handleMessage(ctx context.Context, connID string, data []byte) {
	if _, ok := r.conns[connID]; !ok {
		return
	}

	env, err := Decode(data)
	if err != nil {
		r.sendError(connID, CodeInvalidMessage, err)
		return
	}

	switch env.Type {
	case EventCreate:
		r.handleCreate(ctx, connID, env)
	case EventJoin:
		r.handleJoin(ctx, connID, env)
	case EventLeave:
		r.detach(ctx, connID)
	case EventSetRole:
		r.handleSetRole(ctx, connID, env)
	case EventSelectGame:
		r.handleSelectGame(ctx, connID, env)
	case EventStart:
		r.handleStart(ctx, connID)
	default:
		r.sendError(connID, CodeInvalidMessage, model.NewValidationError("type", "unknown event "+env.Type))
	}
}

func (r *Router) handleCreate(ctx context.Context, connID string, env Envelope) {
	req, err := ParseCreate(env.Payload)
	if err != nil {
		r.sendError(connID, CodeCreateFailed, err)
		return
	}

	p, playerID, err := r.parties.Create(ctx, req.Name, req.GameID)
	if err != nil {
		r.sendError(connID, CodeCreateFailed, err)
		return
	}

	token, err := r.credentials.IssueResume(ctx, p.ID, playerID, true)
	if err != nil {
		r.abandonPlayer(ctx, p.ID, playerID)
		r.sendError(connID, CodeCreateFailed, err)
		return
	}

	r.attach(ctx, connID, p, playerID, token)
}

func (r *Router) handleJoin(ctx context.Context, connID string, env Envelope) {
	req, err := ParseJoin(env.Payload)
	if err != nil {
		r.sendError(connID, CodeJoinFailed, err)
		return
	}

	p, playerID, err := r.parties.Join(ctx, req.PartyID, req.Name)
	if err != nil {
		r.sendError(connID, CodeJoinFailed, err)
		return
	}

	token, err := r.credentials.IssueResume(ctx, p.ID, playerID, false)
	if err != nil {
		r.abandonPlayer(ctx, p.ID, playerID)
		r.sendError(connID, CodeJoinFailed, err)
		return
	}

	r.attach(ctx, connID, p, playerID, token)
}

func (r *Router) handleSetRole(ctx context.Context, connID string, env Envelope) {
	req, err := ParseSetRole(env.Payload)
	if err != nil {
		r.sendError(connID, CodeSetRoleFailed, err)
		return
	}

	binding, ok := r.bindings[connID]
	if !ok {
		r.sendError(connID, CodeNotInParty, ErrNotInParty)
		return
	}

	if _, err := r.parties.SetRole(ctx, binding.PartyID, req.PlayerID, req.Role, binding.PlayerID); err != nil {
		r.sendError(connID, CodeSetRoleFailed, err)
		return
	}
	r.broadcastState(ctx, binding.PartyID, "")
}

func (r *Router) handleSelectGame(ctx context.Context, connID string, env Envelope) {
	req, err := ParseSelectGame(env.Payload)
	if err != nil {
		r.sendError(connID, CodeSelectGameFailed, err)
		return
	}

	binding, ok := r.bindings[connID]
	if !ok {
		r.sendError(connID, CodeNotInParty, ErrNotInParty)
		return
	}

	if _, err := r.parties.SelectGame(ctx, binding.PartyID, req.GameID, binding.PlayerID); err != nil {
		r.sendError(connID, CodeSelectGameFailed, err)
		return
	}

	if !r.isRegistered(req.GameID) {
		r.logger.Debug("unregistered game selected",
			slog.String("party_id", string(binding.PartyID)),
			slog.String("game_id", string(req.GameID)),
		)
	}
	r.broadcastState(ctx, binding.PartyID, "")
}

func (r *Router) handleStart(ctx context.Context, connID string) {
	binding, ok := r.bindings[connID]
	if !ok {
		r.sendError(connID, CodeNotInParty, ErrNotInParty)
		return
	}

	p, err := r.parties.Start(ctx, binding.PartyID, binding.PlayerID)
	if err != nil {
		r.sendError(connID, CodeStartFailed, err)
		return
	}

	gameID := *p.GameID
	if !r.isRegistered(gameID) {
		r.logger.Info("starting unregistered game, placeholder hand-off",
			slog.String("party_id", string(p.ID)),
			slog.String("game_id", string(gameID)),
		)
	}

	namespace := games.Namespace(gameID)
	for _, pl := range p.ConnectedPlayers() {
		token, err := r.credentials.IssueGameJoin(ctx, p.ID, pl.ID, p.SessionID)
		if err != nil {
			r.logger.Error("failed to issue game join credential",
				slog.String("party_id", string(p.ID)),
				slog.String("player_id", string(pl.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		payload := GameStartedPayload{
			GameID:      string(gameID),
			SessionID:   string(p.SessionID),
			WSNamespace: namespace,
			JoinToken:   token,
		}
		for _, id := range r.playerConns(p.ID, pl.ID) {
			r.send(id, EventGameStarted, payload)
		}
	}

	r.broadcastState(ctx, p.ID, "")
}

// attach binds a connection to a freshly created or joined player. A
// connection that was already bound first leaves its old party.
func (r *Router) attach(ctx context.Context, connID string, p *model.Party, playerID model.PlayerID, token string) {
	if _, bound := r.bindings[connID]; bound {
		r.detach(ctx, connID)
	}

	r.bind(connID, p, playerID)
	r.send(connID, EventJoined, JoinedPayload{
		PartyID:  string(p.ID),
		PlayerID: string(playerID),
		Token:    token,
	})
	r.broadcastState(ctx, p.ID, "")
}

func (r *Router) bind(connID string, p *model.Party, playerID model.PlayerID) {
	r.bindings[connID] = ConnectionContext{
		ConnectionID: connID,
		PartyID:      p.ID,
		PlayerID:     playerID,
		IsHost:       p.IsHost(playerID),
	}
	room, ok := r.rooms[p.ID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[p.ID] = room
	}
	room[connID] = struct{}{}
}

// detach unbinds a connection. The player is only marked disconnected once
// none of their connections remain bound.
func (r *Router) detach(ctx context.Context, connID string) {
	binding, ok := r.bindings[connID]
	if !ok {
		return
	}
	delete(r.bindings, connID)
	if room, ok := r.rooms[binding.PartyID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, binding.PartyID)
		}
	}

	if len(r.playerConns(binding.PartyID, binding.PlayerID)) > 0 {
		return
	}

	p, err := r.parties.Disconnect(ctx, binding.PartyID, binding.PlayerID)
	if err != nil {
		r.logger.Warn("disconnect failed",
			slog.String("party_id", string(binding.PartyID)),
			slog.String("player_id", string(binding.PlayerID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if p == nil {
		delete(r.rooms, binding.PartyID)
		return
	}
	r.broadcastState(ctx, p.ID, "")
}

// abandonPlayer rolls back a player whose credential could not be issued
func (r *Router) abandonPlayer(ctx context.Context, partyID model.PartyID, playerID model.PlayerID) {
	if _, err := r.parties.Disconnect(ctx, partyID, playerID); err != nil {
		r.logger.Warn("rollback failed",
			slog.String("party_id", string(partyID)),
			slog.String("error", err.Error()),
		)
	}
}

// playerConns returns the connections bound to a player in a party
func (r *Router) playerConns(partyID model.PartyID, playerID model.PlayerID) []string {
	var ids []string
	for id := range r.rooms[partyID] {
		if r.bindings[id].PlayerID == playerID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Router) isRegistered(gameID model.GameID) bool {
	return r.registry != nil && r.registry.IsRegistered(gameID)
}

// broadcastState sends the current snapshot to every connection in the
// party except exclude
func (r *Router) broadcastState(ctx context.Context, partyID model.PartyID, exclude string) {
	p, err := r.parties.Get(ctx, partyID)
	if err != nil {
		if !errors.Is(err, model.ErrPartyNotFound) {
			r.logger.Warn("failed to load party for broadcast",
				slog.String("party_id", string(partyID)),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	msg, err := Encode(EventState, PartyStateFromModel(p))
	if err != nil {
		r.logger.Error("failed to encode party state", slog.String("error", err.Error()))
		return
	}

	for id := range r.rooms[partyID] {
		if id != exclude {
			r.write(id, msg)
		}
	}
}

func (r *Router) send(connID string, eventType string, payload any) {
	msg, err := Encode(eventType, payload)
	if err != nil {
		r.logger.Error("failed to encode message",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	r.write(connID, msg)
}

func (r *Router) sendError(connID string, code string, err error) {
	payload, known := toErrorPayload(code, err)
	if !known {
		r.logger.Error("request failed",
			slog.String("conn_id", connID),
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
	r.send(connID, EventError, payload)
}

func (r *Router) write(connID string, msg []byte) {
	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	if !conn.Send(msg) {
		r.logger.Warn("message dropped - client buffer full", slog.String("conn_id", connID))
	}
}
