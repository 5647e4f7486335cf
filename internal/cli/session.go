package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/partyhub/internal/realtime"
)

const sessionWriteWait = 10 * time.Second

// Session is a client connection to the /platform WebSocket
type Session struct {
	conn   *websocket.Conn
	events chan realtime.Envelope
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial opens a session. A non-empty token is presented as a resume credential.
func Dial(ctx context.Context, serverURL, token string) (*Session, error) {
	wsURL, err := platformURL(serverURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connect to %s: %w (HTTP %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connect to %s: %w", wsURL, err)
	}

	s := &Session{
		conn:   conn,
		events: make(chan realtime.Envelope, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// platformURL maps an http(s) server URL onto its ws(s) /platform endpoint
func platformURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/platform"
	u.RawQuery = ""
	return u.String(), nil
}

// Events returns server events in arrival order. The channel is closed
// when the connection ends.
func (s *Session) Events() <-chan realtime.Envelope {
	return s.events
}

// Send writes one client event
func (s *Session) Send(eventType string, payload any) error {
	data, err := realtime.Encode(eventType, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}

// Close sends a close frame and tears down the connection
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(sessionWriteWait))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Session) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := realtime.Decode(data)
		if err != nil {
			continue
		}
		select {
		case s.events <- env:
		case <-s.done:
			return
		}
	}
}

var errUnknownCommand = errors.New("unknown command")

// command is one parsed stdin line
type command struct {
	eventType string
	payload   any
}

// parseCommand turns an interactive line into a client event
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errUnknownCommand
	}

	switch strings.ToLower(fields[0]) {
	case "select":
		if len(fields) != 2 {
			return command{}, errors.New("usage: select <game-id>")
		}
		return command{realtime.EventSelectGame, map[string]any{"gameId": fields[1]}}, nil

	case "role":
		if len(fields) < 2 {
			return command{}, errors.New("usage: role <player-id> [role]")
		}
		var role *string
		if len(fields) > 2 {
			r := strings.Join(fields[2:], " ")
			role = &r
		}
		return command{realtime.EventSetRole, map[string]any{"playerId": fields[1], "role": role}}, nil

	case "start":
		return command{realtime.EventStart, struct{}{}}, nil

	case "leave":
		return command{realtime.EventLeave, struct{}{}}, nil

	default:
		return command{}, fmt.Errorf("%w %q (try: select, role, start, leave)", errUnknownCommand, fields[0])
	}
}
