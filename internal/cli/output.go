package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/partyhub/internal/api/response"
	"github.com/mcoot/partyhub/internal/realtime"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one server event. JSON mode writes the raw envelope
// on a single line so sessions can be piped through line-based tools.
func (o *Output) PrintEvent(env realtime.Envelope) {
	if o.format == "json" {
		data, _ := json.Marshal(env)
		fmt.Fprintln(o.w, string(data))
		return
	}

	switch env.Type {
	case realtime.EventJoined:
		var p realtime.JoinedPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			fmt.Fprintf(o.w, "Joined party %s as %s\n", p.PartyID, p.PlayerID)
			return
		}
	case realtime.EventState:
		var p realtime.PartyState
		if json.Unmarshal(env.Payload, &p) == nil {
			o.printPartyState(p)
			return
		}
	case realtime.EventError:
		var p realtime.ErrorPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			fmt.Fprintf(o.w, "Error [%s]: %s\n", p.Code, p.Message)
			return
		}
	case realtime.EventGameStarted:
		var p realtime.GameStartedPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			fmt.Fprintf(o.w, "Game %s started (session %s)\n", p.GameID, p.SessionID)
			fmt.Fprintf(o.w, "Namespace: %s\n", p.WSNamespace)
			fmt.Fprintf(o.w, "Join token: %s\n", p.JoinToken)
			return
		}
	}
	fmt.Fprintf(o.w, "%s: %s\n", env.Type, string(env.Payload))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.GameList:
		o.printGameList(v)
	case response.Game:
		o.printGame(v)
	case response.JoinTokenValidation:
		o.printJoinTokenValidation(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Parties: %d\n", h.Parties)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games registered")
		return
	}
	for _, g := range l.Games {
		fmt.Fprintf(o.w, "%-16s %s (%d-%d players)\n", g.ID, g.Name, g.MinPlayers, g.MaxPlayers)
	}
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (%s)\n", g.Name, g.ID)
	fmt.Fprintf(o.w, "Players: %d-%d\n", g.MinPlayers, g.MaxPlayers)
	if len(g.Roles) > 0 {
		fmt.Fprintf(o.w, "Roles: %s\n", strings.Join(g.Roles, ", "))
	}
	fmt.Fprintf(o.w, "Namespace: %s\n", g.WSNamespace)
}

func (o *Output) printJoinTokenValidation(v response.JoinTokenValidation) {
	fmt.Fprintf(o.w, "Party: %s\n", v.PartyID)
	fmt.Fprintf(o.w, "Player: %s\n", v.PlayerID)
	fmt.Fprintf(o.w, "Session: %s\n", v.SessionID)
	fmt.Fprintf(o.w, "Expires: %s\n", v.ExpiresAt)
}

func (o *Output) printPartyState(p realtime.PartyState) {
	game := "none"
	if p.GameID != nil {
		game = *p.GameID
	}
	fmt.Fprintf(o.w, "Party %s [%s] game: %s\n", p.ID, p.Status, game)
	for _, pl := range p.Players {
		var tags []string
		if pl.ID == p.HostID {
			tags = append(tags, "host")
		}
		if pl.ID == p.OwnerID {
			tags = append(tags, "owner")
		}
		if !pl.Connected {
			tags = append(tags, "away")
		}
		if pl.Role != nil {
			tags = append(tags, "role="+*pl.Role)
		}
		line := fmt.Sprintf("  %s (%s)", pl.Name, pl.ID)
		if len(tags) > 0 {
			line += " " + strings.Join(tags, " ")
		}
		fmt.Fprintln(o.w, line)
	}
}
