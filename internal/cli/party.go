package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/partyhub/internal/realtime"
)

// sessionOptions controls when an interactive session ends
type sessionOptions struct {
	// linger is how long to keep printing events after stdin closes
	// or the game starts
	linger      time.Duration
	exitOnStart bool
}

func newPartyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Interactive party sessions",
		Long: `Open a party session over the /platform WebSocket.

Server events are printed as they arrive. Lines read from stdin are sent as
requests:
  select <game-id>          select the game (host only)
  role <player-id> [role]   set or clear a player's role (host only)
  start                     start the game (host only)
  leave                     leave the party and exit

The resume token from party:joined is saved to the token file so that
"party resume" can reclaim the same seat later.`,
	}

	cmd.AddCommand(newPartyCreateCmd())
	cmd.AddCommand(newPartyJoinCmd())
	cmd.AddCommand(newPartyResumeCmd())

	return cmd
}

func addSessionFlags(cmd *cobra.Command, opts *sessionOptions) {
	cmd.Flags().DurationVar(&opts.linger, "linger", time.Second, "Keep printing events this long after stdin closes")
	cmd.Flags().BoolVar(&opts.exitOnStart, "exit-on-start", false, "Exit shortly after the game starts")
}

func newPartyCreateCmd() *cobra.Command {
	var (
		name   string
		gameID string
		opts   sessionOptions
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a party and become its host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{"name": name}
			if gameID != "" {
				payload["gameId"] = gameID
			}
			return openSession(cmd, "", &command{realtime.EventCreate, payload}, opts)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&gameID, "game", "", "Game to preselect")
	_ = cmd.MarkFlagRequired("name")
	addSessionFlags(cmd, &opts)

	return cmd
}

func newPartyJoinCmd() *cobra.Command {
	var (
		name string
		opts sessionOptions
	)

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a party by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{"partyId": args[0], "name": name}
			return openSession(cmd, "", &command{realtime.EventJoin, payload}, opts)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")
	addSessionFlags(cmd, &opts)

	return cmd
}

func newPartyResumeCmd() *cobra.Command {
	var opts sessionOptions

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Reconnect to a party with the saved resume token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return errors.New("no resume token: create or join a party first, or pass --token")
			}
			return openSession(cmd, cfg.Token, nil, opts)
		},
	}

	addSessionFlags(cmd, &opts)

	return cmd
}

// openSession dials /platform, sends the opening request if any, and runs
// the interactive loop until the user leaves or the connection ends
func openSession(cmd *cobra.Command, token string, first *command, opts sessionOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := Dial(ctx, cfg.ServerURL, token)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if first != nil {
		if err := sess.Send(first.eventType, first.payload); err != nil {
			return err
		}
	}

	return runSession(ctx, sess, cmd.InOrStdin(), out, opts)
}

func runSession(ctx context.Context, sess *Session, in io.Reader, out *Output, opts sessionOptions) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	events := sess.Events()
	var lingerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-lingerC:
			return nil

		case env, ok := <-events:
			if !ok {
				if cfg.Output != "json" {
					out.PrintMessage("Disconnected")
				}
				return nil
			}
			out.PrintEvent(env)
			if err := handleSessionEvent(env, out); err != nil {
				return err
			}
			if env.Type == realtime.EventGameStarted && opts.exitOnStart && lingerC == nil {
				lingerC = time.After(opts.linger)
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				if lingerC == nil {
					lingerC = time.After(opts.linger)
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			c, err := parseCommand(line)
			if err != nil {
				out.PrintError(err)
				continue
			}
			if err := sess.Send(c.eventType, c.payload); err != nil {
				return err
			}
			if c.eventType == realtime.EventLeave {
				if cfg.Output != "json" {
					out.PrintMessage("Left party")
				}
				return nil
			}
		}
	}
}

// handleSessionEvent applies client-side effects of server events
func handleSessionEvent(env realtime.Envelope, out *Output) error {
	if env.Type != realtime.EventJoined {
		return nil
	}
	var joined realtime.JoinedPayload
	if err := json.Unmarshal(env.Payload, &joined); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := cfg.SaveToken(joined.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if cfg.Verbose && cfg.Output != "json" {
		out.PrintMessage("Resume token saved to " + cfg.TokenFile)
	}
	return nil
}
