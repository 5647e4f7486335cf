package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyhub/internal/api"
	"github.com/mcoot/partyhub/internal/factory"
	"github.com/mcoot/partyhub/internal/realtime"
)

const gamesCatalog = `games:
  - id: chess
    name: Chess
    min_players: 2
    max_players: 2
    roles: [white, black]
  - id: trivia
    name: Trivia Night
    min_players: 2
    max_players: 12
`

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	catalogPath := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(gamesCatalog), 0o600))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	app, err := factory.New(factory.Config{
		GamesCatalog: catalogPath,
		Logger:       logger,
	})
	require.NoError(t, err)

	routerCtx, stopRouter := context.WithCancel(context.Background())
	routerDone := make(chan struct{})
	go func() {
		app.Router.Run(routerCtx)
		close(routerDone)
	}()

	server := &http.Server{
		Addr: addr,
		Handler: api.NewRouter(api.RouterConfig{
			Logger:   logger,
			Parties:  app.Storage,
			Registry: app.Registry,
			Realtime: app.Router,
		}),
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			stopRouter()
			<-routerDone
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// wsClient is one browser-like /platform connection
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (ts *testServer) dial(t *testing.T, token string) *wsClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.addr, "http") + "/platform"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(eventType string, payload any) {
	c.t.Helper()
	data, err := realtime.Encode(eventType, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, data))
}

func (c *wsClient) next() realtime.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	env, err := realtime.Decode(data)
	require.NoError(c.t, err)
	return env
}

// expect reads the next event, requires its type and decodes the payload
func expect[T any](c *wsClient, eventType string) T {
	c.t.Helper()
	env := c.next()
	require.Equal(c.t, eventType, env.Type, "payload: %s", string(env.Payload))
	var v T
	require.NoError(c.t, json.Unmarshal(env.Payload, &v))
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// buildCLI compiles partyctl into a temp directory
func buildCLI(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "partyctl")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/partyctl")
	cmd.Dir = findProjectRoot(t)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))
	return binaryPath
}
