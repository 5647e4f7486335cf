package e2e_test

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyhub/internal/api/response"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		binaryPath: buildCLI(t),
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func TestCLI_HealthAndGames(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)
	var health response.Health
	require.NoError(t, json.Unmarshal([]byte(output), &health))
	assert.Equal(t, "ok", health.Status)

	output, err = cli.run("games")
	require.NoError(t, err, "output: %s", output)
	var list response.GameList
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Games, 2)
	assert.Equal(t, "chess", list.Games[0].ID)
	assert.Equal(t, "trivia", list.Games[1].ID)
}

func TestCLI_ValidateTokenRejectsGarbage(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("games", "validate-token", "jt_garbage")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_JOIN_TOKEN")
}
