package factory

import (
	"time"

	"github.com/mcoot/partyhub/internal/dependencies/mocks"
	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/realtime"
	"github.com/mcoot/partyhub/internal/services/credential"
	"github.com/mcoot/partyhub/internal/storage/memory"
	"github.com/mcoot/partyhub/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The credential sweep is disabled so expiry is driven only by MockClock.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		store,
		mockClock,
		mockRandom,
		credential.DefaultConfig(),
		realtime.Config{EventBuffer: realtime.DefaultConfig().EventBuffer},
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// RegisterTestGames adds a small fixed catalog to the registry
func (t *TestApp) RegisterTestGames() error {
	defs := []model.GameDefinition{
		{ID: "chess", Name: "Chess", MinPlayers: 2, MaxPlayers: 2, Roles: []string{"white", "black"}},
		{ID: "trivia", Name: "Trivia Night", MinPlayers: 2, MaxPlayers: 12},
	}
	for _, def := range defs {
		if err := t.Registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
