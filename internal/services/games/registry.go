package games

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/partyhub/internal/model"
)

// NamespacePrefix is prepended to a game ID to form its connection namespace
const NamespacePrefix = "/g/"

// Registry holds the game definitions parties can select. Membership is
// advisory: parties may still start a game that is not registered.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	games map[model.GameID]model.GameDefinition
}

// catalog is the on-disk YAML layout
type catalog struct {
	Games []catalogEntry `yaml:"games"`
}

type catalogEntry struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	MinPlayers int      `yaml:"min_players"`
	MaxPlayers int      `yaml:"max_players"`
	Roles      []string `yaml:"roles"`
}

// New creates an empty Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("component", "game-registry")),
		games:  make(map[model.GameID]model.GameDefinition),
	}
}

// Register adds or replaces a game definition
func (r *Registry) Register(def model.GameDefinition) error {
	if def.ID == "" {
		return model.NewValidationError("id", "game id is required")
	}
	if def.MinPlayers < 0 || (def.MaxPlayers > 0 && def.MaxPlayers < def.MinPlayers) {
		return model.NewValidationError("max_players", "must not be below min_players")
	}

	r.mu.Lock()
	r.games[def.ID] = def
	r.mu.Unlock()

	r.logger.Info("registered game",
		slog.String("game_id", string(def.ID)),
		slog.String("name", def.Name),
	)
	return nil
}

// Get returns the definition for a game
func (r *Registry) Get(id model.GameID) (model.GameDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.games[id]
	if !ok {
		return model.GameDefinition{}, model.ErrGameNotFound
	}
	return def, nil
}

// IsRegistered reports whether a game is known
func (r *Registry) IsRegistered(id model.GameID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.games[id]
	return ok
}

// All returns every registered game sorted by ID
func (r *Registry) All() []model.GameDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.GameDefinition, 0, len(r.games))
	for _, def := range r.games {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Namespace returns the connection namespace a game session runs under
func Namespace(id model.GameID) string {
	return NamespacePrefix + string(id)
}

// LoadFile registers every game in a YAML catalog
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read game catalog: %w", err)
	}
	return r.LoadYAML(data)
}

// LoadYAML registers every game in YAML catalog data
func (r *Registry) LoadYAML(data []byte) error {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse game catalog: %w", err)
	}

	for _, entry := range c.Games {
		def := model.GameDefinition{
			ID:         model.GameID(entry.ID),
			Name:       entry.Name,
			MinPlayers: entry.MinPlayers,
			MaxPlayers: entry.MaxPlayers,
			Roles:      entry.Roles,
		}
		if err := r.Register(def); err != nil {
			return fmt.Errorf("game %q: %w", entry.ID, err)
		}
	}
	return nil
}
