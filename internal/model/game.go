package model

// GameDefinition describes a game type that parties can select
type GameDefinition struct {
	ID         GameID
	Name       string
	MinPlayers int
	MaxPlayers int
	Roles      []string // Optional role names the game understands
}
