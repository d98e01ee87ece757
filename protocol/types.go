// Package protocol speaks the Halite III engine's line protocol: the
// startup block, per-turn frames and the bot's command line.
package protocol

import (
	"github.com/pthm-cable/fleet/components"
)

// Constants holds the game constants the engine sends as JSON on the first
// line. Only the values the bot uses are decoded.
type Constants struct {
	MaxTurns      int   `json:"MAX_TURNS"`
	MaxCargo      int   `json:"MAX_ENERGY"`
	ShipCost      int   `json:"NEW_ENTITY_ENERGY_COST"`
	DropoffCost   int   `json:"DROPOFF_COST"`
	ExtractRatio  int   `json:"EXTRACT_RATIO"`
	MoveCostRatio int   `json:"MOVE_COST_RATIO"`
	InitialHalite int   `json:"INITIAL_ENERGY"`
	Seed          int64 `json:"game_seed"`
}

// Shipyard is a player's spawn point.
type Shipyard struct {
	Player int
	Pos    components.Coord
}

// Init is the startup block.
type Init struct {
	Constants  Constants
	NumPlayers int
	MyID       int
	Shipyards  []Shipyard
	Dim        components.Coord // rows = height, cols = width
	Halite     [][]int          // [row][col]
}

// ShipFrame is a ship as reported in a turn frame.
type ShipFrame struct {
	ID    int
	Pos   components.Coord
	Cargo int
}

// DropoffFrame is a dropoff as reported in a turn frame.
type DropoffFrame struct {
	ID  int
	Pos components.Coord
}

// PlayerFrame is one player's block of a turn frame.
type PlayerFrame struct {
	ID       int
	Halite   int
	Ships    []ShipFrame
	Dropoffs []DropoffFrame
}

// CellUpdate is a changed halite cell.
type CellUpdate struct {
	Pos    components.Coord
	Halite int
}

// Frame is one turn's update.
type Frame struct {
	Turn    int
	Players []PlayerFrame
	Updates []CellUpdate
}

// CommandKind distinguishes bot commands.
type CommandKind uint8

const (
	CmdMove CommandKind = iota
	CmdConvert
	CmdSpawn
)

// Command is one bot instruction.
type Command struct {
	Kind CommandKind
	Ship int
	Dir  components.Direction
}

// Move returns a move command.
func Move(ship int, d components.Direction) Command {
	return Command{Kind: CmdMove, Ship: ship, Dir: d}
}

// Convert returns a convert-to-dropoff command.
func Convert(ship int) Command {
	return Command{Kind: CmdConvert, Ship: ship}
}

// Spawn returns a spawn command.
func Spawn() Command {
	return Command{Kind: CmdSpawn}
}
