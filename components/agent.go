package components

import "fmt"

// Status is the agent state machine state.
type Status uint8

const (
	Idle Status = iota
	MoveToMine
	Mining
	MoveToDropoff
	EndGame
	CreateDropoff
)

// Target is an optional coordinate.
type Target struct {
	Pos Coord
	Set bool
}

// At returns a set target.
func At(c Coord) Target {
	return Target{Pos: c, Set: true}
}

// Agent is the planner's long-lived view of one friendly ship.
type Agent struct {
	ID     int
	Pos    Coord
	Cargo  int
	Status Status

	Mine          Target // assigned harvesting cell
	Dropoff       Target // assigned collection point
	CreateDropoff Target // cell to convert into a dropoff

	CooldownMine       int
	CooldownMoveToMine int
}

// NewAgent returns an Idle agent.
func NewAgent(id int, pos Coord, cargo int) *Agent {
	return &Agent{ID: id, Pos: pos, Cargo: cargo, Status: Idle}
}

// Intent is an agent's desired destination for this turn.
type Intent struct {
	ID   int
	From Coord
	To   Coord
}

// Move is one resolved scheduler output.
type Move struct {
	ID  int
	Dir Direction
}

func (a *Agent) String() string {
	return fmt.Sprintf("agent{id=%d pos=%v cargo=%d status=%s mine=%v dropoff=%v}",
		a.ID, a.Pos, a.Cargo, a.Status, a.Mine, a.Dropoff)
}
