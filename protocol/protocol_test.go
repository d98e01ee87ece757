package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pthm-cable/fleet/components"
)

const transcript = `{"MAX_TURNS":400,"MAX_ENERGY":1000,"NEW_ENTITY_ENERGY_COST":1000,"DROPOFF_COST":4000,"EXTRACT_RATIO":4,"MOVE_COST_RATIO":10,"INITIAL_ENERGY":5000,"game_seed":42,"CAPTURE_ENABLED":false}
2 1
0 1 1
1 2 0
3 2
10 20 30
40 50 60
1
0 1 0 1000
3 1 1 0
1 1 1 2000
5 2 0 750
7 0 1
2
1 1 0
0 0 99
`

func TestBotConnReadsTranscript(t *testing.T) {
	var out bytes.Buffer
	c := NewBotConn(strings.NewReader(transcript), &out)

	setup, err := c.ReadInit()
	if err != nil {
		t.Fatalf("ReadInit: %v", err)
	}
	if setup.Constants.MaxTurns != 400 || setup.Constants.DropoffCost != 4000 || setup.Constants.Seed != 42 {
		t.Errorf("constants = %+v", setup.Constants)
	}
	if setup.NumPlayers != 2 || setup.MyID != 1 {
		t.Errorf("players = %d, me = %d", setup.NumPlayers, setup.MyID)
	}
	if got := setup.Shipyards[1].Pos; got != components.C(0, 2) {
		t.Errorf("shipyard 1 at %v, want row 0 col 2", got)
	}
	if setup.Dim != components.C(2, 3) {
		t.Errorf("dim = %v, want 2 rows x 3 cols", setup.Dim)
	}
	if setup.Halite[1][2] != 60 {
		t.Errorf("halite[1][2] = %d, want 60", setup.Halite[1][2])
	}

	fr, err := c.ReadFrame(setup.NumPlayers)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if fr.Turn != 1 || len(fr.Players) != 2 {
		t.Fatalf("frame = %+v", fr)
	}
	p0 := fr.Players[0]
	if p0.Halite != 1000 || len(p0.Ships) != 1 || len(p0.Dropoffs) != 0 || p0.Ships[0].Pos != components.C(1, 1) {
		t.Errorf("player 0 = %+v", p0)
	}
	p1 := fr.Players[1]
	if len(p1.Dropoffs) != 1 || p1.Dropoffs[0].Pos != components.C(1, 0) {
		t.Errorf("player 1 dropoffs = %+v", p1.Dropoffs)
	}
	if len(p1.Ships) != 1 || p1.Ships[0].ID != 5 || p1.Ships[0].Pos != components.C(0, 2) || p1.Ships[0].Cargo != 750 {
		t.Errorf("player 1 ships = %+v", p1.Ships)
	}
	if len(fr.Updates) != 2 || fr.Updates[1].Halite != 99 {
		t.Errorf("updates = %+v", fr.Updates)
	}

	if err := c.SendName("fleet"); err != nil {
		t.Fatal(err)
	}
	if err := c.SendCommands([]Command{Move(5, components.West), Convert(7), Spawn()}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendCommands(nil); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "fleet\nm 5 w c 7 g\n\n"; got != want {
		t.Errorf("sent %q, want %q", got, want)
	}
}

func TestEngineConnFeedsBot(t *testing.T) {
	var wire bytes.Buffer
	eng := NewEngineConn(strings.NewReader("alpha\nm 3 n g\n"), &wire)
	setup := &Init{
		Constants:  Constants{MaxTurns: 10, ExtractRatio: 4},
		NumPlayers: 1,
		Shipyards:  []Shipyard{{Player: 0, Pos: components.C(1, 0)}},
		Dim:        components.C(2, 2),
		Halite:     [][]int{{1, 2}, {3, 4}},
	}
	if err := eng.WriteInit(setup); err != nil {
		t.Fatal(err)
	}
	frame := &Frame{
		Turn:    1,
		Players: []PlayerFrame{{ID: 0, Halite: 5000, Ships: []ShipFrame{{ID: 3, Pos: components.C(1, 0)}}}},
		Updates: []CellUpdate{{Pos: components.C(0, 1), Halite: 7}},
	}
	if err := eng.WriteFrame(frame); err != nil {
		t.Fatal(err)
	}

	bot := NewBotConn(&wire, &bytes.Buffer{})
	got, err := bot.ReadInit()
	if err != nil {
		t.Fatalf("ReadInit: %v", err)
	}
	if got.Shipyards[0].Pos != components.C(1, 0) || got.Halite[1][0] != 3 {
		t.Errorf("init = %+v", got)
	}
	fr, err := bot.ReadFrame(1)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if fr.Players[0].Ships[0].Pos != components.C(1, 0) || fr.Updates[0].Pos != components.C(0, 1) {
		t.Errorf("frame = %+v", fr)
	}

	name, err := eng.ReadName()
	if err != nil || name != "alpha" {
		t.Errorf("ReadName = %q, %v", name, err)
	}
	cmds, err := eng.ReadCommands()
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 || cmds[0] != Move(3, components.North) || cmds[1].Kind != CmdSpawn {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestParseCommandsErrors(t *testing.T) {
	for _, line := range []string{"m 1", "m x n", "m 1 q", "c", "z"} {
		if _, err := ParseCommands(line); err == nil {
			t.Errorf("ParseCommands(%q) succeeded, want error", line)
		}
	}
	cmds, err := ParseCommands("  ")
	if err != nil || len(cmds) != 0 {
		t.Errorf("blank line = %v, %v", cmds, err)
	}
}

func TestReadFrameShortInput(t *testing.T) {
	c := NewBotConn(strings.NewReader("4\n0 2 0 100\n1 0 0 0\n"), &bytes.Buffer{})
	if _, err := c.ReadFrame(1); err == nil {
		t.Error("ReadFrame accepted a truncated ship list")
	}
}
