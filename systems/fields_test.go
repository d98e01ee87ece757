package systems

import (
	"testing"

	"github.com/pthm-cable/fleet/components"
)

func TestGridWrapRoundTrip(t *testing.T) {
	g := NewGrid[int](components.C(4, 6))
	coords := []components.Coord{
		components.C(0, 0), components.C(3, 5), components.C(-1, -1),
		components.C(4, 6), components.C(17, -23), components.C(-400, 401),
	}
	for i, c := range coords {
		g.Set(c, i+1)
		if got := g.Get(c); got != i+1 {
			t.Errorf("Get(%v) after Set = %d, want %d", c, got, i+1)
		}
		if got := g.Get(c.Wrap(g.Dim())); got != i+1 {
			t.Errorf("Get(wrapped %v) = %d, want %d", c, got, i+1)
		}
	}
}

func TestAreaSumWraps(t *testing.T) {
	f := NewResourceField(components.C(5, 5))
	f.Set(components.C(0, 0), 100)
	f.Set(components.C(4, 4), 10)
	f.Set(components.C(2, 2), 1)

	if got := f.AreaSum(components.C(0, 0), 1); got != 110 {
		t.Errorf("AreaSum((0,0),1) = %d, want 110", got)
	}
	if got := f.AreaSum(components.C(2, 2), 0); got != 1 {
		t.Errorf("AreaSum((2,2),0) = %d, want 1", got)
	}
	if got := f.Total(); got != 111 {
		t.Errorf("Total() = %d, want 111", got)
	}
	if got := f.Average(); got != 111.0/25 {
		t.Errorf("Average() = %v, want %v", got, 111.0/25)
	}
}

func TestUnitFieldIndexTracksGrid(t *testing.T) {
	f := NewUnitField(components.C(4, 4))
	f.Set(components.C(1, 1), components.Ship(0, 7, 300))
	f.Set(components.C(-1, 2), components.Ship(0, 8, 0))
	f.Set(components.C(0, 0), components.Ship(1, 7, 50))

	got := f.AgentsOf(0)
	if len(got) != 2 {
		t.Fatalf("AgentsOf(0) returned %d ships, want 2", len(got))
	}
	if got[0].ID != 7 || got[0].Pos != components.C(1, 1) || got[0].Cargo != 300 {
		t.Errorf("AgentsOf(0)[0] = %+v", got[0])
	}
	if got[1].ID != 8 || got[1].Pos != components.C(3, 2) {
		t.Errorf("AgentsOf(0)[1] = %+v, want id 8 at (3,2)", got[1])
	}

	f.Remove(components.C(1, 1))
	if f.Occupied(components.C(1, 1)) {
		t.Error("cell still occupied after Remove")
	}
	if _, ok := f.Lookup(0, 7); ok {
		t.Error("index still holds removed ship")
	}
	if n := len(f.AgentsOf(0)); n != 1 {
		t.Errorf("AgentsOf(0) after Remove = %d ships, want 1", n)
	}
}

func TestUnitFieldSetRelocatesShip(t *testing.T) {
	f := NewUnitField(components.C(3, 3))
	ship := components.Ship(0, 1, 0)
	f.Set(components.C(0, 0), ship)
	f.Set(components.C(0, 1), ship)

	if f.Occupied(components.C(0, 0)) {
		t.Error("old cell still holds the ship")
	}
	if c, _ := f.Lookup(0, 1); c != components.C(0, 1) {
		t.Errorf("Lookup = %v, want (0,1)", c)
	}
}

func TestUnitFieldOverwriteDropsIndex(t *testing.T) {
	f := NewUnitField(components.C(3, 3))
	f.Set(components.C(1, 1), components.Ship(2, 5, 0))
	f.Set(components.C(1, 1), components.Ship(0, 1, 0))

	if _, ok := f.Lookup(2, 5); ok {
		t.Error("overwritten ship still indexed")
	}
	if len(f.AgentsOf(2)) != 0 {
		t.Error("AgentsOf(2) should be empty")
	}
}

func TestUnitFieldMoveAndSwap(t *testing.T) {
	f := NewUnitField(components.C(3, 3))
	f.Set(components.C(0, 0), components.Ship(0, 1, 0))
	f.Set(components.C(0, 1), components.Ship(0, 2, 0))

	f.Swap(components.C(0, 0), components.C(0, 1))
	if c, _ := f.Lookup(0, 1); c != components.C(0, 1) {
		t.Errorf("ship 1 at %v after swap, want (0,1)", c)
	}
	if c, _ := f.Lookup(0, 2); c != components.C(0, 0) {
		t.Errorf("ship 2 at %v after swap, want (0,0)", c)
	}

	if !f.Move(components.C(0, 0), components.C(2, 2)) {
		t.Fatal("Move from occupied cell returned false")
	}
	if f.Move(components.C(1, 1), components.C(2, 1)) {
		t.Error("Move from empty cell returned true")
	}
	if c, _ := f.Lookup(0, 2); c != components.C(2, 2) {
		t.Errorf("ship 2 at %v after move, want (2,2)", c)
	}
	// (2,2) holds ship 2 and (0,1) is south of (2,1) after wrapping.
	if f.FreeNeighbors(components.C(2, 1)) != 2 {
		t.Errorf("FreeNeighbors((2,1)) = %d, want 2", f.FreeNeighbors(components.C(2, 1)))
	}
}

func TestDropoffNearest(t *testing.T) {
	f := NewDropoffField(components.C(10, 10))
	f.Set(0, components.ShipyardID, components.C(5, 5))
	f.Set(0, 3, components.C(0, 0))
	f.Set(1, components.ShipyardID, components.C(9, 9))

	got, ok := f.Nearest(0, components.C(9, 8))
	if !ok || got != components.C(0, 0) {
		t.Errorf("Nearest(0, (9,8)) = %v, %v, want (0,0)", got, ok)
	}
	if owner, ok := f.Owner(components.C(9, 9)); !ok || owner != 1 {
		t.Errorf("Owner((9,9)) = %d, %v, want 1", owner, ok)
	}
	if _, ok := f.Owner(components.C(1, 1)); ok {
		t.Error("Owner((1,1)) should be unowned")
	}
	if _, ok := f.Nearest(4, components.C(0, 0)); ok {
		t.Error("Nearest for a player without dropoffs should fail")
	}
	if ds := f.DropoffsOf(0); len(ds) != 2 || ds[0] != components.C(5, 5) {
		t.Errorf("DropoffsOf(0) = %v, want shipyard first", ds)
	}
}
