package components

import "testing"

func TestWrap(t *testing.T) {
	dim := C(5, 7)
	tests := []struct {
		name string
		in   Coord
		want Coord
	}{
		{"in range", C(2, 3), C(2, 3)},
		{"negative row", C(-1, 0), C(4, 0)},
		{"negative col", C(0, -8), C(0, 6)},
		{"overflow", C(10, 14), C(0, 0)},
		{"far negative", C(-11, -15), C(4, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Wrap(dim); got != tt.want {
				t.Errorf("%v.Wrap(%v) = %v, want %v", tt.in, dim, got, tt.want)
			}
		})
	}
}

func TestDeltaTakesShortWay(t *testing.T) {
	dim := C(8, 8)
	tests := []struct {
		from, to Coord
		want     Coord
	}{
		{C(0, 0), C(0, 1), C(0, 1)},
		{C(0, 0), C(0, 7), C(0, -1)},
		{C(7, 7), C(0, 0), C(1, 1)},
		{C(1, 1), C(5, 5), C(4, 4)},
		{C(0, 0), C(-3, 9), C(-3, 1)},
	}
	for _, tt := range tests {
		if got := tt.from.Delta(tt.to, dim); got != tt.want {
			t.Errorf("%v.Delta(%v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDist(t *testing.T) {
	dim := C(5, 5)
	if got := C(0, 0).Dist(C(4, 4), dim); got != 2 {
		t.Errorf("Dist = %d, want 2", got)
	}
	if got := C(0, 0).Dist(C(2, 2), dim); got != 4 {
		t.Errorf("Dist = %d, want 4", got)
	}
}

func TestDirectionRoundTrip(t *testing.T) {
	for _, d := range Cardinals {
		got, ok := DirectionTo(d.Offset())
		if !ok || got != d {
			t.Errorf("DirectionTo(%v.Offset()) = %v, %v", d, got, ok)
		}
		parsed, ok := ParseDirection(d.Wire())
		if !ok || parsed != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.Wire(), parsed, ok)
		}
		if d.Opposite().Opposite() != d {
			t.Errorf("%v.Opposite().Opposite() != %v", d, d)
		}
	}
}
