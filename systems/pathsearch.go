package systems

import (
	"container/heap"

	"github.com/pthm-cable/fleet/components"
)

// DefaultExpansionFactor caps a search at this fraction of the grid's cells.
const DefaultExpansionFactor = 0.5

// PathSearch is a budgeted best-first router over the unit field.
// Occupied cells are impassable. The zero value is not usable; call
// NewPathSearch.
type PathSearch struct {
	factor float64

	// Reusable data structures (cleared between searches)
	open     *nodeHeap
	closed   map[int]struct{}
	cameFrom map[int]int
	gScore   map[int]int

	// Expansions used by the most recent search.
	LastExpansions int
}

// searchNode is a frontier entry.
type searchNode struct {
	id    int
	f, h  int // f = steps + h
	index int // heap index
}

// nodeHeap implements heap.Interface ordered by f, then h.
type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].h < h[j].h
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewPathSearch creates a router whose expansion budget is
// factor * rows * cols. factor <= 0 uses DefaultExpansionFactor.
func NewPathSearch(factor float64) *PathSearch {
	if factor <= 0 {
		factor = DefaultExpansionFactor
	}
	return &PathSearch{
		factor:   factor,
		open:     &nodeHeap{},
		closed:   make(map[int]struct{}, 256),
		cameFrom: make(map[int]int, 256),
		gScore:   make(map[int]int, 256),
	}
}

// SearchPath routes with a fresh router and the default budget.
func SearchPath(start, dest components.Coord, units *UnitField) []components.Coord {
	return NewPathSearch(DefaultExpansionFactor).Find(start, dest, units)
}

// Find returns a route from start to dest that avoids occupied cells, with
// both endpoints included. The frontier priority is steps taken plus the
// wrap-around L1 distance to dest. It returns nil when dest is unreachable
// or the expansion budget runs out; callers fall back to a greedy step.
func (s *PathSearch) Find(start, dest components.Coord, units *UnitField) []components.Coord {
	dim := units.Dim()
	start, dest = start.Wrap(dim), dest.Wrap(dim)
	s.LastExpansions = 0
	if start == dest {
		return []components.Coord{start}
	}
	if units.Occupied(dest) {
		return nil
	}

	// Clear reusable data structures
	*s.open = (*s.open)[:0]
	clear(s.closed)
	clear(s.cameFrom)
	clear(s.gScore)

	id := func(c components.Coord) int { return c.Row*dim.Col + c.Col }
	at := func(i int) components.Coord { return components.Coord{Row: i / dim.Col, Col: i % dim.Col} }

	startID, destID := id(start), id(dest)
	budget := int(s.factor * float64(dim.Row*dim.Col))

	s.gScore[startID] = 0
	h0 := start.Dist(dest, dim)
	heap.Push(s.open, &searchNode{id: startID, f: h0, h: h0})

	for s.open.Len() > 0 {
		current := heap.Pop(s.open).(*searchNode)
		if current.id == destID {
			return s.reconstruct(startID, destID, at)
		}
		if _, done := s.closed[current.id]; done {
			continue
		}
		s.closed[current.id] = struct{}{}

		s.LastExpansions++
		if s.LastExpansions > budget {
			return nil
		}

		pos := at(current.id)
		g := s.gScore[current.id] + 1
		for _, d := range components.Cardinals {
			next := pos.Add(d.Offset()).Wrap(dim)
			if units.Occupied(next) {
				continue
			}
			nid := id(next)
			if _, done := s.closed[nid]; done {
				continue
			}
			if prev, seen := s.gScore[nid]; seen && g >= prev {
				continue
			}
			s.cameFrom[nid] = current.id
			s.gScore[nid] = g
			h := next.Dist(dest, dim)
			heap.Push(s.open, &searchNode{id: nid, f: g + h, h: h})
		}
	}
	return nil
}

// reconstruct walks parent pointers from dest back to start and reverses.
func (s *PathSearch) reconstruct(startID, destID int, at func(int) components.Coord) []components.Coord {
	var ids []int
	for cur := destID; cur != startID; {
		ids = append(ids, cur)
		prev, ok := s.cameFrom[cur]
		if !ok {
			return nil
		}
		cur = prev
	}
	ids = append(ids, startID)

	path := make([]components.Coord, len(ids))
	for i := range ids {
		path[i] = at(ids[len(ids)-1-i])
	}
	return path
}
