package isomorphism

import (
	"cmp"
	"slices"
)

// search is the backtracking correspondence between two refined shapes
type search struct {
	a, b     *shape
	order    []int       // a-vertices in assignment order
	anchor   []int       // per order position: an earlier-assigned neighbour, or -1
	forward  map[int]int // a -> b
	backward map[int]int // b -> a
	steps    int
}

func newSearch(a, b *shape) *search {
	s := &search{
		a:        a,
		b:        b,
		forward:  make(map[int]int, len(a.vertices)),
		backward: make(map[int]int, len(b.vertices)),
	}
	s.plan()
	return s
}

// plan orders the a-vertices so each one after the first of its component
// is adjacent to an earlier one. Components start at the vertex with the
// rarest colour, which keeps the first branching factor small.
func (s *search) plan() {
	classSize := make(map[int]int)
	for _, c := range s.a.colour {
		classSize[c]++
	}

	starts := make([]int, len(s.a.vertices))
	for i := range starts {
		starts[i] = i
	}
	slices.SortStableFunc(starts, func(x, y int) int {
		if c := cmp.Compare(classSize[s.a.colour[x]], classSize[s.a.colour[y]]); c != 0 {
			return c
		}
		return cmp.Compare(s.a.degree(y), s.a.degree(x))
	})

	placed := make([]bool, len(s.a.vertices))
	for _, start := range starts {
		if placed[start] {
			continue
		}
		placed[start] = true
		s.order = append(s.order, start)
		s.anchor = append(s.anchor, -1)

		for queue := []int{start}; len(queue) > 0; queue = queue[1:] {
			current := queue[0]
			for _, n := range s.a.neighbours(current) {
				if placed[n] {
					continue
				}
				placed[n] = true
				s.order = append(s.order, n)
				s.anchor = append(s.anchor, current)
				queue = append(queue, n)
			}
		}
	}
}

func (s *search) run() bool {
	ok := s.assign(0)
	logger.Debug("correspondence search finished", "found", ok, "steps", s.steps)
	return ok
}

func (s *search) assign(pos int) bool {
	if pos == len(s.order) {
		return true
	}
	s.steps++

	x := s.order[pos]
	for _, y := range s.candidates(x, s.anchor[pos]) {
		if !s.consistent(x, y) {
			continue
		}
		s.forward[x] = y
		s.backward[y] = x
		if s.assign(pos + 1) {
			return true
		}
		delete(s.forward, x)
		delete(s.backward, y)
	}
	return false
}

// candidates lists the unused b-vertices of x's colour. When x has an
// assigned anchor, only neighbours of the anchor's image qualify.
func (s *search) candidates(x, anchor int) []int {
	var pool []int
	if anchor >= 0 {
		pool = s.b.neighbours(s.forward[anchor])
	} else {
		pool = make([]int, len(s.b.vertices))
		for i := range pool {
			pool[i] = i
		}
	}

	result := pool[:0:0]
	for _, y := range pool {
		if _, used := s.backward[y]; used {
			continue
		}
		if s.b.colour[y] != s.a.colour[x] {
			continue
		}
		result = append(result, y)
	}
	return result
}

// consistent checks that pairing x with y keeps every edge between
// assigned vertices, with its multiplicity, on both sides
func (s *search) consistent(x, y int) bool {
	if s.a.loops[x] != s.b.loops[y] {
		return false
	}

	mappedA := 0
	for n, count := range s.a.adj[x] {
		image, ok := s.forward[n]
		if !ok {
			continue
		}
		if s.b.adj[y][image] != count {
			return false
		}
		mappedA++
	}

	mappedB := 0
	for n := range s.b.adj[y] {
		if _, ok := s.backward[n]; ok {
			mappedB++
		}
	}
	return mappedA == mappedB
}
