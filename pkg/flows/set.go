package flows

import (
	"slices"
)

// Set is a multiset of flow records. Identical records are counted, not
// collapsed: two equal branches are two observed flows.
type Set struct {
	counts map[Record]int
	size   int
}

// NewSet creates a set holding the given records
func NewSet(records ...Record) *Set {
	s := &Set{counts: make(map[Record]int)}
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts one occurrence of r
func (s *Set) Add(r Record) {
	s.AddN(r, 1)
}

// AddN inserts n occurrences of r. Non-positive n is a no-op.
func (s *Set) AddN(r Record, n int) {
	if n <= 0 {
		return
	}
	if s.counts == nil {
		s.counts = make(map[Record]int)
	}
	s.counts[r] += n
	s.size += n
}

// Count returns the multiplicity of r
func (s *Set) Count(r Record) int {
	if s == nil {
		return 0
	}
	return s.counts[r]
}

// Len returns the number of records, counting duplicates
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Distinct returns the number of distinct records
func (s *Set) Distinct() int {
	if s == nil {
		return 0
	}
	return len(s.counts)
}

// Empty reports whether the set holds no records
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Records returns every record in ascending order, duplicates repeated
func (s *Set) Records() []Record {
	if s == nil {
		return nil
	}
	keys := make([]Record, 0, len(s.counts))
	for r := range s.counts {
		keys = append(keys, r)
	}
	slices.SortFunc(keys, Record.Compare)

	result := make([]Record, 0, s.size)
	for _, r := range keys {
		for range s.counts[r] {
			result = append(result, r)
		}
	}
	return result
}

// Equal reports whether both sets hold the same records with the same counts
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() || s.Distinct() != other.Distinct() {
		return false
	}
	if s == nil {
		return true
	}
	for r, n := range s.counts {
		if other.Count(r) != n {
			return false
		}
	}
	return true
}

// Difference computes the multiset symmetric difference of a and b.
// onlyA holds the occurrences of a left over after matching each against
// an equal record of b, onlyB the reverse.
func Difference(a, b *Set) (onlyA, onlyB *Set) {
	return subtract(a, b), subtract(b, a)
}

// subtract returns a minus b respecting multiplicity
func subtract(a, b *Set) *Set {
	result := NewSet()
	if a == nil {
		return result
	}
	for r, n := range a.counts {
		result.AddN(r, n-b.Count(r))
	}
	return result
}
