package voxel

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decoration selects what each voxel in a Set accumulates
type Decoration int

const (
	// None stores bare voxel coordinates
	None Decoration = iota
	// Direction stores the mean local streamline orientation (DEC)
	Direction
	// Dixel stores a histogram of direction bins
	Dixel
	// TOD stores a track orientation distribution as SH coefficients
	TOD
)

var decorationNames = []string{"none", "direction", "dixel", "tod"}

func (d Decoration) String() string {
	if d < 0 || int(d) >= len(decorationNames) {
		return fmt.Sprintf("Decoration(%d)", int(d))
	}
	return decorationNames[d]
}

// ParseDecoration converts a decoration name to its value
func ParseDecoration(s string) (Decoration, error) {
	for i, name := range decorationNames {
		if strings.EqualFold(s, name) {
			return Decoration(i), nil
		}
	}
	return None, fmt.Errorf("unknown voxel decoration %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (d Decoration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Decoration) UnmarshalText(text []byte) error {
	v, err := ParseDecoration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DixelBinner maps a unit direction to a direction-bin index
type DixelBinner interface {
	Bin(dir r3.Vec) int
}

// TODProjector maps a unit direction to the SH coefficients of a
// unit-amplitude orientation distribution along it
type TODProjector interface {
	Project(dir r3.Vec) []float64
}

// Entry is the accumulator stored for one voxel
type Entry struct {
	Voxel Voxel

	// Weight is the number of streamline points that contributed
	Weight float64

	// Dir is the summed local tangent; unit length after Finalize
	Dir r3.Vec

	// Bins maps a dixel bin to the number of points that fell in it
	Bins map[int]float64

	// SH is the summed TOD coefficient vector; the per-point mean after Finalize
	SH []float64

	// seed is the first non-zero direction contribution, kept in case the
	// contributions cancel out
	seed r3.Vec
}

// Set maps voxel coordinates to their accumulators. Iteration through
// Voxels and Entries follows insertion order.
type Set struct {
	decoration Decoration
	entries    map[Voxel]*Entry
	order      []Voxel
	finalized  bool
}

// NewSet creates an empty set with the given decoration
func NewSet(d Decoration) *Set {
	return &Set{
		decoration: d,
		entries:    make(map[Voxel]*Entry),
	}
}

// Decoration returns the kind of accumulator the set holds
func (s *Set) Decoration() Decoration { return s.decoration }

// Len returns the number of distinct voxels
func (s *Set) Len() int { return len(s.order) }

// GetOrInsert returns the entry for v, creating it if needed. The second
// result reports whether the entry already existed.
func (s *Set) GetOrInsert(v Voxel) (*Entry, bool) {
	if e, ok := s.entries[v]; ok {
		return e, true
	}
	e := &Entry{Voxel: v}
	if s.decoration == Dixel {
		e.Bins = make(map[int]float64)
	}
	s.entries[v] = e
	s.order = append(s.order, v)
	return e, false
}

// Get returns the entry for v, if present
func (s *Set) Get(v Voxel) (*Entry, bool) {
	e, ok := s.entries[v]
	return e, ok
}

// Contains reports whether v is in the set
func (s *Set) Contains(v Voxel) bool {
	_, ok := s.entries[v]
	return ok
}

// Voxels returns the voxel coordinates in insertion order
func (s *Set) Voxels() []Voxel {
	out := make([]Voxel, len(s.order))
	copy(out, s.order)
	return out
}

// Entries returns the accumulators in insertion order
func (s *Set) Entries() []*Entry {
	out := make([]*Entry, len(s.order))
	for i, v := range s.order {
		out[i] = s.entries[v]
	}
	return out
}

// Add records one visit of v. Revisits collapse for plain sets.
func (s *Set) Add(v Voxel) {
	e, _ := s.GetOrInsert(v)
	e.Weight++
}

// AddDirection records one visit of v with local tangent dir. The tangent
// is summed into the existing accumulator, never overwriting it.
func (s *Set) AddDirection(v Voxel, dir r3.Vec) {
	e, _ := s.GetOrInsert(v)
	e.Weight++
	e.Dir = r3.Add(e.Dir, dir)
	if e.seed == (r3.Vec{}) && dir != (r3.Vec{}) {
		e.seed = dir
	}
}

// AddBin records one visit of v in dixel bin
func (s *Set) AddBin(v Voxel, bin int) {
	e, _ := s.GetOrInsert(v)
	e.Weight++
	e.Bins[bin]++
}

// AddSH records one visit of v with TOD coefficients sh
func (s *Set) AddSH(v Voxel, sh []float64) {
	e, _ := s.GetOrInsert(v)
	e.Weight++
	if e.SH == nil {
		e.SH = make([]float64, len(sh))
	}
	if len(e.SH) != len(sh) {
		panic(fmt.Sprintf("voxel: TOD coefficient count changed from %d to %d", len(e.SH), len(sh)))
	}
	floats.Add(e.SH, sh)
}

// Finalize normalises the accumulators once traversal is complete:
// directions to unit length and TOD sums to their per-point mean.
// Calling it more than once has no further effect.
func (s *Set) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	for _, e := range s.entries {
		switch s.decoration {
		case Direction:
			e.Dir = unitOrSeed(e.Dir, e.seed)
		case TOD:
			if e.Weight > 0 && e.SH != nil {
				floats.Scale(1/e.Weight, e.SH)
			}
		}
	}
}

// unitOrSeed normalises v. When the contributions summed to zero the first
// non-zero contribution stands in; a voxel that never saw one keeps a zero vector.
func unitOrSeed(v, seed r3.Vec) r3.Vec {
	if n := r3.Norm(v); n > 0 {
		return r3.Scale(1/n, v)
	}
	if n := r3.Norm(seed); n > 0 {
		return r3.Scale(1/n, seed)
	}
	return r3.Vec{}
}
