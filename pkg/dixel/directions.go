// Package dixel discretises streamline directions into a fixed set of
// orientation bins.
package dixel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoDirections is returned when a direction set would be empty
var ErrNoDirections = errors.New("dixel: direction set is empty")

// point is a unit direction tagged with the bin it belongs to
type point struct {
	r3.Vec
	bin int
}

// Compare implements the kdtree.Comparable interface
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// points satisfies kdtree.Interface
type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{points: p, Dim: d}, kdtree.MedianOfRandoms(plane{points: p, Dim: d}, 100))
}

// plane implements sort.Interface and kdtree.SortSlicer for points
type plane struct {
	points
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.Dim) < 0
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// DirectionSet is a fixed set of axial directions. A direction and its
// antipode fall in the same bin.
type DirectionSet struct {
	dirs []r3.Vec
	tree *kdtree.Tree
}

// NewDirectionSet builds a set from the given directions, which are
// normalised. Zero-length directions are rejected.
func NewDirectionSet(dirs []r3.Vec) (*DirectionSet, error) {
	if len(dirs) == 0 {
		return nil, ErrNoDirections
	}
	s := &DirectionSet{dirs: make([]r3.Vec, len(dirs))}
	pts := make(points, 0, 2*len(dirs))
	for i, d := range dirs {
		n := r3.Norm(d)
		if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errors.New("dixel: direction set contains an invalid direction")
		}
		u := r3.Scale(1/n, d)
		s.dirs[i] = u
		pts = append(pts, point{Vec: u, bin: i}, point{Vec: r3.Scale(-1, u), bin: i})
	}
	s.tree = kdtree.New(pts, false)
	return s, nil
}

// NewFibonacciSet returns n directions spread evenly over the upper
// hemisphere on a Fibonacci lattice
func NewFibonacciSet(n int) (*DirectionSet, error) {
	if n < 1 {
		return nil, ErrNoDirections
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	dirs := make([]r3.Vec, n)
	for i := range dirs {
		z := 1 - (float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := golden * float64(i)
		dirs[i] = r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
	}
	return NewDirectionSet(dirs)
}

// Len returns the number of bins
func (s *DirectionSet) Len() int { return len(s.dirs) }

// Direction returns the unit direction of bin i
func (s *DirectionSet) Direction(i int) r3.Vec { return s.dirs[i] }

// Bin returns the bin whose direction (or its antipode) is closest to dir.
// Implements voxel.DixelBinner.
func (s *DirectionSet) Bin(dir r3.Vec) int {
	n := r3.Norm(dir)
	if n == 0 {
		return 0
	}
	nearest, _ := s.tree.Nearest(point{Vec: r3.Scale(1/n, dir)})
	return nearest.(point).bin
}
