package curvature

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// SplineDistances gives the along-curve arc length between any two points of
// a streamline. It stores the cumulative path length at every point, so the
// distance between i and j is |c[i] - c[j]|, the sum of every step lying
// between the two indices.
type SplineDistances struct {
	cum []float64
}

// NewSplineDistances computes the cumulative arc length of points
func NewSplineDistances(points []r3.Vec) SplineDistances {
	var d SplineDistances
	d.reset(points)
	return d
}

// reset recomputes the cumulative lengths in place, reusing the buffer
func (d *SplineDistances) reset(points []r3.Vec) {
	if cap(d.cum) < len(points) {
		d.cum = make([]float64, len(points))
	}
	d.cum = d.cum[:len(points)]
	if len(points) == 0 {
		return
	}
	d.cum[0] = 0
	for i := 1; i < len(points); i++ {
		d.cum[i] = d.cum[i-1] + r3.Norm(r3.Sub(points[i], points[i-1]))
	}
}

// Len returns the number of points
func (d SplineDistances) Len() int { return len(d.cum) }

// At returns the arc length between points i and j
func (d SplineDistances) At(i, j int) float64 {
	return math.Abs(d.cum[i] - d.cum[j])
}

// Cumulative returns the arc length from the first point to every point.
// The slice is shared with d.
func (d SplineDistances) Cumulative() []float64 { return d.cum }

// Dense writes the full pairwise distance matrix into dst, reusing its
// storage, and returns it. A nil dst allocates a new matrix.
func (d SplineDistances) Dense(dst *mat.SymDense) *mat.SymDense {
	if dst == nil {
		dst = &mat.SymDense{}
	}
	dst.Reset()
	n := len(d.cum)
	if n == 0 {
		return dst
	}
	dst.ReuseAsSym(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dst.SetSym(i, j, d.At(i, j))
		}
	}
	return dst
}
