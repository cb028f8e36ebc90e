// Package curvature estimates the local curvature along a streamline from
// Gaussian-smoothed tangents over spline arc length.
package curvature

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFWHM is the default smoothing width along the track, in mm
const DefaultFWHM = 10.0

// parallelTolerance is how far below 1 the dot product of two smoothed
// tangents may fall from rounding alone and still count as parallel
const parallelTolerance = 1e-14

// Estimator computes curvature profiles. It owns scratch buffers that are
// reused between calls, so one Estimator must not be shared by concurrent
// goroutines.
type Estimator struct {
	fwhm        float64
	sigma       float64
	denominator float64

	tangents []r3.Vec
	valid    []bool
	smoothed []r3.Vec
	dist     SplineDistances

	// kernel holds the Gaussian weight between every pair of points;
	// basis and sum are the tangents before and after weighting, one row
	// per point
	kernel mat.SymDense
	basis  mat.Dense
	sum    mat.Dense
}

// NewEstimator creates an estimator smoothing tangents with a Gaussian of the
// given full width at half maximum. A non-positive width selects DefaultFWHM.
func NewEstimator(fwhm float64) *Estimator {
	if fwhm <= 0 {
		fwhm = DefaultFWHM
	}
	sigma := fwhm / (2 * math.Sqrt(2*math.Ln2))
	return &Estimator{
		fwhm:        fwhm,
		sigma:       sigma,
		denominator: 2 * sigma * sigma,
	}
}

// FWHM returns the smoothing width
func (e *Estimator) FWHM() float64 { return e.fwhm }

// Sigma returns the standard deviation of the smoothing kernel
func (e *Estimator) Sigma() float64 { return e.sigma }

// Clone returns an estimator with the same width and its own scratch space
func (e *Estimator) Clone() *Estimator {
	return NewEstimator(e.fwhm)
}

func (e *Estimator) resize(n int) {
	if cap(e.tangents) < n {
		e.tangents = make([]r3.Vec, n)
		e.valid = make([]bool, n)
		e.smoothed = make([]r3.Vec, n)
	}
	e.tangents = e.tangents[:n]
	e.valid = e.valid[:n]
	e.smoothed = e.smoothed[:n]
}

// Profile appends the curvature (radians per mm) at every point to dst[:0]
// and returns it. The result has one entry per point. A streamline with no
// usable tangent at all (fewer than two distinct points) yields NaN
// everywhere.
func (e *Estimator) Profile(points []r3.Vec, dst []float64) []float64 {
	n := len(points)
	dst = dst[:0]

	e.resize(n)
	fillTangents(points, e.tangents, e.valid)
	if n < 2 || !RepairTangents(e.tangents, e.valid) {
		for i := 0; i < n; i++ {
			dst = append(dst, math.NaN())
		}
		return dst
	}

	e.dist.reset(points)
	e.smooth()

	for i := 0; i < n; i++ {
		a, b := i+1, i-1
		switch i {
		case 0:
			a, b = 1, 0
		case n - 1:
			a, b = n-1, n-2
		}
		dot := r3.Dot(e.smoothed[a], e.smoothed[b])
		if dot >= 1-parallelTolerance {
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, math.Acos(math.Max(dot, -1))/e.dist.At(a, b))
	}
	return dst
}

// SmoothedTangents returns the Gaussian-smoothed unit tangents of points
func (e *Estimator) SmoothedTangents(points []r3.Vec) []r3.Vec {
	n := len(points)
	e.resize(n)
	fillTangents(points, e.tangents, e.valid)
	out := make([]r3.Vec, n)
	if n < 2 || !RepairTangents(e.tangents, e.valid) {
		return out
	}
	e.dist.reset(points)
	e.smooth()
	copy(out, e.smoothed)
	return out
}

// smooth fills e.smoothed with the kernel-weighted sum of all tangents,
// renormalised. Weights use the arc length between the two points.
func (e *Estimator) smooth() {
	n := len(e.tangents)
	w := e.dist.Dense(&e.kernel)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := w.At(i, j)
			w.SetSym(i, j, math.Exp(-d*d/e.denominator))
		}
	}

	e.basis.Reset()
	e.basis.ReuseAs(n, 3)
	for j, t := range e.tangents {
		e.basis.Set(j, 0, t.X)
		e.basis.Set(j, 1, t.Y)
		e.basis.Set(j, 2, t.Z)
	}
	e.sum.Reset()
	e.sum.Mul(w, &e.basis)

	for i := 0; i < n; i++ {
		sum := r3.Vec{X: e.sum.At(i, 0), Y: e.sum.At(i, 1), Z: e.sum.At(i, 2)}
		if unit, ok := normalize(sum); ok {
			e.smoothed[i] = unit
		} else {
			e.smoothed[i] = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
		}
	}
}
