// Package sphharm evaluates the real, antipodally symmetric spherical
// harmonic basis used for fibre orientation distributions.
//
// Only even degrees are stored. Coefficients are ordered by degree l and then
// order m from -l to l, so the (l, m) coefficient sits at l(l+1)/2 + m. The
// basis is orthonormal over the sphere: m > 0 terms use cos(mφ), m < 0 terms
// use sin(|m|φ), both scaled by √2.
package sphharm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// NforL returns the number of coefficients of an even-degree expansion up to lmax
func NforL(lmax int) int {
	return (lmax + 1) * (lmax + 2) / 2
}

// LforN returns the largest even lmax whose expansion fits in n coefficients,
// or -1 if n is too small for even l = 0
func LforN(n int) int {
	if n < 1 {
		return -1
	}
	return 2 * int(math.Floor((math.Sqrt(1+8*float64(n))-3)/4))
}

// Index returns the position of coefficient (l, m)
func Index(l, m int) int {
	return l*(l+1)/2 + m
}

// CheckCount returns an error unless n is the coefficient count of a full
// even-degree expansion
func CheckCount(n int) error {
	lmax := LforN(n)
	if lmax < 0 || NforL(lmax) != n {
		return fmt.Errorf("%d is not a valid SH coefficient count", n)
	}
	return nil
}

// legendre fills p[l*(lmax+1)+m] with the normalised associated Legendre
// function N_l^m P_l^m(x) for 0 <= m <= l <= lmax
func legendre(lmax int, x float64, p []float64) {
	stride := lmax + 1
	s := math.Sqrt(math.Max(0, 1-x*x))
	pmm := math.Sqrt(1 / (4 * math.Pi))
	for m := 0; m <= lmax; m++ {
		if m > 0 {
			pmm *= math.Sqrt(float64(2*m+1)/float64(2*m)) * s
		}
		p[m*stride+m] = pmm
		if m+1 <= lmax {
			p[(m+1)*stride+m] = x * math.Sqrt(float64(2*m+3)) * pmm
		}
		for l := m + 2; l <= lmax; l++ {
			ll, mm := float64(l*l), float64(m*m)
			a := math.Sqrt((4*ll - 1) / (ll - mm))
			prev := float64((l - 1) * (l - 1))
			b := math.Sqrt((prev - mm) / (4*prev - 1))
			p[l*stride+m] = a * (x*p[(l-1)*stride+m] - b*p[(l-2)*stride+m])
		}
	}
}

// Basis evaluates every basis function up to lmax along dir and appends
// them to dst[:0]. dir need not be unit length but must be non-zero.
func Basis(dir r3.Vec, lmax int, dst []float64) []float64 {
	n := NforL(lmax)
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	norm := r3.Norm(dir)
	cosTheta := dir.Z / norm
	phi := math.Atan2(dir.Y, dir.X)

	p := make([]float64, (lmax+1)*(lmax+1))
	legendre(lmax, cosTheta, p)
	stride := lmax + 1

	for l := 0; l <= lmax; l += 2 {
		dst[Index(l, 0)] = p[l*stride]
		for m := 1; m <= l; m++ {
			scale := math.Sqrt2 * p[l*stride+m]
			sin, cos := math.Sincos(float64(m) * phi)
			dst[Index(l, m)] = scale * cos
			dst[Index(l, -m)] = scale * sin
		}
	}
	return dst
}

// Amplitude evaluates the SH expansion coeffs along dir
func Amplitude(coeffs []float64, dir r3.Vec) float64 {
	lmax := LforN(len(coeffs))
	if lmax < 0 {
		return math.NaN()
	}
	basis := Basis(dir, lmax, nil)
	return floats.Dot(coeffs[:len(basis)], basis)
}

// DeltaProjector projects a direction onto the SH basis, giving the
// coefficients of a unit spike along it. It is the track orientation
// distribution contribution of one streamline point.
type DeltaProjector struct {
	LMax int
}

// Project implements voxel.TODProjector
func (d DeltaProjector) Project(dir r3.Vec) []float64 {
	if r3.Norm(dir) == 0 {
		return make([]float64, NforL(d.LMax))
	}
	return Basis(dir, d.LMax, nil)
}
