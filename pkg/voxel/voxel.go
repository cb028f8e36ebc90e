// Package voxel maps streamline points onto a discrete voxel grid.
// It provides the voxel coordinate type, the world-to-voxel transform, the
// decorated voxel set and the voxelisation walks used by the mapper.
package voxel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Voxel is an integer voxel coordinate. Identity and hashing are by
// coordinate only, so Voxel is used directly as a map key.
type Voxel [3]int

// Round maps a continuous voxel-space position to the nearest voxel.
// Halves round up (floor(x+0.5)) on every axis.
func Round(p r3.Vec) Voxel {
	return Voxel{
		int(math.Floor(p.X + 0.5)),
		int(math.Floor(p.Y + 0.5)),
		int(math.Floor(p.Z + 0.5)),
	}
}

// Transform maps scanner (world) coordinates to continuous voxel coordinates
type Transform interface {
	ScannerToVoxel(p r3.Vec) r3.Vec
}

// Affine is a linear map plus offset: voxel = M·p + Offset
type Affine struct {
	M      *r3.Mat
	Offset r3.Vec
}

// NewAffine creates an affine transform from a row-major 3x3 matrix and an offset
func NewAffine(m [9]float64, offset r3.Vec) *Affine {
	vals := make([]float64, 9)
	copy(vals, m[:])
	return &Affine{M: r3.NewMat(vals), Offset: offset}
}

// NewScaling creates the axis-aligned transform of a grid with the given
// voxel size whose voxel (0,0,0) sits at origin in scanner space
func NewScaling(voxelSize, origin r3.Vec) *Affine {
	m := [9]float64{
		1 / voxelSize.X, 0, 0,
		0, 1 / voxelSize.Y, 0,
		0, 0, 1 / voxelSize.Z,
	}
	offset := r3.Vec{
		X: -origin.X / voxelSize.X,
		Y: -origin.Y / voxelSize.Y,
		Z: -origin.Z / voxelSize.Z,
	}
	return NewAffine(m, offset)
}

// Identity returns the transform of a 1 mm grid anchored at the scanner origin
func Identity() *Affine {
	return NewScaling(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
}

// ScannerToVoxel implements Transform
func (a *Affine) ScannerToVoxel(p r3.Vec) r3.Vec {
	return r3.Add(a.M.MulVec(p), a.Offset)
}

// Header describes the voxel grid a streamline is mapped onto
type Header struct {
	// Dims is the grid size along x, y and z
	Dims [3]int

	// Transform converts scanner positions to voxel positions
	Transform Transform
}

// NewHeader creates a header for a grid of the given size
func NewHeader(dims [3]int, t Transform) Header {
	if t == nil {
		t = Identity()
	}
	return Header{Dims: dims, Transform: t}
}

// Contains reports whether v lies within the grid
func (h Header) Contains(v Voxel) bool {
	for axis := 0; axis < 3; axis++ {
		if v[axis] < 0 || v[axis] >= h.Dims[axis] {
			return false
		}
	}
	return true
}

// Voxel transforms and rounds a scanner position. The second result is
// false when the voxel falls outside the grid.
func (h Header) Voxel(p r3.Vec) (Voxel, bool) {
	v := Round(h.Transform.ScannerToVoxel(p))
	return v, h.Contains(v)
}
