package models

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Streamline is one fibre-tracking trajectory: an ordered sequence of
// points in scanner (world) coordinates, in mm
type Streamline []r3.Vec

// StepLengths returns the distance between each pair of consecutive points.
// The result has len(s)-1 entries; it is empty for fewer than two points.
func (s Streamline) StepLengths() []float64 {
	if len(s) < 2 {
		return nil
	}
	steps := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		steps[i-1] = r3.Norm(r3.Sub(s[i], s[i-1]))
	}
	return steps
}

// Length returns the total path length of the streamline
func (s Streamline) Length() float64 {
	steps := s.StepLengths()
	if len(steps) == 0 {
		return 0
	}
	return floats.Sum(steps)
}

// Volume represents a 3D (or 4D) image sampled on a regular voxel grid
type Volume struct {
	// Data holds the voxel values in x-fastest order, with the volume
	// index (if any) varying slowest
	Data []float64

	// Dims is the size of the spatial grid in voxels
	Dims [3]int

	// Volumes is the number of values stored per voxel (1 for a scalar
	// image, the SH coefficient count for an FOD image)
	Volumes int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize r3.Vec

	// Origin is the scanner position of voxel (0,0,0)
	Origin r3.Vec
}

// NewVolume allocates a zero-filled volume
func NewVolume(dims [3]int, volumes int, voxelSize, origin r3.Vec) *Volume {
	if volumes < 1 {
		volumes = 1
	}
	return &Volume{
		Data:      make([]float64, dims[0]*dims[1]*dims[2]*volumes),
		Dims:      dims,
		Volumes:   volumes,
		VoxelSize: voxelSize,
		Origin:    origin,
	}
}

// Index returns the offset of voxel (x, y, z) in volume n
func (v *Volume) Index(x, y, z, n int) int {
	return ((n*v.Dims[2]+z)*v.Dims[1]+y)*v.Dims[0] + x
}

// At returns the value at voxel (x, y, z) in volume n
func (v *Volume) At(x, y, z, n int) float64 {
	return v.Data[v.Index(x, y, z, n)]
}

// Set stores a value at voxel (x, y, z) in volume n
func (v *Volume) Set(x, y, z, n int, val float64) {
	v.Data[v.Index(x, y, z, n)] = val
}

// Contains reports whether (x, y, z) lies within the grid
func (v *Volume) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < v.Dims[0] && y < v.Dims[1] && z < v.Dims[2]
}
