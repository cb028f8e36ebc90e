// Package interpolation samples image volumes at arbitrary scanner positions
// and provides the scalar and FOD image plugins used by the track mapper.
package interpolation

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
	"twimap/pkg/voxel"
)

// ErrEmptyVolume is returned when an interpolator is created without data
var ErrEmptyVolume = errors.New("interpolation: volume has no data")

// Trilinear interpolates a volume linearly between the eight voxels
// surrounding a position. Positions more than half a voxel outside the grid
// yield NaN. It only reads from the volume and is safe for concurrent use.
type Trilinear struct {
	vol       *models.Volume
	transform voxel.Transform
}

// NewTrilinear creates an interpolator over vol, placed in scanner space by
// its voxel size and origin
func NewTrilinear(vol *models.Volume) (*Trilinear, error) {
	if vol == nil || len(vol.Data) == 0 {
		return nil, ErrEmptyVolume
	}
	if len(vol.Data) != vol.Dims[0]*vol.Dims[1]*vol.Dims[2]*vol.Volumes {
		return nil, errors.New("interpolation: volume data does not match its dimensions")
	}
	return &Trilinear{
		vol:       vol,
		transform: voxel.NewScaling(vol.VoxelSize, vol.Origin),
	}, nil
}

// Volumes returns the number of values stored per voxel
func (t *Trilinear) Volumes() int { return t.vol.Volumes }

// corners computes the lower corner and fractional offsets of p. The result
// is false when p lies outside the grid.
func (t *Trilinear) corners(p r3.Vec) (lo [3]int, frac [3]float64, ok bool) {
	v := t.transform.ScannerToVoxel(p)
	pos := [3]float64{v.X, v.Y, v.Z}
	for axis := 0; axis < 3; axis++ {
		dim := float64(t.vol.Dims[axis])
		if math.IsNaN(pos[axis]) || pos[axis] < -0.5 || pos[axis] > dim-0.5 {
			return lo, frac, false
		}
		f := math.Floor(pos[axis])
		lo[axis] = int(f)
		frac[axis] = pos[axis] - f
	}
	return lo, frac, true
}

func clampIndex(i, dim int) int {
	if i < 0 {
		return 0
	}
	if i >= dim {
		return dim - 1
	}
	return i
}

// Value returns the interpolated value of volume n at p, or NaN outside the grid
func (t *Trilinear) Value(p r3.Vec, n int) float64 {
	lo, frac, ok := t.corners(p)
	if !ok {
		return math.NaN()
	}
	return t.blend(lo, frac, n)
}

// Values appends the interpolated value of every volume at p to dst[:0].
// The second result is false outside the grid.
func (t *Trilinear) Values(p r3.Vec, dst []float64) ([]float64, bool) {
	dst = dst[:0]
	lo, frac, ok := t.corners(p)
	if !ok {
		return dst, false
	}
	for n := 0; n < t.vol.Volumes; n++ {
		dst = append(dst, t.blend(lo, frac, n))
	}
	return dst, true
}

func (t *Trilinear) blend(lo [3]int, frac [3]float64, n int) float64 {
	var sum float64
	for corner := 0; corner < 8; corner++ {
		w := 1.0
		var idx [3]int
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<axis) != 0 {
				w *= frac[axis]
				idx[axis] = lo[axis] + 1
			} else {
				w *= 1 - frac[axis]
				idx[axis] = lo[axis]
			}
			idx[axis] = clampIndex(idx[axis], t.vol.Dims[axis])
		}
		if w == 0 {
			continue
		}
		sum += w * t.vol.At(idx[0], idx[1], idx[2], n)
	}
	return sum
}
