package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
	"twimap/pkg/sphharm"
	"twimap/pkg/voxel"
)

// ScalarSampler reads a scalar image along a streamline
type ScalarSampler struct {
	interp *Trilinear
}

// NewScalarSampler creates a sampler over a single-volume image
func NewScalarSampler(vol *models.Volume) (*ScalarSampler, error) {
	interp, err := NewTrilinear(vol)
	if err != nil {
		return nil, err
	}
	if vol.Volumes != 1 {
		return nil, fmt.Errorf("interpolation: scalar image must have 1 volume, got %d", vol.Volumes)
	}
	return &ScalarSampler{interp: interp}, nil
}

// LoadFactors appends the image value at every point of tck to dst[:0], or
// at the first and last points only when ends is set. Points outside the
// image give NaN.
func (s *ScalarSampler) LoadFactors(tck models.Streamline, ends bool, dst []float64) []float64 {
	dst = dst[:0]
	if len(tck) == 0 {
		return dst
	}
	if ends {
		return append(dst, s.interp.Value(tck[0], 0), s.interp.Value(tck[len(tck)-1], 0))
	}
	for _, p := range tck {
		dst = append(dst, s.interp.Value(p, 0))
	}
	return dst
}

// FODSampler reads the amplitude of an SH fibre orientation distribution
// image along the local streamline direction
type FODSampler struct {
	interp *Trilinear

	// Nonnegative clamps negative amplitudes to zero
	Nonnegative bool
}

// NewFODSampler creates a sampler over an image whose volumes hold the SH
// coefficients of a full even-degree expansion
func NewFODSampler(vol *models.Volume) (*FODSampler, error) {
	interp, err := NewTrilinear(vol)
	if err != nil {
		return nil, err
	}
	if err := sphharm.CheckCount(vol.Volumes); err != nil {
		return nil, fmt.Errorf("interpolation: FOD image: %w", err)
	}
	return &FODSampler{interp: interp}, nil
}

// LoadFactors appends the FOD amplitude along the local tangent at every
// point of tck to dst[:0]. Points outside the image, or without a tangent,
// give NaN. The ends flag selects the first and last points only.
func (s *FODSampler) LoadFactors(tck models.Streamline, ends bool, dst []float64) []float64 {
	dst = dst[:0]
	if len(tck) == 0 {
		return dst
	}
	coeffs := make([]float64, 0, s.interp.Volumes())
	indices := make([]int, 0, len(tck))
	if ends {
		indices = append(indices, 0, len(tck)-1)
	} else {
		for i := range tck {
			indices = append(indices, i)
		}
	}

	for _, i := range indices {
		var ok bool
		coeffs, ok = s.interp.Values(tck[i], coeffs)
		dir := voxel.Tangent(tck, i)
		if !ok || dir == (r3.Vec{}) {
			dst = append(dst, math.NaN())
			continue
		}
		amp := sphharm.Amplitude(coeffs, dir)
		if s.Nonnegative && amp < 0 {
			amp = 0
		}
		dst = append(dst, amp)
	}
	return dst
}
