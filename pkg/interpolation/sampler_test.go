package interpolation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
	"twimap/pkg/sphharm"
)

func TestScalarSampler(t *testing.T) {
	_, err := NewScalarSampler(rampVolume(2))
	assert.Error(t, err, "scalar images hold one volume")

	s, err := NewScalarSampler(rampVolume(1))
	require.NoError(t, err)

	tck := models.Streamline{scanner(0, 0, 0), scanner(1, 0, 0), scanner(1, 1, 0), scanner(9, 9, 9)}

	got := s.LoadFactors(tck, false, nil)
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float64{0, 1, 11}, got[:3], 1e-9)
	assert.True(t, math.IsNaN(got[3]))

	ends := s.LoadFactors(tck, true, got)
	require.Len(t, ends, 2)
	assert.InDelta(t, 0.0, ends[0], 1e-9)
	assert.True(t, math.IsNaN(ends[1]))

	assert.Empty(t, s.LoadFactors(nil, false, nil))
}

// isotropicFOD returns a 3x3x3 FOD image of degree 2 whose
// amplitude is amp in every direction
func isotropicFOD(amp float64) *models.Volume {
	vol := models.NewVolume([3]int{3, 3, 3}, sphharm.NforL(2), r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	y00 := 1 / (2 * math.Sqrt(math.Pi))
	for z := 0; z < 3; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				vol.Set(x, y, z, 0, amp/y00)
			}
		}
	}
	return vol
}

func TestFODSampler(t *testing.T) {
	_, err := NewFODSampler(models.NewVolume([3]int{2, 2, 2}, 5, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{}))
	assert.Error(t, err, "5 is not an SH coefficient count")

	s, err := NewFODSampler(isotropicFOD(2))
	require.NoError(t, err)

	tck := models.Streamline{{X: 0}, {X: 1}, {X: 1, Y: 1}, {X: 5, Y: 1}}
	got := s.LoadFactors(tck, false, nil)
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float64{2, 2, 2}, got[:3], 1e-9)
	assert.True(t, math.IsNaN(got[3]), "outside the image")

	ends := s.LoadFactors(tck, true, nil)
	require.Len(t, ends, 2)
	assert.InDelta(t, 2.0, ends[0], 1e-9)
	assert.True(t, math.IsNaN(ends[1]))
}

func TestFODSamplerZeroTangent(t *testing.T) {
	s, err := NewFODSampler(isotropicFOD(1))
	require.NoError(t, err)

	got := s.LoadFactors(models.Streamline{{X: 1}, {X: 1}}, false, nil)
	require.Len(t, got, 2)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
}

func TestFODSamplerNonnegative(t *testing.T) {
	s, err := NewFODSampler(isotropicFOD(-0.5))
	require.NoError(t, err)
	tck := models.Streamline{{X: 0}, {X: 1}}

	assert.InDeltaSlice(t, []float64{-0.5, -0.5}, s.LoadFactors(tck, false, nil), 1e-9)

	s.Nonnegative = true
	assert.Equal(t, []float64{0, 0}, s.LoadFactors(tck, false, nil))
}
