package interpolation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
)

// rampVolume returns a 4x4x4 grid of 2 mm voxels anchored at (1,1,1) whose
// value is x + 10y + 100z in voxel indices, plus n*1000 in volume n
func rampVolume(volumes int) *models.Volume {
	vol := models.NewVolume([3]int{4, 4, 4}, volumes, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 1, Y: 1, Z: 1})
	for n := 0; n < volumes; n++ {
		for z := 0; z < 4; z++ {
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					vol.Set(x, y, z, n, float64(x+10*y+100*z+1000*n))
				}
			}
		}
	}
	return vol
}

// scanner converts a voxel position of rampVolume to scanner space
func scanner(x, y, z float64) r3.Vec {
	return r3.Vec{X: 1 + 2*x, Y: 1 + 2*y, Z: 1 + 2*z}
}

func TestNewTrilinear(t *testing.T) {
	_, err := NewTrilinear(nil)
	assert.ErrorIs(t, err, ErrEmptyVolume)

	_, err = NewTrilinear(&models.Volume{})
	assert.ErrorIs(t, err, ErrEmptyVolume)

	bad := rampVolume(1)
	bad.Data = bad.Data[:10]
	_, err = NewTrilinear(bad)
	assert.Error(t, err)

	interp, err := NewTrilinear(rampVolume(3))
	require.NoError(t, err)
	assert.Equal(t, 3, interp.Volumes())
}

func TestTrilinearValue(t *testing.T) {
	interp, err := NewTrilinear(rampVolume(2))
	require.NoError(t, err)

	tests := []struct {
		name    string
		x, y, z float64
		n       int
		want    float64
	}{
		{"on voxel", 1, 2, 3, 0, 321},
		{"between voxels", 1.5, 0.5, 2.25, 0, 231.5},
		{"second volume", 0.25, 0, 0, 1, 1000.25},
		{"clamped at upper edge", 3.3, 0, 0, 0, 3},
		{"clamped at lower edge", -0.4, 1, 0, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interp.Value(scanner(tt.x, tt.y, tt.z), tt.n)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTrilinearOutside(t *testing.T) {
	interp, err := NewTrilinear(rampVolume(1))
	require.NoError(t, err)

	for _, p := range []r3.Vec{
		scanner(-0.6, 0, 0),
		scanner(0, 3.6, 0),
		scanner(0, 0, 10),
		{X: math.NaN()},
	} {
		assert.True(t, math.IsNaN(interp.Value(p, 0)), "%v", p)
		vals, ok := interp.Values(p, nil)
		assert.False(t, ok)
		assert.Empty(t, vals)
	}
}

func TestTrilinearValues(t *testing.T) {
	interp, err := NewTrilinear(rampVolume(3))
	require.NoError(t, err)

	buf := make([]float64, 0, 8)
	vals, ok := interp.Values(scanner(2, 1, 0.5), buf)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{62, 1062, 2062}, vals, 1e-9)
}

func BenchmarkTrilinearValue(b *testing.B) {
	interp, _ := NewTrilinear(rampVolume(1))
	p := scanner(1.3, 2.1, 0.7)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		interp.Value(p, 0)
	}
}
