package models

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStreamlineLength(t *testing.T) {
	tests := []struct {
		name  string
		s     Streamline
		steps []float64
		want  float64
	}{
		{"empty", nil, nil, 0},
		{"single point", Streamline{{X: 1}}, nil, 0},
		{"straight", Streamline{{}, {X: 1}, {X: 2}, {X: 3}}, []float64{1, 1, 1}, 3},
		{"pythagorean", Streamline{{}, {X: 3, Y: 4}}, []float64{5}, 5},
		{"repeated point", Streamline{{}, {}, {Z: 2}}, []float64{0, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.steps, tt.s.StepLengths())
			assert.InDelta(t, tt.want, tt.s.Length(), 1e-12)
		})
	}
}

func TestVolumeIndexing(t *testing.T) {
	vol := NewVolume([3]int{2, 3, 4}, 2, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	require.Len(t, vol.Data, 48)

	assert.Equal(t, 0, vol.Index(0, 0, 0, 0))
	assert.Equal(t, 1, vol.Index(1, 0, 0, 0))
	assert.Equal(t, 2, vol.Index(0, 1, 0, 0))
	assert.Equal(t, 6, vol.Index(0, 0, 1, 0))
	assert.Equal(t, 24, vol.Index(0, 0, 0, 1))

	vol.Set(1, 2, 3, 1, 7)
	assert.Equal(t, 7.0, vol.At(1, 2, 3, 1))
	assert.Equal(t, 7.0, vol.Data[47])

	assert.True(t, vol.Contains(1, 2, 3))
	assert.False(t, vol.Contains(2, 0, 0))
	assert.False(t, vol.Contains(0, -1, 0))

	assert.Equal(t, 1, NewVolume([3]int{1, 1, 1}, 0, r3.Vec{}, r3.Vec{}).Volumes)
}

func TestRawRoundTrip(t *testing.T) {
	vol := NewVolume([3]int{2, 2, 2}, 1, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: -1})
	for i := range vol.Data {
		vol.Data[i] = float64(i) * 0.5
	}
	vol.Data[3] = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, vol))
	assert.Equal(t, 4*len(vol.Data), buf.Len())

	path := filepath.Join(t.TempDir(), "vol.raw")
	require.NoError(t, SaveRaw(path, vol))

	got, err := LoadRaw(path, vol.Dims, 1, vol.VoxelSize, vol.Origin)
	require.NoError(t, err)
	assert.Equal(t, vol.Dims, got.Dims)
	assert.Equal(t, vol.Origin, got.Origin)
	for i := range vol.Data {
		if i == 3 {
			assert.True(t, math.IsNaN(got.Data[i]))
			continue
		}
		assert.Equal(t, vol.Data[i], got.Data[i], "value %d", i)
	}
}

func TestLoadRawErrors(t *testing.T) {
	_, err := LoadRaw(filepath.Join(t.TempDir(), "missing.raw"), [3]int{1, 1, 1}, 1, r3.Vec{}, r3.Vec{})
	assert.Error(t, err)

	short := NewVolume([3]int{1, 1, 2}, 1, r3.Vec{}, r3.Vec{})
	path := filepath.Join(t.TempDir(), "short.raw")
	require.NoError(t, SaveRaw(path, short))
	_, err = LoadRaw(path, [3]int{2, 2, 2}, 1, r3.Vec{}, r3.Vec{})
	assert.Error(t, err, "file holds fewer values than the geometry needs")
}
