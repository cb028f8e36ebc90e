package dixel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewDirectionSet(t *testing.T) {
	_, err := NewDirectionSet(nil)
	assert.ErrorIs(t, err, ErrNoDirections)

	_, err = NewDirectionSet([]r3.Vec{{X: 1}, {}})
	assert.Error(t, err)

	s, err := NewDirectionSet([]r3.Vec{{X: 2}, {Y: 3}, {Z: 0.5}})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, r3.Vec{Y: 1}, s.Direction(1))
}

func TestBinAxes(t *testing.T) {
	s, err := NewDirectionSet([]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}})
	require.NoError(t, err)

	tests := []struct {
		dir  r3.Vec
		want int
	}{
		{r3.Vec{X: 1}, 0},
		{r3.Vec{X: -4}, 0},
		{r3.Vec{X: 0.2, Y: 0.9, Z: 0.1}, 1},
		{r3.Vec{X: 0.2, Y: -0.9, Z: 0.1}, 1},
		{r3.Vec{X: 0.1, Y: 0.1, Z: -0.5}, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Bin(tt.dir), "Bin(%v)", tt.dir)
	}
	assert.Equal(t, 0, s.Bin(r3.Vec{}))
}

func TestBinMatchesBruteForce(t *testing.T) {
	s, err := NewFibonacciSet(60)
	require.NoError(t, err)
	require.Equal(t, 60, s.Len())

	for i := 0; i < s.Len(); i++ {
		assert.InDelta(t, 1.0, r3.Norm(s.Direction(i)), 1e-12)
		assert.GreaterOrEqual(t, s.Direction(i).Z, 0.0, "upper hemisphere")
	}

	for k := 0; k < 200; k++ {
		theta := float64(k) * 0.37
		phi := float64(k) * 1.91
		d := r3.Vec{
			X: math.Sin(theta) * math.Cos(phi),
			Y: math.Sin(theta) * math.Sin(phi),
			Z: math.Cos(theta),
		}

		best, bestDot := -1, -1.0
		for i := 0; i < s.Len(); i++ {
			if dot := math.Abs(r3.Dot(d, s.Direction(i))); dot > bestDot {
				best, bestDot = i, dot
			}
		}
		got := s.Bin(d)
		assert.InDelta(t, bestDot, math.Abs(r3.Dot(d, s.Direction(got))), 1e-12, "direction %v: want bin %d, got %d", d, best, got)
		assert.Equal(t, got, s.Bin(r3.Scale(-1, d)), "antipode of %v", d)
	}

	_, err = NewFibonacciSet(0)
	assert.ErrorIs(t, err, ErrNoDirections)
}
