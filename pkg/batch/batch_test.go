package batch

import (
	"context"
	"log"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
	"twimap/internal/monitoring"
	"twimap/pkg/mapping"
	"twimap/pkg/tractstat"
	"twimap/pkg/voxel"
)

var grid = voxel.NewHeader([3]int{12, 12, 12}, nil)

// randomWalks returns n seeded random walks starting inside the grid
func randomWalks(n int) []models.Streamline {
	rng := rand.New(rand.NewSource(1))
	tcks := make([]models.Streamline, n)
	for i := range tcks {
		p := r3.Vec{X: 2 + 8*rng.Float64(), Y: 2 + 8*rng.Float64(), Z: 2 + 8*rng.Float64()}
		steps := 5 + rng.Intn(30)
		tck := make(models.Streamline, 0, steps)
		for s := 0; s < steps; s++ {
			tck = append(tck, p)
			p = r3.Add(p, r3.Vec{X: rng.Float64() - 0.3, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.6})
		}
		tcks[i] = tck
	}
	return tcks
}

func quiet(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
}

func TestRunMatchesSerial(t *testing.T) {
	quiet(t)
	tcks := randomWalks(300)
	m, err := mapping.NewMapper(grid, mapping.Options{Contrast: mapping.Length, Decoration: voxel.Direction})
	require.NoError(t, err)

	serial := NewTWIMap(grid)
	sStats, err := MapSerial(m, tcks, serial)
	require.NoError(t, err)

	parallel := NewTWIMap(grid)
	pStats, err := Run(context.Background(), m, tcks, parallel, Params{NumWorkers: 4, ProgressEvery: 50})
	require.NoError(t, err)

	assert.Equal(t, sStats, pStats)
	assert.Equal(t, 300, pStats.Mapped)
	assert.Equal(t, serial.Tracks(), parallel.Tracks())
	require.Equal(t, serial.Len(), parallel.Len())

	for v := range serial.cells {
		assert.Equal(t, serial.Count(v), parallel.Count(v), "count at %v", v)
		for _, s := range []tractstat.Statistic{tractstat.Sum, tractstat.Min, tractstat.Mean, tractstat.Max} {
			want, err := serial.Value(v, s)
			require.NoError(t, err)
			got, err := parallel.Value(v, s)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9, "%v at %v", s, v)
		}
		wc, gc := serial.Colour(v), parallel.Colour(v)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(wc, gc)), 1e-9, "colour at %v", v)
	}
}

func TestRunSkipsShortStreamlines(t *testing.T) {
	quiet(t)
	tcks := []models.Streamline{
		{{X: 1}, {X: 2}},
		{{X: 3}},
		nil,
		{{X: 1}, {X: 1, Y: 1}},
	}
	m, err := mapping.NewMapper(grid, mapping.Options{Contrast: mapping.TDI})
	require.NoError(t, err)

	out := NewTWIMap(grid)
	stats, err := Run(context.Background(), m, tcks, out, Params{NumWorkers: 2})
	require.NoError(t, err)
	assert.Equal(t, Stats{Mapped: 2, Skipped: 2}, stats)
	assert.Equal(t, 2, out.Count(voxel.Voxel{1, 0, 0}))
	assert.Equal(t, 1, out.Count(voxel.Voxel{2, 0, 0}))
	assert.Equal(t, 0, out.Count(voxel.Voxel{5, 5, 5}))
}

func TestRunStopsOnMappingError(t *testing.T) {
	quiet(t)
	m, err := mapping.NewMapper(grid, mapping.Options{Contrast: mapping.ScalarMap})
	require.NoError(t, err)

	_, err = Run(context.Background(), m, randomWalks(10), NewTWIMap(grid), Params{NumWorkers: 3})
	assert.ErrorIs(t, err, mapping.ErrMissingImage)

	_, err = MapSerial(m, randomWalks(3), NewTWIMap(grid))
	assert.ErrorIs(t, err, mapping.ErrMissingImage)
}

func TestRunCancelled(t *testing.T) {
	quiet(t)
	m, err := mapping.NewMapper(grid, mapping.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := NewTWIMap(grid)
	stats, err := Run(ctx, m, randomWalks(50), out, Params{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Mapped)
	assert.Zero(t, out.Tracks())
}

func TestRunEmpty(t *testing.T) {
	m, err := mapping.NewMapper(grid, mapping.Options{})
	require.NoError(t, err)
	stats, err := Run(context.Background(), m, nil, NewTWIMap(grid), Params{})
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestTWIMapStatistics(t *testing.T) {
	out := NewTWIMap(grid)
	v := voxel.Voxel{1, 2, 3}
	for _, f := range []float64{2, -1, 5} {
		set := voxel.NewSet(voxel.Direction)
		set.AddDirection(v, r3.Vec{X: -1})
		set.Finalize()
		out.Add(set, f)
	}

	tests := []struct {
		stat tractstat.Statistic
		want float64
	}{
		{tractstat.Sum, 6},
		{tractstat.Min, -1},
		{tractstat.Max, 5},
		{tractstat.Mean, 2},
	}
	for _, tt := range tests {
		got, err := out.Value(v, tt.stat)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.stat.String())
	}
	_, err := out.Value(v, tractstat.Median)
	assert.Error(t, err)
	_, err = out.Value(voxel.Voxel{}, tractstat.EndsMax)
	assert.Error(t, err)

	got, err := out.Value(voxel.Voxel{}, tractstat.Max)
	require.NoError(t, err)
	assert.Zero(t, got)

	assert.Equal(t, r3.Vec{X: 6}, out.Colour(v), "colour sums the factor-weighted absolute direction")
}

func TestTWIMapVolumes(t *testing.T) {
	h := voxel.NewHeader([3]int{3, 3, 3}, nil)
	out := NewTWIMap(h)

	a := voxel.NewSet(voxel.Direction)
	a.AddDirection(voxel.Voxel{0, 0, 0}, r3.Vec{Y: 1})
	a.AddDirection(voxel.Voxel{2, 1, 0}, r3.Vec{Z: -1})
	a.Finalize()
	out.Add(a, 3)

	vol, err := out.Volume(tractstat.Sum, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, vol.At(0, 0, 0, 0))
	assert.Equal(t, 3.0, vol.At(2, 1, 0, 0))
	assert.Equal(t, 0.0, vol.At(1, 1, 1, 0))

	_, err = out.Volume(tractstat.Median, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	assert.Error(t, err)

	rgb := out.ColourVolume(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	require.Equal(t, 3, rgb.Volumes)
	assert.Equal(t, 1.0, rgb.At(0, 0, 0, 1))
	assert.Equal(t, 1.0, rgb.At(2, 1, 0, 2))
	assert.Equal(t, 0.0, rgb.At(2, 1, 0, 0))

	empty := NewTWIMap(h).ColourVolume(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
	for _, x := range empty.Data {
		assert.False(t, math.IsNaN(x))
	}
}

func BenchmarkRun(b *testing.B) {
	monitoring.SetLogger(nil)
	tcks := randomWalks(500)
	m, _ := mapping.NewMapper(grid, mapping.Options{Contrast: mapping.Curvature, Statistic: tractstat.Mean})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Run(context.Background(), m, tcks, NewTWIMap(grid), Params{})
	}
}
