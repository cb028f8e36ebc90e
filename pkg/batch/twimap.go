package batch

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
	"twimap/pkg/tractstat"
	"twimap/pkg/voxel"
)

// cell is the running per-voxel summary of every track that visited it
type cell struct {
	sum   float64
	min   float64
	max   float64
	count int
	dir   r3.Vec
}

// TWIMap accumulates track factors per voxel across many streamlines.
// It is safe for concurrent use.
type TWIMap struct {
	mu     sync.Mutex
	header voxel.Header
	cells  map[voxel.Voxel]*cell
	tracks int
}

// NewTWIMap creates an empty map over the grid described by h
func NewTWIMap(h voxel.Header) *TWIMap {
	return &TWIMap{
		header: h,
		cells:  make(map[voxel.Voxel]*cell),
	}
}

// Add merges the voxels of one streamline weighted by its factor. For
// direction-decorated sets the absolute direction of every voxel, scaled by
// the factor, is added to the voxel colour.
func (m *TWIMap) Add(set *voxel.Set, factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracks++
	for _, e := range set.Entries() {
		c, ok := m.cells[e.Voxel]
		if !ok {
			c = &cell{min: math.Inf(1), max: math.Inf(-1)}
			m.cells[e.Voxel] = c
		}
		c.sum += factor
		c.min = math.Min(c.min, factor)
		c.max = math.Max(c.max, factor)
		c.count++
		if set.Decoration() == voxel.Direction {
			abs := r3.Vec{X: math.Abs(e.Dir.X), Y: math.Abs(e.Dir.Y), Z: math.Abs(e.Dir.Z)}
			c.dir = r3.Add(c.dir, r3.Scale(factor, abs))
		}
	}
}

// Tracks returns the number of streamlines merged so far
func (m *TWIMap) Tracks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracks
}

// Len returns the number of voxels visited by at least one streamline
func (m *TWIMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cells)
}

// Count returns how many streamlines visited v
func (m *TWIMap) Count(v voxel.Voxel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[v]; ok {
		return c.count
	}
	return 0
}

// Value returns the voxel-wise statistic s of the factors of every
// streamline that visited v. Only Sum, Min, Mean and Max are supported.
// Unvisited voxels are 0.
func (m *TWIMap) Value(v voxel.Voxel, s tractstat.Statistic) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[v]
	if !ok {
		if err := checkVoxelStatistic(s); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return c.value(s)
}

// Colour returns the accumulated direction-encoded colour of v
func (m *TWIMap) Colour(v voxel.Voxel) r3.Vec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[v]; ok {
		return c.dir
	}
	return r3.Vec{}
}

func checkVoxelStatistic(s tractstat.Statistic) error {
	switch s {
	case tractstat.Sum, tractstat.Min, tractstat.Mean, tractstat.Max:
		return nil
	}
	return fmt.Errorf("batch: %v is not a voxel-wise statistic", s)
}

func (c *cell) value(s tractstat.Statistic) (float64, error) {
	switch s {
	case tractstat.Sum:
		return c.sum, nil
	case tractstat.Min:
		return c.min, nil
	case tractstat.Max:
		return c.max, nil
	case tractstat.Mean:
		return c.sum / float64(c.count), nil
	}
	return 0, checkVoxelStatistic(s)
}

// Volume renders the map as a scalar volume on its grid. The volume is
// placed with the given voxel size and origin; unvisited voxels are 0.
func (m *TWIMap) Volume(s tractstat.Statistic, voxelSize, origin r3.Vec) (*models.Volume, error) {
	if err := checkVoxelStatistic(s); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vol := models.NewVolume(m.header.Dims, 1, voxelSize, origin)
	for v, c := range m.cells {
		val, _ := c.value(s)
		vol.Set(v[0], v[1], v[2], 0, val)
	}
	return vol, nil
}

// ColourVolume renders the direction-encoded colour as a three-volume
// image (red, green, blue), normalised so the brightest voxel has unit norm
func (m *TWIMap) ColourVolume(voxelSize, origin r3.Vec) *models.Volume {
	m.mu.Lock()
	defer m.mu.Unlock()

	vol := models.NewVolume(m.header.Dims, 3, voxelSize, origin)
	var peak float64
	for _, c := range m.cells {
		peak = math.Max(peak, r3.Norm(c.dir))
	}
	if peak == 0 {
		return vol
	}
	for v, c := range m.cells {
		vol.Set(v[0], v[1], v[2], 0, c.dir.X/peak)
		vol.Set(v[0], v[1], v[2], 1, c.dir.Y/peak)
		vol.Set(v[0], v[1], v[2], 2, c.dir.Z/peak)
	}
	return vol
}
