// Package config provides configuration loading and management for twimap.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"twimap/internal/models"
	"twimap/pkg/batch"
	"twimap/pkg/curvature"
	"twimap/pkg/dixel"
	"twimap/pkg/interpolation"
	"twimap/pkg/mapping"
	"twimap/pkg/sphharm"
	"twimap/pkg/tractstat"
	"twimap/pkg/voxel"
)

// Geometry places a voxel grid in scanner space
type Geometry struct {
	// Dims is the grid size in voxels along x, y and z
	Dims [3]int `yaml:"dims"`

	// VoxelSize is the voxel spacing in mm
	VoxelSize [3]float64 `yaml:"voxelSize"`

	// Origin is the scanner position of voxel (0,0,0) in mm
	Origin [3]float64 `yaml:"origin"`
}

// Size returns the voxel size as a vector
func (g Geometry) Size() r3.Vec {
	return r3.Vec{X: g.VoxelSize[0], Y: g.VoxelSize[1], Z: g.VoxelSize[2]}
}

// Offset returns the origin as a vector
func (g Geometry) Offset() r3.Vec {
	return r3.Vec{X: g.Origin[0], Y: g.Origin[1], Z: g.Origin[2]}
}

// Header returns the voxel grid described by g
func (g Geometry) Header() voxel.Header {
	return voxel.NewHeader(g.Dims, voxel.NewScaling(g.Size(), g.Offset()))
}

func (g Geometry) validate(name string) error {
	for axis := 0; axis < 3; axis++ {
		if g.Dims[axis] < 1 {
			return fmt.Errorf("%s: dims must be positive, got %v", name, g.Dims)
		}
		if g.VoxelSize[axis] <= 0 {
			return fmt.Errorf("%s: voxel size must be positive, got %v", name, g.VoxelSize)
		}
	}
	return nil
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Mapping parameters
	Mapping struct {
		// Contrast selects how each streamline is weighted
		Contrast mapping.Contrast `yaml:"contrast"`

		// Statistic collapses per-point factors along a streamline
		Statistic tractstat.Statistic `yaml:"statistic"`

		// Decoration selects what each mapped voxel carries
		Decoration voxel.Decoration `yaml:"decoration"`

		// CurvatureFWHM is the tangent smoothing width in mm
		CurvatureFWHM float64 `yaml:"curvatureFwhm"`

		// DixelDirections is the number of direction bins of the dixel decoration
		DixelDirections int `yaml:"dixelDirections"`

		// TODLmax is the maximum SH degree of the TOD decoration
		TODLmax int `yaml:"todLmax"`

		// FODNonnegative clamps negative FOD amplitudes to zero
		FODNonnegative bool `yaml:"fodNonnegative"`
	} `yaml:"mapping"`

	// Grid is the output voxel grid
	Grid Geometry `yaml:"grid"`

	// Image parameters for the scalar or FOD image contrasts
	Image struct {
		// Path is a headerless little-endian float32 file
		Path string `yaml:"path"`

		// Volumes is the number of values per voxel
		Volumes int `yaml:"volumes"`

		Geometry Geometry `yaml:"geometry"`
	} `yaml:"image"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many streamlines are mapped concurrently
		NumWorkers int `yaml:"numWorkers"`

		// ProgressEvery logs progress after this many streamlines (0 disables)
		ProgressEvery int `yaml:"progressEvery"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Statistic is the voxel-wise statistic: sum, min, mean or max
		Statistic tractstat.Statistic `yaml:"statistic"`

		// Colour also writes a direction-encoded colour map
		Colour bool `yaml:"colour"`

		// SlicesDir, when set, receives JPEG slices of the map
		SlicesDir string `yaml:"slicesDir"`

		// Zoom enlarges saved slices
		Zoom int `yaml:"zoom"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Mapping.Contrast = mapping.TDI
	cfg.Mapping.Statistic = tractstat.Mean
	cfg.Mapping.Decoration = voxel.None
	cfg.Mapping.CurvatureFWHM = curvature.DefaultFWHM
	cfg.Mapping.DixelDirections = 60
	cfg.Mapping.TODLmax = 8

	cfg.Grid = Geometry{
		Dims:      [3]int{100, 100, 100},
		VoxelSize: [3]float64{1, 1, 1},
	}

	cfg.Image.Volumes = 1
	cfg.Image.Geometry = cfg.Grid

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.ProgressEvery = 10000

	cfg.Output.Statistic = tractstat.Sum
	cfg.Output.Zoom = 4
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks the configuration for values the mapper cannot use
func (c *Config) Validate() error {
	if err := c.Grid.validate("grid"); err != nil {
		return err
	}
	opts, err := c.MapperOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	needsImage := c.Mapping.Contrast.NeedsScalarImage() || c.Mapping.Contrast.NeedsFODImage()
	if needsImage {
		if c.Image.Path == "" {
			return fmt.Errorf("contrast %v needs image.path", c.Mapping.Contrast)
		}
		if err := c.Image.Geometry.validate("image.geometry"); err != nil {
			return err
		}
	}

	switch c.Output.Statistic {
	case tractstat.Sum, tractstat.Min, tractstat.Mean, tractstat.Max:
	default:
		return fmt.Errorf("output.statistic must be sum, min, mean or max, got %v", c.Output.Statistic)
	}
	if c.Output.Colour && c.Mapping.Decoration != voxel.Direction {
		return errors.New("output.colour needs the direction decoration")
	}
	return nil
}

// MapperOptions builds the mapper configuration, including the dixel
// direction set or TOD projector the decoration needs
func (c *Config) MapperOptions() (mapping.Options, error) {
	opts := mapping.Options{
		Contrast:      c.Mapping.Contrast,
		Statistic:     c.Mapping.Statistic,
		Decoration:    c.Mapping.Decoration,
		CurvatureFWHM: c.Mapping.CurvatureFWHM,
	}
	switch c.Mapping.Decoration {
	case voxel.Dixel:
		dirs, err := dixel.NewFibonacciSet(c.Mapping.DixelDirections)
		if err != nil {
			return opts, fmt.Errorf("mapping.dixelDirections: %w", err)
		}
		opts.Dixel = dirs
	case voxel.TOD:
		if c.Mapping.TODLmax < 0 || c.Mapping.TODLmax%2 != 0 {
			return opts, fmt.Errorf("mapping.todLmax must be even and non-negative, got %d", c.Mapping.TODLmax)
		}
		opts.TOD = sphharm.DeltaProjector{LMax: c.Mapping.TODLmax}
	}
	return opts, nil
}

// NewMapper creates the configured mapper and attaches its image, if the
// contrast samples one
func (c *Config) NewMapper() (*mapping.Mapper, error) {
	opts, err := c.MapperOptions()
	if err != nil {
		return nil, err
	}
	m, err := mapping.NewMapper(c.Grid.Header(), opts)
	if err != nil {
		return nil, err
	}

	contrast := c.Mapping.Contrast
	if !contrast.NeedsScalarImage() && !contrast.NeedsFODImage() {
		return m, nil
	}
	vol, err := c.LoadImage()
	if err != nil {
		return nil, err
	}
	if contrast.NeedsFODImage() {
		s, err := interpolation.NewFODSampler(vol)
		if err != nil {
			return nil, err
		}
		s.Nonnegative = c.Mapping.FODNonnegative
		if err := m.AddFODImage(s); err != nil {
			return nil, err
		}
		return m, nil
	}

	s, err := interpolation.NewScalarSampler(vol)
	if err != nil {
		return nil, err
	}
	if err := m.AddScalarImage(s); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadImage reads the configured image volume
func (c *Config) LoadImage() (*models.Volume, error) {
	g := c.Image.Geometry
	return models.LoadRaw(c.Image.Path, g.Dims, c.Image.Volumes, g.Size(), g.Offset())
}

// BatchParams returns the worker pool settings
func (c *Config) BatchParams() batch.Params {
	return batch.Params{
		NumWorkers:    c.Processing.NumWorkers,
		ProgressEvery: c.Processing.ProgressEvery,
	}
}
