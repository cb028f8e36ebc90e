// Package mapping turns one streamline into the set of voxels it visits and
// a single track-weighted imaging factor.
package mapping

import (
	"fmt"
	"math"

	"twimap/internal/models"
	"twimap/pkg/curvature"
	"twimap/pkg/tractstat"
	"twimap/pkg/voxel"
)

// ImageSampler provides per-point factors read from an image along a
// streamline. With ends set only the first and last points are sampled, so
// exactly two factors are returned. Points that cannot be sampled give NaN.
type ImageSampler interface {
	LoadFactors(tck models.Streamline, ends bool, dst []float64) []float64
}

// Options is the fixed configuration of a Mapper
type Options struct {
	// Contrast selects how the track factor is derived
	Contrast Contrast

	// Statistic collapses per-point factors into one value. Only contrasts
	// for which UsesFactors is true consult it.
	Statistic tractstat.Statistic

	// Decoration selects what each output voxel carries
	Decoration voxel.Decoration

	// Dixel bins local directions; required with the Dixel decoration
	Dixel voxel.DixelBinner

	// TOD projects local directions onto SH; required with the TOD decoration
	TOD voxel.TODProjector

	// CurvatureFWHM is the tangent smoothing width of the Curvature
	// contrast in mm. Zero selects curvature.DefaultFWHM.
	CurvatureFWHM float64
}

// Validate checks that the options describe a supported mapping
func (o Options) Validate() error {
	if !o.Contrast.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownContrast, o.Contrast)
	}
	if o.Statistic < tractstat.Sum || o.Statistic > tractstat.EndsProd {
		return fmt.Errorf("%w: %v", ErrUnknownStatistic, o.Statistic)
	}

	switch o.Decoration {
	case voxel.None, voxel.Direction:
	case voxel.Dixel:
		if o.Dixel == nil {
			return fmt.Errorf("%w: dixel decoration needs a direction binner", ErrMissingPlugin)
		}
	case voxel.TOD:
		if o.TOD == nil {
			return fmt.Errorf("%w: tod decoration needs an SH projector", ErrMissingPlugin)
		}
	default:
		return fmt.Errorf("%w: unknown decoration %v", ErrUnsupportedCombination, o.Decoration)
	}

	if o.Contrast == Endpoint && (o.Decoration == voxel.Dixel || o.Decoration == voxel.TOD) {
		return fmt.Errorf("%w: %v contrast with %v decoration", ErrUnsupportedCombination, o.Contrast, o.Decoration)
	}
	if o.Statistic.IsEndpoint() && !o.Contrast.NeedsScalarImage() && !o.Contrast.NeedsFODImage() {
		return fmt.Errorf("%w: %v statistic with %v contrast", ErrUnsupportedCombination, o.Statistic, o.Contrast)
	}
	if o.CurvatureFWHM < 0 || math.IsNaN(o.CurvatureFWHM) {
		return fmt.Errorf("%w: curvature FWHM %v", ErrUnsupportedCombination, o.CurvatureFWHM)
	}
	return nil
}

// Mapper maps streamlines onto a voxel grid under a fixed configuration.
//
// A Mapper holds per-call scratch buffers that are reset at the start of
// every call, so one instance must not be used by concurrent goroutines.
// Clone gives each worker its own instance.
type Mapper struct {
	header voxel.Header
	opts   Options

	image     ImageSampler
	curvature *curvature.Estimator

	factors []float64
}

// NewMapper creates a mapper for the grid described by h
func NewMapper(h voxel.Header, opts Options) (*Mapper, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if h.Transform == nil {
		h = voxel.NewHeader(h.Dims, nil)
	}
	m := &Mapper{header: h, opts: opts}
	if opts.Contrast == Curvature {
		m.curvature = curvature.NewEstimator(opts.CurvatureFWHM)
	}
	return m, nil
}

// Options returns the mapper configuration
func (m *Mapper) Options() Options { return m.opts }

// Header returns the output grid
func (m *Mapper) Header() voxel.Header { return m.header }

// AddScalarImage attaches the scalar image sampled by the ScalarMap and
// ScalarMapCount contrasts
func (m *Mapper) AddScalarImage(s ImageSampler) error {
	return m.attach(s, m.opts.Contrast.NeedsScalarImage(), "scalar")
}

// AddFODImage attaches the FOD image sampled by the FODAmp contrast
func (m *Mapper) AddFODImage(s ImageSampler) error {
	return m.attach(s, m.opts.Contrast.NeedsFODImage(), "FOD")
}

func (m *Mapper) attach(s ImageSampler, compatible bool, kind string) error {
	if m.image != nil {
		return ErrImageAlreadySet
	}
	if !compatible {
		return fmt.Errorf("%w: %s image with %v contrast", ErrImageContrast, kind, m.opts.Contrast)
	}
	if s == nil {
		return fmt.Errorf("mapping: nil %s image", kind)
	}
	m.image = s
	return nil
}

// Clone returns a mapper sharing the configuration and attached image of m
// with its own scratch buffers
func (m *Mapper) Clone() *Mapper {
	c := &Mapper{
		header: m.header,
		opts:   m.opts,
		image:  m.image,
	}
	if m.curvature != nil {
		c.curvature = m.curvature.Clone()
	}
	return c
}

// Map voxelises tck and computes its track factor. The returned factor is
// always finite.
func (m *Mapper) Map(tck models.Streamline) (*voxel.Set, float64, error) {
	factor, err := m.Factor(tck)
	if err != nil {
		return nil, 0, err
	}
	return m.Voxelise(tck), factor, nil
}

// Voxelise returns the voxels visited by tck, decorated as configured. The
// Endpoint contrast only maps the first and last points.
func (m *Mapper) Voxelise(tck models.Streamline) *voxel.Set {
	if m.opts.Contrast == Endpoint {
		return voxel.VoxeliseEndpoints(tck, m.header, m.opts.Decoration)
	}
	switch m.opts.Decoration {
	case voxel.Direction:
		return voxel.VoxeliseDirectional(tck, m.header)
	case voxel.Dixel:
		return voxel.VoxeliseDixel(tck, m.header, m.opts.Dixel)
	case voxel.TOD:
		return voxel.VoxeliseTOD(tck, m.header, m.opts.TOD)
	default:
		return voxel.VoxelisePlain(tck, m.header)
	}
}

// Factor computes the track factor of tck without voxelising it
func (m *Mapper) Factor(tck models.Streamline) (float64, error) {
	if len(tck) < 2 {
		return 0, ErrShortStreamline
	}
	m.factors = m.factors[:0]

	var factor float64
	switch m.opts.Contrast {
	case TDI, Endpoint:
		return 1, nil

	case Length:
		factor = tck.Length()

	case InvLength:
		factor = 1 / tck.Length()

	case ScalarMap, ScalarMapCount, FODAmp:
		if m.image == nil {
			return 0, fmt.Errorf("%w: %v", ErrMissingImage, m.opts.Contrast)
		}
		m.factors = m.image.LoadFactors(tck, m.opts.Statistic.IsEndpoint(), m.factors)
		factor = tractstat.Reduce(m.opts.Statistic, m.factors)

	case Curvature:
		m.factors = m.curvature.Profile(tck, m.factors)
		factor = tractstat.Reduce(m.opts.Statistic, m.factors)

	default:
		panic(fmt.Sprintf("mapping: unsupported contrast %v", m.opts.Contrast))
	}

	return finalizeFactor(m.opts.Contrast, factor), nil
}

// Factors returns the per-point factors built by the last call to Factor or
// Map. The slice is reused by the next call.
func (m *Mapper) Factors() []float64 { return m.factors }

// finalizeFactor turns the reduced value into the stored track factor:
// presence contrasts collapse to 1 or 0 and anything non-finite becomes 0
func finalizeFactor(c Contrast, f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if c == ScalarMapCount {
		if f != 0 {
			return 1
		}
		return 0
	}
	return f
}
