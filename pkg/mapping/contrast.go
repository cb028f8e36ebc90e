package mapping

import (
	"fmt"
	"strings"
)

// Contrast selects how the scalar weight of a streamline is derived
type Contrast int

const (
	// TDI weights every streamline by 1 (track density)
	TDI Contrast = iota
	// Endpoint weights by 1 and maps only the two endpoints
	Endpoint
	// Length weights by the streamline path length
	Length
	// InvLength weights by the reciprocal of the path length
	InvLength
	// ScalarMap reduces the values of a scalar image sampled along the track
	ScalarMap
	// ScalarMapCount is 1 when the reduced scalar image value is non-zero
	ScalarMapCount
	// FODAmp reduces the FOD amplitude along the local track direction
	FODAmp
	// Curvature reduces the local curvature profile of the track
	Curvature
)

var contrastNames = []string{
	"tdi", "endpoint", "length", "invlength",
	"scalar_map", "scalar_map_count", "fod_amp", "curvature",
}

func (c Contrast) String() string {
	if c < 0 || int(c) >= len(contrastNames) {
		return fmt.Sprintf("Contrast(%d)", int(c))
	}
	return contrastNames[c]
}

// ParseContrast converts a contrast name (e.g. "scalar_map") to its value
func ParseContrast(name string) (Contrast, error) {
	for i, n := range contrastNames {
		if strings.EqualFold(name, n) {
			return Contrast(i), nil
		}
	}
	return TDI, fmt.Errorf("%w %q", ErrUnknownContrast, name)
}

// MarshalText implements encoding.TextMarshaler
func (c Contrast) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Contrast) UnmarshalText(text []byte) error {
	v, err := ParseContrast(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Contrast) valid() bool {
	return c >= TDI && c <= Curvature
}

// UsesFactors reports whether the contrast builds a per-point factor list
// that is collapsed by the track statistic
func (c Contrast) UsesFactors() bool {
	switch c {
	case ScalarMap, ScalarMapCount, FODAmp, Curvature:
		return true
	}
	return false
}

// NeedsScalarImage reports whether the contrast samples a scalar image
func (c Contrast) NeedsScalarImage() bool {
	return c == ScalarMap || c == ScalarMapCount
}

// NeedsFODImage reports whether the contrast samples an FOD image
func (c Contrast) NeedsFODImage() bool {
	return c == FODAmp
}
