// Package tractstat collapses a per-point factor sequence into a single
// track-level value.
package tractstat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistic selects the reduction rule applied along a streamline
type Statistic int

const (
	Sum Statistic = iota
	Min
	Mean
	Max
	Median
	MeanNonzero
	EndsMin
	EndsMean
	EndsMax
	EndsProd
)

var statisticNames = []string{
	"sum", "min", "mean", "max", "median", "mean_nonzero",
	"ends_min", "ends_mean", "ends_max", "ends_prod",
}

func (s Statistic) String() string {
	if s < 0 || int(s) >= len(statisticNames) {
		return fmt.Sprintf("Statistic(%d)", int(s))
	}
	return statisticNames[s]
}

// ParseStatistic converts a statistic name (e.g. "mean_nonzero") to its value
func ParseStatistic(name string) (Statistic, error) {
	for i, n := range statisticNames {
		if strings.EqualFold(name, n) {
			return Statistic(i), nil
		}
	}
	return Sum, fmt.Errorf("unknown track statistic %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Statistic) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Statistic) UnmarshalText(text []byte) error {
	v, err := ParseStatistic(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsEndpoint reports whether the statistic operates on the two endpoint
// factors only
func (s Statistic) IsEndpoint() bool {
	switch s {
	case EndsMin, EndsMean, EndsMax, EndsProd:
		return true
	}
	return false
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finite returns the finite entries of factors, optionally excluding zeros
func finite(factors []float64, nonzero bool) []float64 {
	out := make([]float64, 0, len(factors))
	for _, f := range factors {
		if isFinite(f) && (!nonzero || f != 0) {
			out = append(out, f)
		}
	}
	return out
}

// Reduce applies s to factors.
//
// Non-finite entries are skipped by SUM, MIN, MAX and the means. MIN and MAX
// start from +Inf and -Inf, so an all-non-finite input leaves them
// non-finite; callers clamp that to zero. MEDIAN sorts every entry except NaN,
// infinities included, and returns the element at index n/2 (the upper middle
// for even n), without interpolation.
// The ENDS_* rules panic unless factors holds exactly the two endpoint values.
func Reduce(s Statistic, factors []float64) float64 {
	switch s {
	case Sum:
		vals := finite(factors, false)
		if len(vals) == 0 {
			return 0
		}
		return floats.Sum(vals)

	case Min:
		result := math.Inf(1)
		for _, f := range factors {
			if isFinite(f) {
				result = math.Min(result, f)
			}
		}
		return result

	case Max:
		result := math.Inf(-1)
		for _, f := range factors {
			if isFinite(f) {
				result = math.Max(result, f)
			}
		}
		return result

	case Mean:
		vals := finite(factors, false)
		if len(vals) == 0 {
			return 0
		}
		return stat.Mean(vals, nil)

	case MeanNonzero:
		vals := finite(factors, true)
		if len(vals) == 0 {
			return 0
		}
		return stat.Mean(vals, nil)

	case Median:
		vals := make([]float64, 0, len(factors))
		for _, f := range factors {
			if !math.IsNaN(f) {
				vals = append(vals, f)
			}
		}
		if len(vals) == 0 {
			return 0
		}
		sort.Float64s(vals)
		return vals[len(vals)/2]

	case EndsMin:
		a, b := endpoints(s, factors)
		if math.Abs(a) < math.Abs(b) {
			return a
		}
		return b

	case EndsMax:
		a, b := endpoints(s, factors)
		if math.Abs(a) > math.Abs(b) {
			return a
		}
		return b

	case EndsMean:
		a, b := endpoints(s, factors)
		return 0.5 * (a + b)

	case EndsProd:
		a, b := endpoints(s, factors)
		if (a < 0 && b < 0) || (a > 0 && b > 0) {
			return a * b
		}
		return 0

	default:
		panic(fmt.Sprintf("tractstat: unsupported track statistic %v", s))
	}
}

func endpoints(s Statistic, factors []float64) (float64, float64) {
	if len(factors) != 2 {
		panic(fmt.Sprintf("tractstat: %v needs exactly 2 endpoint factors, got %d", s, len(factors)))
	}
	return factors[0], factors[1]
}
