package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"twimap/internal/models"
)

// Series is one per-point quantity along a streamline, such as the sampled
// image values or the curvature profile
type Series struct {
	Label  string
	Values []float64
}

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

// ProfileXYs pairs each finite value with the arc length of its point along
// tck. Non-finite values are left out.
func ProfileXYs(tck models.Streamline, values []float64) (plotter.XYs, error) {
	if len(values) != len(tck) {
		return nil, fmt.Errorf("%d values for %d points", len(values), len(tck))
	}
	steps := tck.StepLengths()
	pts := make(plotter.XYs, 0, len(values))
	var arc float64
	for i, y := range values {
		if i > 0 {
			arc += steps[i-1]
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: arc, Y: y})
	}
	return pts, nil
}

// PlotProfile draws every series against arc length along tck and saves the
// plot to filename. The image format follows the file extension.
func PlotProfile(tck models.Streamline, title string, series []Series, filename string) error {
	if len(series) == 0 {
		return errors.New("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Arc length (mm)"
	p.Y.Label.Text = "Factor"

	for i, s := range series {
		pts, err := ProfileXYs(tck, s.Values)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Label, err)
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save profile plot: %w", err)
	}
	return nil
}
