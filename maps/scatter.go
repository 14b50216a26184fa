/*
Copyright © 2020 the Loopheat authors.
This file is part of Loopheat.

Loopheat is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Loopheat is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Loopheat.  If not, see <http://www.gnu.org/licenses/>.
*/

package maps

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/urbanloop/loopheat/analysis"
)

// VolumeScatter plots snapshot-derived per-link vehicle counts against
// reported link volumes, with the fitted regression line.
func VolumeScatter(w io.Writer, xs, ys []float64, c *analysis.Correlation) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("maps: series lengths %d and %d differ", len(xs), len(ys))
	}
	p := plot.New()
	p.Title.Text = "Link Volume Correlation"
	p.X.Label.Text = "Vehicles on Link (Link Volume Data)"
	p.Y.Label.Text = "Vehicles on Link (Snapshot Data)"

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("maps: building scatter plot: %v", err)
	}
	p.Add(s)

	if c != nil {
		fit := plotter.NewFunction(func(x float64) float64 {
			return c.Slope*x + c.Intercept
		})
		p.Add(fit)
		p.Title.Text = fmt.Sprintf("Link Volume Correlation (r = %.3f)", c.Pearson)
	}

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("maps: rendering scatter plot: %v", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("maps: writing scatter plot: %v", err)
	}
	return nil
}
