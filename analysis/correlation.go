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

package analysis

import (
	"fmt"

	"github.com/GaryBoone/GoStats/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
)

// A Correlation summarizes the linear relationship of two paired
// series.
type Correlation struct {
	N         int
	Pearson   float64
	Slope     float64
	Intercept float64
	R2        float64
}

// Correlate computes the Pearson correlation and least-squares
// regression of two paired series.
func Correlate(xs, ys []float64) (*Correlation, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("analysis: series lengths %d and %d differ", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("analysis: need at least 2 paired values, got %d", len(xs))
	}
	slope, intercept, rsquared, _, _, _ := stats.LinearRegression(xs, ys)
	return &Correlation{
		N:         len(xs),
		Pearson:   stat.Correlation(xs, ys, nil),
		Slope:     slope,
		Intercept: intercept,
		R2:        rsquared,
	}, nil
}

// LinkVolumeSeries pairs, per link, the number of distinct vehicles
// seen on the link in the snapshot with the link's reported hourly
// volume. Links missing from the volume data are omitted.
func LinkVolumeSeries(network *loopheat.RoadNetwork, s *loopheat.Snapshot, vols *loopheat.LinkVolumes) (xs, ys []float64) {
	counts := make(map[int]map[int]bool, len(network.Links))
	for _, l := range network.Links {
		counts[l.ID] = make(map[int]bool)
	}
	for _, f := range s.Frames {
		if vehicles, ok := counts[f.Link]; ok {
			vehicles[f.Vehicle] = true
		}
	}

	for _, l := range network.Links {
		vol, ok := vols.Volumes[l.ID]
		if !ok {
			continue
		}
		xs = append(xs, vol)
		ys = append(ys, float64(len(counts[l.ID])))
	}
	return xs, ys
}

// DensitySeries pairs, per building, the mapped-vehicle count
// normalized by footprint area with the building's emission
// concentration. Buildings without count data are omitted.
func DensitySeries(densities []heatmap.Density, buildings *loopheat.BuildingCollection) (xs, ys []float64) {
	for _, d := range densities {
		b, ok := buildings.Buildings[d.Building]
		if !ok || d.Count < 0 {
			continue
		}
		xs = append(xs, float64(d.Count)/b.Area)
		ys = append(ys, d.Concentration)
	}
	return xs, ys
}
