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
	"math"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
	"github.com/urbanloop/loopheat/mapping"
)

// ConsistencyThreshold is the maximum distance, in raster cells,
// between a mapped vehicle and the nearest heatmap cell of its link for
// the mapping to be considered consistent with the emission heatmap.
const ConsistencyThreshold = 50

// ConsistencyStats accumulates the results of a mapping↔heatmap
// consistency check.
type ConsistencyStats struct {
	Total   int
	Err     int // mappings inconsistent with the heatmap
	Outside int // vehicles outside the raster's y extent
}

// Rate returns n as a percentage of the checked mappings.
func (s *ConsistencyStats) Rate(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(s.Total)
}

// CheckConsistency verifies one hour of vehicle→building mappings
// against the emission heatmap of the same hour: every mapped vehicle
// must lie within ConsistencyThreshold cells of the nearest heatmap
// cell belonging to its link. Vehicles outside the raster's y extent,
// and vehicles on links the heatmap holds no cells for, count as
// erroneous. The stats accumulate across calls.
func CheckConsistency(stats *ConsistencyStats, entries []mapping.Entry, grid *heatmap.Grid) {
	for _, e := range entries {
		stats.Total++
		if e.Y < heatmap.MinY || heatmap.MaxY < e.Y {
			stats.Outside++
			stats.Err++
			continue
		}
		cells, ok := grid.LinkCells[e.Link]
		if !ok {
			stats.Err++
			continue
		}
		if nearestCellDistance(geom.Point{X: e.X, Y: e.Y}, cells) > ConsistencyThreshold {
			stats.Err++
		}
	}
}

// nearestCellDistance returns the distance, in cells, from the cell
// containing p to the nearest of the given cells.
func nearestCellDistance(p geom.Point, cells []heatmap.Cell) float64 {
	c, ok := heatmap.CellAt(p)
	if !ok {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for _, lc := range cells {
		if lc == c {
			return 0
		}
		d := math.Hypot(float64(lc.Row-c.Row), float64(lc.Col-c.Col))
		if d < min {
			min = d
		}
	}
	return min
}

// HourlyConsistency runs the consistency check for a set of hours:
// loadEntries and loadEmissions supply each hour's mappings and
// emissions. Hours for which either loader returns nil are skipped.
func HourlyConsistency(network *loopheat.RoadNetwork, hours []int,
	loadEntries func(hour int) ([]mapping.Entry, error),
	loadEmissions func(hour int) (*loopheat.EmissionsSnapshot, error)) (*ConsistencyStats, error) {

	stats := new(ConsistencyStats)
	for _, hour := range hours {
		entries, err := loadEntries(hour)
		if err != nil {
			return nil, err
		}
		emissions, err := loadEmissions(hour)
		if err != nil {
			return nil, err
		}
		if entries == nil || emissions == nil {
			continue
		}
		grid, err := heatmap.Compute(network, emissions)
		if err != nil {
			return nil, err
		}
		CheckConsistency(stats, entries, grid)
	}
	return stats, nil
}
