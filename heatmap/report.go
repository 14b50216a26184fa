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

package heatmap

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/gocarina/gocsv"

	"github.com/urbanloop/loopheat"
)

// The simulated week the emission dataset covers: July 4th through
// July 10th, 2017.
const (
	FirstDay = 4
	LastDay  = 10
)

// A DayDiff is one entry of the day-to-day heatmap difference report.
type DayDiff struct {
	Day1       int     `csv:"Day 1"`
	Day2       int     `csv:"Day 2"`
	Hour       int     `csv:"Hour"`
	Difference float64 `csv:"Difference"`
}

// DiffDays compares the emission heatmaps of all day pairs of the
// simulated week, hour by hour: for every hour it computes the grid of
// each day from the hourly emission files in dir and reports the
// pairwise grid differences. Hours whose emission file is missing for
// some day are skipped with a progress note.
func DiffDays(network *loopheat.RoadNetwork, dir string, progress chan string) ([]DayDiff, error) {
	var diffs []DayDiff
	for hour := 0; hour < 24; hour++ {
		grids := make(map[int]*sparse.DenseArray)
		complete := true
		for day := FirstDay; day <= LastDay; day++ {
			g, err := computeFromFile(network, filepath.Join(dir, loopheat.EmissionsFileName(day, hour)))
			if os.IsNotExist(err) {
				if progress != nil {
					progress <- fmt.Sprintf("Skipping hour %d: no emissions for day %d\n", hour, day)
				}
				complete = false
				break
			} else if err != nil {
				return nil, err
			}
			grids[day] = g.Data
		}
		if !complete {
			continue
		}
		for d1 := FirstDay; d1 <= LastDay; d1++ {
			for d2 := d1 + 1; d2 <= LastDay; d2++ {
				d, err := Diff(grids[d1], grids[d2])
				if err != nil {
					return nil, err
				}
				diffs = append(diffs, DayDiff{Day1: d1, Day2: d2, Hour: hour, Difference: d})
			}
		}
		if progress != nil {
			progress <- fmt.Sprintf("Compared hour %d across %d days\n", hour, LastDay-FirstDay+1)
		}
	}
	return diffs, nil
}

func computeFromFile(network *loopheat.RoadNetwork, path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	emissions, err := loopheat.ReadEmissions(f)
	if err != nil {
		return nil, fmt.Errorf("heatmap: while reading %s: %v", filepath.Base(path), err)
	}
	return Compute(network, emissions)
}

// WriteDayDiffs writes the difference report as CSV.
func WriteDayDiffs(w io.Writer, diffs []DayDiff) error {
	if err := gocsv.Marshal(&diffs, w); err != nil {
		return fmt.Errorf("heatmap: writing day differences: %v", err)
	}
	return nil
}

// A Density is the emission density record of one building: the summed
// grid values of the cells its bounding box covers, the number of
// vehicles mapped to it, and the emission total normalized by footprint
// area.
type Density struct {
	Building      int
	Total         float64
	Count         int
	Concentration float64
}

// BuildingDensities sums, for every building, the grid cells covered by
// the building's bounding box. Buildings entirely outside the raster
// get a zero total.
func BuildingDensities(data *sparse.DenseArray, buildings *loopheat.BuildingCollection) []Density {
	out := make([]Density, 0, len(buildings.Buildings))
	for _, b := range buildings.Slice() {
		nw, nok := CellAt(geom.Point{X: b.BBox.Min.X, Y: b.BBox.Max.Y})
		se, sok := CellAt(geom.Point{X: b.BBox.Max.X, Y: b.BBox.Min.Y})
		if !nok {
			nw = clampCell(geom.Point{X: b.BBox.Min.X, Y: b.BBox.Max.Y})
		}
		if !sok {
			se = clampCell(geom.Point{X: b.BBox.Max.X, Y: b.BBox.Min.Y})
		}
		var total float64
		if nok || sok {
			for r := nw.Row; r <= se.Row; r++ {
				for c := nw.Col; c <= se.Col; c++ {
					total += data.Get(r, c)
				}
			}
		}
		out = append(out, Density{
			Building:      b.ID,
			Total:         total,
			Count:         b.Count,
			Concentration: total / b.Area,
		})
	}
	return out
}

// WriteDensities writes building emission densities as CSV.
func WriteDensities(w io.Writer, densities []Density) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"BUILDING", "TOTAL_EMISSION", "MAPPED_VEHICLE_COUNT", "CONCENTRATION"}); err != nil {
		return fmt.Errorf("heatmap: writing densities: %v", err)
	}
	for _, d := range densities {
		err := cw.Write([]string{
			strconv.Itoa(d.Building),
			strconv.FormatFloat(d.Total, 'f', -1, 64),
			strconv.Itoa(d.Count),
			strconv.FormatFloat(d.Concentration, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("heatmap: writing densities: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadDensities loads a building emission density CSV file.
func ReadDensities(r io.Reader) ([]Density, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("heatmap: reading densities: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("heatmap: density file is empty")
	}
	out := make([]Density, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("heatmap: reading density building ID: %v", err)
		}
		total, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("heatmap: reading density for building %d: %v", id, err)
		}
		count, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("heatmap: reading density for building %d: %v", id, err)
		}
		conc, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("heatmap: reading density for building %d: %v", id, err)
		}
		out = append(out, Density{Building: id, Total: total, Count: count, Concentration: conc})
	}
	return out, nil
}
