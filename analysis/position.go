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

// Package analysis validates and cross-checks the simulation datasets:
// recorded vehicle positions against link geometry, vehicle mappings
// against emission heatmaps, and snapshot-derived traffic against
// reported link volumes.
package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
)

// Coordinate error thresholds: a recorded coordinate further than 30
// raster cell widths beyond its link's first-segment extent is
// considered erroneous.
const (
	DXThreshold = 30 * heatmap.CellWidth
	DYThreshold = 30 * heatmap.CellHeight
)

// Methods for deriving a repaired x coordinate.
type XMethod int

const (
	XUseEndpoint XMethod = iota
	XUseOriginal
)

func (m XMethod) String() string {
	if m == XUseEndpoint {
		return "USE ENDPOINT"
	}
	return "USE ORIGINAL"
}

// Methods for deriving a repaired y coordinate.
type YMethod int

const (
	YUseEndpoint YMethod = iota
	YUseMidpoint
	YSolveForPoint
)

func (m YMethod) String() string {
	switch m {
	case YUseEndpoint:
		return "USE ENDPOINT"
	case YUseMidpoint:
		return "USE MIDPOINT"
	}
	return "SOLVE FOR POINT"
}

// A MethodPair identifies how one frame's coordinates were repaired.
type MethodPair struct {
	X XMethod
	Y YMethod
}

// RecomputePosition derives a corrected position from a recorded x
// coordinate and the first-segment endpoints a and b of the frame's
// link, where a is the endpoint with the smaller x coordinate. The x
// coordinate is clamped to the endpoint range; y is taken from the
// endpoints for a horizontal segment, from the segment midpoint for a
// vertical one, and from the segment's line equation otherwise.
func RecomputePosition(vx float64, a, b geom.Point) (geom.Point, MethodPair) {
	var p geom.Point
	var m MethodPair

	switch {
	case vx < a.X:
		p.X, m.X = a.X, XUseEndpoint
	case vx > b.X:
		p.X, m.X = b.X, XUseEndpoint
	default:
		p.X, m.X = vx, XUseOriginal
	}

	switch {
	case a.Y == b.Y:
		p.Y, m.Y = a.Y, YUseEndpoint
	case a.X == b.X:
		p.Y, m.Y = (a.Y+b.Y)/2, YUseMidpoint
	default:
		slope := (b.Y - a.Y) / (b.X - a.X)
		p.Y, m.Y = a.Y+slope*(p.X-a.X), YSolveForPoint
	}
	return p, m
}

// PositionStats accumulates the error rates of a position validation
// run.
type PositionStats struct {
	Total    int
	ErrX     int // erroneous x coordinates
	ErrY     int // erroneous y coordinates
	OutsideX int // x coordinates outside the raster
	OutsideY int // y coordinates outside the raster
	ErrTotal int // frames with at least one erroneous coordinate
	Methods  map[MethodPair]int
}

// Rate returns n as a percentage of the total frame count.
func (s *PositionStats) Rate(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(s.Total)
}

// A RepairConfig drives a position validation and repair run over a
// snapshot dataset.
type RepairConfig struct {
	Network *loopheat.RoadNetwork

	// OutDir receives the rewritten snapshot files and, when
	// GenerateReports is set, a per-file repair report.
	OutDir string

	GenerateReports bool

	Progress chan string
}

// Run validates and repairs the hourly snapshot chunk files in dir,
// writing corrected snapshots (and optional repair reports) to
// c.OutDir.
func (c *RepairConfig) Run(dir string) (*PositionStats, error) {
	stats := &PositionStats{Methods: make(map[MethodPair]int)}
	for hour := 0; hour < 25; hour++ {
		name := loopheat.SnapshotChunkName(hour)
		if err := c.runFile(dir, name, stats); err != nil {
			return nil, err
		}
		if c.Progress != nil {
			c.Progress <- fmt.Sprintf("%3.2f%% of data processed\n", 100*float64(hour+1)/25)
		}
	}
	return stats, nil
}

func (c *RepairConfig) runFile(dir, name string, stats *PositionStats) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("analysis: while validating positions: %v", err)
	}
	s, err := loopheat.ReadSnapshot(f, true)
	f.Close()
	if err != nil {
		return fmt.Errorf("analysis: while validating %s: %v", name, err)
	}

	var report *csv.Writer
	if c.GenerateReports {
		rf, err := os.Create(filepath.Join(c.OutDir, "report_"+name))
		if err != nil {
			return fmt.Errorf("analysis: while validating %s: %v", name, err)
		}
		defer rf.Close()
		report = csv.NewWriter(rf)
		err = report.Write([]string{"VEHICLE", "TIME", "LINK", "A_X", "A_Y", "B_X", "B_Y",
			"OLD_X_COORD", "OLD_Y_COORD", "X_METHOD", "Y_METHOD",
			"NEW_X_COORD", "NEW_Y_COORD", "DIFF_X", "DIFF_Y"})
		if err != nil {
			return fmt.Errorf("analysis: while validating %s: %v", name, err)
		}
	}

	for _, frame := range s.Frames {
		link, err := c.Network.Link(frame.Link)
		if err != nil {
			return fmt.Errorf("analysis: while validating %s: %v", name, err)
		}
		a, b := link.LineString[0], link.LineString[1]
		if a.X > b.X {
			a, b = b, a
		}

		classify(frame, a, b, stats)

		old := frame.Point()
		p, m := RecomputePosition(frame.X, a, b)
		frame.X, frame.Y = p.X, p.Y
		stats.Methods[m]++

		if report != nil {
			err := report.Write([]string{
				strconv.Itoa(frame.Vehicle), frame.Time.String(), strconv.Itoa(frame.Link),
				fcoord(a.X), fcoord(a.Y), fcoord(b.X), fcoord(b.Y),
				fcoord(old.X), fcoord(old.Y), m.X.String(), m.Y.String(),
				fcoord(p.X), fcoord(p.Y), fcoord(p.X - old.X), fcoord(p.Y - old.Y),
			})
			if err != nil {
				return fmt.Errorf("analysis: while validating %s: %v", name, err)
			}
		}
	}
	if report != nil {
		report.Flush()
		if err := report.Error(); err != nil {
			return fmt.Errorf("analysis: while validating %s: %v", name, err)
		}
	}

	out, err := os.Create(filepath.Join(c.OutDir, name))
	if err != nil {
		return fmt.Errorf("analysis: while rewriting %s: %v", name, err)
	}
	defer out.Close()
	if err := s.Write(out); err != nil {
		return fmt.Errorf("analysis: while rewriting %s: %v", name, err)
	}
	return nil
}

// classify tallies whether a frame's recorded coordinates are outside
// the raster or beyond the link's first-segment extent.
func classify(frame *loopheat.Frame, a, b geom.Point, stats *PositionStats) {
	stats.Total++
	errCoords := 0

	if frame.X < heatmap.MinX || heatmap.MaxX < frame.X {
		stats.OutsideX++
		stats.ErrX++
		errCoords++
	} else if frame.X < a.X-DXThreshold || b.X+DXThreshold < frame.X {
		stats.ErrX++
		errCoords++
	}

	yMin, yMax := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	if frame.Y < heatmap.MinY || heatmap.MaxY < frame.Y {
		stats.OutsideY++
		stats.ErrY++
		errCoords++
	} else if frame.Y < yMin-DYThreshold || yMax+DYThreshold < frame.Y {
		stats.ErrY++
		errCoords++
	}

	if errCoords > 0 {
		stats.ErrTotal++
	}
}

func fcoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
