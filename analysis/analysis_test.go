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
	"strings"
	"testing"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
	"github.com/urbanloop/loopheat/mapping"
)

func TestRecomputePosition(t *testing.T) {
	a := geom.Point{X: 0, Y: 0}
	b := geom.Point{X: 10, Y: 20}

	tests := []struct {
		vx   float64
		a, b geom.Point
		want geom.Point
		m    MethodPair
	}{
		// x within range on a sloped segment: solve the line equation.
		{5, a, b, geom.Point{X: 5, Y: 10}, MethodPair{XUseOriginal, YSolveForPoint}},
		// x below range: clamp to a.
		{-3, a, b, geom.Point{X: 0, Y: 0}, MethodPair{XUseEndpoint, YSolveForPoint}},
		// x above range: clamp to b.
		{12, a, b, geom.Point{X: 10, Y: 20}, MethodPair{XUseEndpoint, YSolveForPoint}},
		// Horizontal segment: y from the endpoints.
		{5, geom.Point{X: 0, Y: 7}, geom.Point{X: 10, Y: 7},
			geom.Point{X: 5, Y: 7}, MethodPair{XUseOriginal, YUseEndpoint}},
		// Vertical segment: y from the midpoint.
		{4, geom.Point{X: 4, Y: 10}, geom.Point{X: 4, Y: 30},
			geom.Point{X: 4, Y: 20}, MethodPair{XUseOriginal, YUseMidpoint}},
	}
	for _, test := range tests {
		got, m := RecomputePosition(test.vx, test.a, test.b)
		if got != test.want {
			t.Errorf("RecomputePosition(%g, %v, %v): got %v, want %v",
				test.vx, test.a, test.b, got, test.want)
		}
		if m != test.m {
			t.Errorf("RecomputePosition(%g, %v, %v): methods %v/%v, want %v/%v",
				test.vx, test.a, test.b, m.X, m.Y, test.m.X, test.m.Y)
		}
	}
}

func TestClassify(t *testing.T) {
	a := geom.Point{X: heatmap.MinX + 100, Y: heatmap.MinY + 100}
	b := geom.Point{X: heatmap.MinX + 200, Y: heatmap.MinY + 150}

	stats := &PositionStats{Methods: make(map[MethodPair]int)}

	// A frame right on the segment: no errors.
	classify(&loopheat.Frame{X: a.X + 50, Y: a.Y + 25}, a, b, stats)
	if stats.ErrX != 0 || stats.ErrY != 0 || stats.ErrTotal != 0 {
		t.Errorf("clean frame counted as erroneous: %+v", stats)
	}

	// Outside the raster entirely.
	classify(&loopheat.Frame{X: heatmap.MinX - 1000, Y: heatmap.MinY - 1000}, a, b, stats)
	if stats.OutsideX != 1 || stats.OutsideY != 1 || stats.ErrTotal != 1 {
		t.Errorf("outside frame miscounted: %+v", stats)
	}

	// Inside the raster but far beyond the segment extent.
	classify(&loopheat.Frame{X: b.X + 2*DXThreshold, Y: a.Y + 25}, a, b, stats)
	if stats.ErrX != 2 || stats.OutsideX != 1 {
		t.Errorf("beyond-extent frame miscounted: %+v", stats)
	}
	if stats.Total != 3 {
		t.Errorf("total: got %d, want 3", stats.Total)
	}
	if got, want := stats.Rate(stats.ErrTotal), 100*2./3; math.Abs(got-want) > 1e-9 {
		t.Errorf("error rate: got %g, want %g", got, want)
	}
}

func testNetwork() *loopheat.RoadNetwork {
	base := geom.Point{X: heatmap.MinX + 500, Y: heatmap.MinY + 500}
	return loopheat.NewRoadNetwork([]*loopheat.Link{
		{
			ID:        1,
			Direction: 1,
			LineString: geom.LineString{
				base,
				{X: base.X + 100, Y: base.Y},
				{X: base.X + 100, Y: base.Y + 50},
			},
		},
	})
}

func TestOffsetErrors(t *testing.T) {
	network := testNetwork()
	link, _ := network.Link(1)
	base := link.LineString[0]

	s := loopheat.NewSnapshot()
	// Offset 30 along the first segment; recorded 4 m off the true spot.
	s.Append(&loopheat.Frame{Vehicle: 1, Time: 3600, Link: 1, Direction: 1,
		Offset: 30, X: base.X + 30, Y: base.Y + 4})
	// Offset beyond the link length: skipped.
	s.Append(&loopheat.Frame{Vehicle: 2, Time: 3600, Link: 1, Direction: 1,
		Offset: 1000, X: base.X, Y: base.Y})
	// Unknown link: skipped.
	s.Append(&loopheat.Frame{Vehicle: 3, Time: 3600, Link: 99, Direction: 1,
		Offset: 0, X: base.X, Y: base.Y})

	got := OffsetErrors(network, s, nil)
	if len(got) != 1 {
		t.Fatalf("got %d errors, want 1", len(got))
	}
	if got[0].Vehicle != 1 {
		t.Errorf("vehicle: got %d, want 1", got[0].Vehicle)
	}
	if got[0].Meters != 4 {
		t.Errorf("error: got %g m, want 4 m", got[0].Meters)
	}

	var sb strings.Builder
	if err := WritePositionErrors(&sb, got); err != nil {
		t.Fatal(err)
	}
	want := "vehicle,time,position_err_m\n1,1:00,4\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

func TestCheckConsistency(t *testing.T) {
	grid := &heatmap.Grid{LinkCells: map[int][]heatmap.Cell{
		1: {{Row: 100, Col: 100}},
	}}
	near := heatmap.Cell{Row: 110, Col: 100}.Center()
	far := heatmap.Cell{Row: 300, Col: 100}.Center()

	entries := []mapping.Entry{
		{Vehicle: 1, Link: 1, X: near.X, Y: near.Y},            // consistent
		{Vehicle: 2, Link: 1, X: far.X, Y: far.Y},              // too far
		{Vehicle: 3, Link: 1, X: near.X, Y: heatmap.MinY - 10}, // outside
		{Vehicle: 4, Link: 5, X: near.X, Y: near.Y},            // no cells for link
	}

	stats := new(ConsistencyStats)
	CheckConsistency(stats, entries, grid)
	if stats.Total != 4 {
		t.Errorf("total: got %d, want 4", stats.Total)
	}
	if stats.Err != 3 {
		t.Errorf("errors: got %d, want 3", stats.Err)
	}
	if stats.Outside != 1 {
		t.Errorf("outside: got %d, want 1", stats.Outside)
	}
}

func TestCorrelate(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	c, err := Correlate(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Pearson-1) > 1e-9 {
		t.Errorf("pearson: got %g, want 1", c.Pearson)
	}
	if math.Abs(c.Slope-2) > 1e-9 {
		t.Errorf("slope: got %g, want 2", c.Slope)
	}
	if math.Abs(c.Intercept) > 1e-9 {
		t.Errorf("intercept: got %g, want 0", c.Intercept)
	}
	if c.N != 5 {
		t.Errorf("n: got %d, want 5", c.N)
	}

	if _, err := Correlate([]float64{1}, []float64{1, 2}); err == nil {
		t.Error("mismatched series did not fail")
	}
	if _, err := Correlate([]float64{1}, []float64{1}); err == nil {
		t.Error("single-point series did not fail")
	}
}

func TestLinkVolumeSeries(t *testing.T) {
	network := testNetwork()
	s := loopheat.NewSnapshot()
	s.Append(&loopheat.Frame{Vehicle: 1, Time: 0, Link: 1})
	s.Append(&loopheat.Frame{Vehicle: 1, Time: 60, Link: 1}) // same vehicle
	s.Append(&loopheat.Frame{Vehicle: 2, Time: 60, Link: 1})
	s.Append(&loopheat.Frame{Vehicle: 3, Time: 60, Link: 42}) // unknown link

	vols := &loopheat.LinkVolumes{Volumes: map[int]float64{1: 250}}
	xs, ys := LinkVolumeSeries(network, s, vols)
	if len(xs) != 1 || len(ys) != 1 {
		t.Fatalf("got %d/%d pairs, want 1/1", len(xs), len(ys))
	}
	if xs[0] != 250 {
		t.Errorf("volume: got %g, want 250", xs[0])
	}
	if ys[0] != 2 {
		t.Errorf("distinct vehicles: got %g, want 2", ys[0])
	}
}

func TestDensitySeries(t *testing.T) {
	buildings := &loopheat.BuildingCollection{Buildings: map[int]*loopheat.Building{
		1: {ID: 1, Area: 50},
		2: {ID: 2, Area: 100},
	}}
	densities := []heatmap.Density{
		{Building: 1, Count: 10, Concentration: 0.5},
		{Building: 2, Count: -1, Concentration: 0.25}, // no count data
		{Building: 9, Count: 5, Concentration: 1},     // unknown building
	}
	xs, ys := DensitySeries(densities, buildings)
	if len(xs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(xs))
	}
	if xs[0] != 0.2 {
		t.Errorf("density: got %g, want 0.2", xs[0])
	}
	if ys[0] != 0.5 {
		t.Errorf("concentration: got %g, want 0.5", ys[0])
	}
}

func TestSnapper(t *testing.T) {
	points := []loopheat.NetworkPoint{
		{Point: geom.Point{X: 0, Y: 0}, Link: 1, Offset: 0},
		{Point: geom.Point{X: 10, Y: 0}, Link: 1, Offset: 10},
		{Point: geom.Point{X: 20, Y: 0}, Link: 2, Offset: 0},
	}
	sn := NewSnapper(points)

	s := loopheat.NewSnapshot()
	s.Append(&loopheat.Frame{Vehicle: 1, Time: 0, X: 11, Y: 3})    // snaps to (10,0)
	s.Append(&loopheat.Frame{Vehicle: 2, Time: 0, X: 500, Y: 500}) // out of range

	got := sn.Snap(s)
	if len(got) != 1 {
		t.Fatalf("got %d snapped points, want 1", len(got))
	}
	p := got[0]
	if p.X != 10 || p.Y != 0 || p.Link != 1 || p.Offset != 10 {
		t.Errorf("snapped to link %d offset %g at (%g,%g), want link 1 offset 10 at (10,0)",
			p.Link, p.Offset, p.X, p.Y)
	}
	if want := math.Hypot(1, 3); math.Abs(p.Distance-want) > 1e-12 {
		t.Errorf("distance: got %g, want %g", p.Distance, want)
	}
	if p.TrueX != 11 || p.TrueY != 3 {
		t.Errorf("original coordinates: got (%g,%g), want (11,3)", p.TrueX, p.TrueY)
	}
}
