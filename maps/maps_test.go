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
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/analysis"
	"github.com/urbanloop/loopheat/heatmap"
)

func testNetwork() *loopheat.RoadNetwork {
	a := heatmap.Cell{Row: 100, Col: 100}.Center()
	b := heatmap.Cell{Row: 100, Col: 150}.Center()
	c := heatmap.Cell{Row: 150, Col: 150}.Center()
	return loopheat.NewRoadNetwork([]*loopheat.Link{
		{ID: 1, Direction: 1, Class: "A40", LineString: geom.LineString{a, b}},
		{ID: 2, Direction: 1, Class: "X99", LineString: geom.LineString{b, c}},
	})
}

func decodePNG(t *testing.T, buf *bytes.Buffer) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Fatal("output image is empty")
	}
	return img
}

func TestRoads(t *testing.T) {
	var buf bytes.Buffer
	if err := Roads(&buf, testNetwork(), 200); err != nil {
		t.Fatal(err)
	}
	decodePNG(t, &buf)
}

func TestHeatmap(t *testing.T) {
	network := testNetwork()
	emissions := &loopheat.EmissionsSnapshot{Links: map[int]*loopheat.LinkEmissions{
		1: {LinkID: 1, RateKJ: 50, TotalMMBtu: 2},
	}}
	grid, err := heatmap.Compute(network, emissions)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Heatmap(&buf, grid, network); err != nil {
		t.Fatal(err)
	}
	img := decodePNG(t, &buf)
	if img.Bounds().Dx() != heatmap.Cols || img.Bounds().Dy() != heatmap.Rows {
		t.Errorf("image is %dx%d, want %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), heatmap.Cols, heatmap.Rows)
	}
}

func TestColorRamp(t *testing.T) {
	r := newColorRamp([]float64{0, 2, 10})
	if got := r.at(0); got != r.stops[0] {
		t.Errorf("at(0): got %v, want first stop %v", got, r.stops[0])
	}
	if got := r.at(10); got != r.stops[len(r.stops)-1] {
		t.Errorf("at(max): got %v, want last stop %v", got, r.stops[len(r.stops)-1])
	}
	if got := r.at(math.NaN()); got != r.stops[0] {
		t.Errorf("at(NaN): got %v, want first stop %v", got, r.stops[0])
	}
	mid := r.at(5)
	if mid == r.stops[0] || mid == r.stops[len(r.stops)-1] {
		t.Errorf("at(mid) %v did not interpolate between stops", mid)
	}
}

func TestDensity(t *testing.T) {
	coll := &loopheat.BuildingCollection{
		Buildings: map[int]*loopheat.Building{
			1: {ID: 1, Area: 100, Count: 12, BBox: &geom.Bounds{
				Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 30, Y: 20}}},
			2: {ID: 2, Area: 200, Count: 3, BBox: &geom.Bounds{
				Min: geom.Point{X: 50, Y: 10}, Max: geom.Point{X: 90, Y: 60}}},
			3: {ID: 3, Area: 50, Count: -1, BBox: &geom.Bounds{
				Min: geom.Point{X: 10, Y: 40}, Max: geom.Point{X: 20, Y: 55}}},
		},
		HasCounts: true,
	}
	var buf bytes.Buffer
	if err := Density(&buf, coll, 200); err != nil {
		t.Fatal(err)
	}
	decodePNG(t, &buf)

	empty := &loopheat.BuildingCollection{Buildings: map[int]*loopheat.Building{}}
	if err := Density(&buf, empty, 200); err == nil {
		t.Error("empty collection did not fail")
	}
}

func TestVolumeScatter(t *testing.T) {
	xs := []float64{10, 20, 30, 40}
	ys := []float64{12, 18, 33, 39}
	c, err := analysis.Correlate(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := VolumeScatter(&buf, xs, ys, c); err != nil {
		t.Fatal(err)
	}
	decodePNG(t, &buf)

	if err := VolumeScatter(&buf, xs, ys[:2], nil); err == nil {
		t.Error("mismatched series did not fail")
	}
}
