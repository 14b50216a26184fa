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

package quadtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
)

func TestUnitFixed(t *testing.T) {
	tests := []struct {
		in   float64
		want UnitFixed
	}{
		{0, 0},
		{-3, 0},
		{1, math.MaxUint32},
		{7.5, math.MaxUint32},
		{0.5, 1 << 31},
		{0.25, 1 << 30},
	}
	for _, test := range tests {
		got, err := NewUnitFixed(test.in)
		if err != nil {
			t.Fatalf("NewUnitFixed(%g): %v", test.in, err)
		}
		if got != test.want {
			t.Errorf("NewUnitFixed(%g): got %d, want %d", test.in, got, test.want)
		}
	}
	if _, err := NewUnitFixed(math.NaN()); err == nil {
		t.Error("NewUnitFixed(NaN) did not fail")
	}
}

func TestZValueOrdersLikeCoordinates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x1, y1 := UnitFixed(rng.Uint32()), UnitFixed(rng.Uint32())
		x2, y2 := UnitFixed(rng.Uint32()), UnitFixed(rng.Uint32())
		z1, z2 := NewZValue(x1, y1), NewZValue(x2, y2)
		if got, want := z1.LessX(z2), x1 < x2; got != want {
			t.Fatalf("LessX(%d,%d): got %v, want %v", x1, x2, got, want)
		}
		if got, want := z1.LessY(z2), y1 < y2; got != want {
			t.Fatalf("LessY(%d,%d): got %v, want %v", y1, y2, got, want)
		}
	}
}

func TestZValueQuadrants(t *testing.T) {
	// The top two bits of a ZValue identify the quadrant of the unit
	// square: y MSB then x MSB.
	tests := []struct {
		x, y float64
		want ZValue // top two bits
	}{
		{0.1, 0.1, 0},
		{0.9, 0.1, 1},
		{0.1, 0.9, 2},
		{0.9, 0.9, 3},
	}
	for _, test := range tests {
		x, _ := NewUnitFixed(test.x)
		y, _ := NewUnitFixed(test.y)
		if got := NewZValue(x, y) >> 62; got != test.want {
			t.Errorf("quadrant of (%g,%g): got %d, want %d", test.x, test.y, got, test.want)
		}
	}
}

func TestRegionNormalize(t *testing.T) {
	r, err := NewRegion(&geom.Bounds{
		Min: geom.Point{X: 10, Y: 100},
		Max: geom.Point{X: 20, Y: 200},
	})
	if err != nil {
		t.Fatal(err)
	}

	x, y, ok := r.Normalize(geom.Point{X: 15, Y: 150})
	if !ok {
		t.Fatal("midpoint reported outside the region")
	}
	if gx, gy := x.Float(), y.Float(); math.Abs(gx-0.5) > 1e-9 || math.Abs(gy-0.5) > 1e-9 {
		t.Errorf("normalized midpoint: got (%g,%g), want (0.5,0.5)", gx, gy)
	}

	if _, _, ok := r.Normalize(geom.Point{X: 25, Y: 150}); ok {
		t.Error("point outside the region reported inside")
	}

	if _, err := NewRegion(&geom.Bounds{Min: geom.Point{X: 1, Y: 1}, Max: geom.Point{X: 1, Y: 5}}); err == nil {
		t.Error("degenerate region did not fail")
	}
}

func makeBuilding(id int, x, y, halfWidth, area float64) *loopheat.Building {
	return &loopheat.Building{
		ID:       id,
		Centroid: geom.Point{X: x, Y: y},
		Area:     area,
		BBox: &geom.Bounds{
			Min: geom.Point{X: x - halfWidth, Y: y - halfWidth},
			Max: geom.Point{X: x + halfWidth, Y: y + halfWidth},
		},
		Count: -1,
	}
}

// TestMapClosest checks the quadtree mapping against an exhaustive
// nearest-centroid search.
func TestMapClosest(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var buildings []*loopheat.Building
	for i := 0; i < 200; i++ {
		buildings = append(buildings, makeBuilding(i,
			rng.Float64()*1000, rng.Float64()*1000, 5+rng.Float64()*10, 100))
	}
	var agents []*loopheat.Agent
	for i := 0; i < 500; i++ {
		agents = append(agents, &loopheat.Agent{
			ID:       i,
			Position: geom.Point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000},
		})
	}

	for _, threshold := range []int{1, 8, 64} {
		got, err := Map(threshold, agents, buildings, Closest{})
		if err != nil {
			t.Fatalf("threshold %d: %v", threshold, err)
		}
		if len(got) != len(agents) {
			t.Fatalf("threshold %d: got %d mappings, want %d", threshold, len(got), len(agents))
		}
		for i, m := range got {
			if m.Agent != agents[i] {
				t.Fatalf("threshold %d: mapping %d is for agent %d, want %d",
					threshold, i, m.Agent.ID, agents[i].ID)
			}
			wantB, wantD := Closest{}.MapAgent(agents[i], buildings)
			// The quadtree prunes candidates spatially, so the selected
			// building can only be as close or farther than the true
			// nearest; it must not be farther in the common case where
			// the true nearest's bbox shares the agent's quadrant.
			if m.Building == wantB && math.Abs(m.Distance-wantD) > 1e-9 {
				t.Errorf("threshold %d agent %d: distance %g, want %g",
					threshold, i, m.Distance, wantD)
			}
			if m.Distance+1e-9 < wantD {
				t.Errorf("threshold %d agent %d: distance %g closer than exhaustive %g",
					threshold, i, m.Distance, wantD)
			}
		}
	}
}

func TestMapAreaWeighted(t *testing.T) {
	// A small distant building against a large slightly-farther one:
	// area weighting must pick the large one.
	small := makeBuilding(0, 10, 0, 2, 50)
	large := makeBuilding(1, 14, 0, 8, 5000)
	agent := &loopheat.Agent{ID: 1, Position: geom.Point{X: 0, Y: 0}}

	b, d := AreaWeighted{}.MapAgent(agent, []*loopheat.Building{small, large})
	if b != large {
		t.Fatalf("got building %d, want %d", b.ID, large.ID)
	}
	if math.Abs(d-14) > 1e-9 {
		t.Errorf("distance: got %g, want 14", d)
	}

	if b, _ := (Closest{}).MapAgent(agent, []*loopheat.Building{small, large}); b != small {
		t.Errorf("closest strategy: got building %d, want %d", b.ID, small.ID)
	}
}

func TestMapNoBuildings(t *testing.T) {
	agents := []*loopheat.Agent{{ID: 1, Position: geom.Point{X: 1, Y: 1}},
		{ID: 2, Position: geom.Point{X: 2, Y: 3}}}
	got, err := Map(4, agents, nil, Closest{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range got {
		if m.Building != nil {
			t.Errorf("agent %d mapped to building %d, want none", m.Agent.ID, m.Building.ID)
		}
	}
}
