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

package kdtree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/ctessum/geom"
)

type point geom.Point

func (p point) Point() geom.Point { return geom.Point(p) }

func randomItems(n int, seed int64) []Item {
	rng := rand.New(rand.NewSource(seed))
	items := make([]Item, n)
	for i := range items {
		items[i] = point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}
	}
	return items
}

// bruteNeighbors is the reference implementation the tree is checked
// against.
func bruteNeighbors(items []Item, p geom.Point, k int, maxDist float64) []Neighbor {
	var all []Neighbor
	for _, it := range items {
		d := distance(p, it.Point())
		if d <= maxDist {
			all = append(all, Neighbor{Item: it, Distance: d})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func TestNearestNeighbor(t *testing.T) {
	items := []Item{
		point{X: 0, Y: 0},
		point{X: 10, Y: 0},
		point{X: 0, Y: 10},
		point{X: 7, Y: 7},
	}
	tree := NewTree(items)

	got, d := tree.NearestNeighbor(geom.Point{X: 6, Y: 6})
	want := geom.Point{X: 7, Y: 7}
	if got.Point() != want {
		t.Errorf("nearest point: got %v, want %v", got.Point(), want)
	}
	wantD := math.Hypot(1, 1)
	if math.Abs(d-wantD) > 1e-12 {
		t.Errorf("nearest distance: got %g, want %g", d, wantD)
	}
}

func TestNearestNeighborEmpty(t *testing.T) {
	tree := NewTree(nil)
	if got, _ := tree.NearestNeighbor(geom.Point{X: 1, Y: 2}); got != nil {
		t.Errorf("empty tree returned %v, want nil", got)
	}
}

func TestNearestNeighborsMatchesBruteForce(t *testing.T) {
	items := randomItems(2000, 1)
	tree := NewTree(append([]Item{}, items...))
	if tree.Len() != len(items) {
		t.Fatalf("tree size: got %d, want %d", tree.Len(), len(items))
	}

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		q := geom.Point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}
		for _, k := range []int{1, 5, 20} {
			got := tree.NearestNeighbors(q, k, math.Inf(1))
			want := bruteNeighbors(items, q, k, math.Inf(1))
			if len(got) != len(want) {
				t.Fatalf("k=%d: got %d neighbors, want %d", k, len(got), len(want))
			}
			for j := range got {
				if math.Abs(got[j].Distance-want[j].Distance) > 1e-9 {
					t.Errorf("k=%d neighbor %d: got distance %g, want %g",
						k, j, got[j].Distance, want[j].Distance)
				}
			}
		}
	}
}

func TestNearestNeighborsMaxDistance(t *testing.T) {
	items := randomItems(500, 3)
	tree := NewTree(append([]Item{}, items...))

	q := geom.Point{X: 500, Y: 500}
	const maxDist = 50.
	got := tree.NearestNeighbors(q, 1000, maxDist)
	want := bruteNeighbors(items, q, 1000, maxDist)
	if len(got) != len(want) {
		t.Fatalf("got %d neighbors within %g, want %d", len(got), maxDist, len(want))
	}
	for _, nb := range got {
		if nb.Distance > maxDist {
			t.Errorf("neighbor at distance %g exceeds limit %g", nb.Distance, maxDist)
		}
	}
}

func TestNearestNeighborsOrdered(t *testing.T) {
	items := randomItems(300, 4)
	tree := NewTree(items)
	got := tree.NearestNeighbors(geom.Point{X: 100, Y: 900}, 25, math.Inf(1))
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("neighbors out of order at %d: %g < %g", i, got[i].Distance, got[i-1].Distance)
		}
	}
}
