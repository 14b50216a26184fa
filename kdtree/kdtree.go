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

// Package kdtree implements a two-dimensional k-d tree for nearest
// neighbor queries over point data.
package kdtree

import (
	"math"
	"sort"
	"sync"

	"github.com/ctessum/geom"
)

// An Item is a value that can be stored in a Tree.
type Item interface {
	Point() geom.Point
}

// concurrencyCutoff is the partition size below which tree construction
// stops spawning goroutines.
const concurrencyCutoff = 4096

type node struct {
	item        Item
	axis        int // 0 splits on X, 1 on Y
	left, right *node
}

// A Tree is a balanced two-dimensional k-d tree. It is safe for
// concurrent queries once built.
type Tree struct {
	root *node
	size int
}

// NewTree builds a tree from items by recursive median splitting,
// alternating the split axis per level. Large partitions are built
// concurrently. The input slice is reordered in place.
func NewTree(items []Item) *Tree {
	t := &Tree{size: len(items)}
	var wg sync.WaitGroup
	t.root = build(items, 0, &wg)
	wg.Wait()
	return t
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int { return t.size }

func build(items []Item, axis int, wg *sync.WaitGroup) *node {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return &node{item: items[0], axis: axis}
	}

	sort.Slice(items, func(i, j int) bool {
		return coord(items[i], axis) < coord(items[j], axis)
	})
	median := len(items) / 2

	n := &node{item: items[median], axis: axis}
	left, right := items[:median], items[median+1:]
	if len(items) >= concurrencyCutoff {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.left = build(left, 1-axis, wg)
		}()
		n.right = build(right, 1-axis, wg)
	} else {
		n.left = build(left, 1-axis, wg)
		n.right = build(right, 1-axis, wg)
	}
	return n
}

func coord(it Item, axis int) float64 {
	p := it.Point()
	if axis == 0 {
		return p.X
	}
	return p.Y
}

// A Neighbor is an item returned by a nearest neighbor query together
// with its distance from the query point.
type Neighbor struct {
	Item     Item
	Distance float64
}

// NearestNeighbor returns the item closest to p, or nil for an empty
// tree.
func (t *Tree) NearestNeighbor(p geom.Point) (Item, float64) {
	nn := t.NearestNeighbors(p, 1, math.Inf(1))
	if len(nn) == 0 {
		return nil, math.Inf(1)
	}
	return nn[0].Item, nn[0].Distance
}

// NearestNeighbors returns up to k items nearest to p, in ascending
// distance order, considering only items within maxDist of p.
func (t *Tree) NearestNeighbors(p geom.Point, k int, maxDist float64) []Neighbor {
	if k <= 0 {
		return nil
	}
	s := &search{query: p, k: k, maxDist: maxDist}
	s.visit(t.root)
	return s.found
}

type search struct {
	query   geom.Point
	k       int
	maxDist float64
	found   []Neighbor // ascending distance, at most k entries
}

// worst returns the current search radius: the distance of the k-th
// best neighbor found so far, or maxDist while fewer than k are known.
func (s *search) worst() float64 {
	if len(s.found) < s.k {
		return s.maxDist
	}
	return s.found[len(s.found)-1].Distance
}

func (s *search) visit(n *node) {
	if n == nil {
		return
	}

	d := distance(s.query, n.item.Point())
	if d <= s.worst() {
		s.insert(Neighbor{Item: n.item, Distance: d})
	}

	// Descend into the half containing the query first; visit the other
	// half only if the splitting plane is within the search radius.
	planeDist := coord(n.item, n.axis) - coordPoint(s.query, n.axis)
	near, far := n.left, n.right
	if planeDist < 0 {
		near, far = far, near
	}
	s.visit(near)
	if math.Abs(planeDist) <= s.worst() {
		s.visit(far)
	}
}

func (s *search) insert(nb Neighbor) {
	i := sort.Search(len(s.found), func(i int) bool {
		return s.found[i].Distance > nb.Distance
	})
	s.found = append(s.found, Neighbor{})
	copy(s.found[i+1:], s.found[i:])
	s.found[i] = nb
	if len(s.found) > s.k {
		s.found = s.found[:s.k]
	}
}

func coordPoint(p geom.Point, axis int) float64 {
	if axis == 0 {
		return p.X
	}
	return p.Y
}

func distance(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
