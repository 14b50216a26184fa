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

// Package quadtree maps vehicles to candidate buildings by recursive
// Z-order quadrant splitting, avoiding an all-pairs distance search.
package quadtree

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
)

// A Mapper selects the building a vehicle position belongs to from a
// set of spatially plausible candidates, returning the selected
// building and the distance to its centroid. It must be safe for
// concurrent use.
type Mapper interface {
	MapAgent(a *loopheat.Agent, candidates []*loopheat.Building) (*loopheat.Building, float64)
}

// A Mapping is the result of assigning one vehicle position to a
// building. Building is nil when no candidate was available.
type Mapping struct {
	Agent    *loopheat.Agent
	Building *loopheat.Building
	Distance float64
}

// maxDepth is the deepest quadrant split; one bit of each coordinate is
// consumed per level.
const maxDepth = 32

type zAgent struct {
	agent *loopheat.Agent
	z     ZValue
	idx   int
}

type zBuilding struct {
	building   *loopheat.Building
	minX, minY UnitFixed
	maxX, maxY UnitFixed
}

// Map assigns every agent to a building. It sorts the agents along the
// Z-order curve over the joint bounding region of agents and building
// bounding boxes, then recursively splits the region into quadrants —
// agents partitioned by binary search on Z-value prefixes, buildings
// duplicated into every quadrant their bounding box touches — until a
// quadrant holds at most splitThreshold agents or buildings, at which
// point mapper runs against the quadrant's candidates. Quadrants
// recurse in parallel. Results are returned in the input agent order.
func Map(splitThreshold int, agents []*loopheat.Agent, buildings []*loopheat.Building, mapper Mapper) ([]Mapping, error) {
	if splitThreshold < 1 {
		return nil, fmt.Errorf("quadtree: split threshold must be positive, got %d", splitThreshold)
	}
	results := make([]Mapping, len(agents))
	if len(agents) == 0 {
		return results, nil
	}

	bounds := geom.NewBounds()
	for _, a := range agents {
		bounds.Extend(geom.NewBoundsPoint(a.Point()))
	}
	for _, b := range buildings {
		bounds.Extend(b.Bounds())
	}
	region, err := NewRegion(bounds)
	if err != nil {
		return nil, err
	}

	za := make([]zAgent, len(agents))
	for i, a := range agents {
		z, ok := region.ZValue(a.Point())
		if !ok {
			return nil, fmt.Errorf("quadtree: agent %d at %v is outside the mapping region", a.ID, a.Point())
		}
		za[i] = zAgent{agent: a, z: z, idx: i}
	}
	sort.Slice(za, func(i, j int) bool { return za[i].z < za[j].z })

	zb := make([]zBuilding, len(buildings))
	for i, b := range buildings {
		minX, minY, _ := region.Normalize(clip(b.Bounds().Min, region))
		maxX, maxY, _ := region.Normalize(clip(b.Bounds().Max, region))
		zb[i] = zBuilding{building: b, minX: minX, minY: minY, maxX: maxX, maxY: maxY}
	}

	var wg sync.WaitGroup
	root := cell{xhi: 1 << 32, yhi: 1 << 32}
	mapQuadrant(splitThreshold, za, zb, root, results, mapper, &wg)
	wg.Wait()
	return results, nil
}

// A cell is one quadtree cell: the ZValue prefix shared by its agents
// plus the fixed-point coordinate intervals [xlo,xhi) × [ylo,yhi) it
// covers.
type cell struct {
	prefix             ZValue
	depth              uint
	xlo, xhi, ylo, yhi uint64
}

// quadrant returns the q-th quadrant of c; bit 0 of q selects the x
// half and bit 1 the y half, matching the Z-value bit layout.
func (c cell) quadrant(q int) cell {
	sub := cell{
		prefix: c.prefix | ZValue(q)<<(2*(maxDepth-c.depth-1)),
		depth:  c.depth + 1,
	}
	xmid, ymid := (c.xlo+c.xhi)/2, (c.ylo+c.yhi)/2
	if q&1 == 0 {
		sub.xlo, sub.xhi = c.xlo, xmid
	} else {
		sub.xlo, sub.xhi = xmid, c.xhi
	}
	if q&2 == 0 {
		sub.ylo, sub.yhi = c.ylo, ymid
	} else {
		sub.ylo, sub.yhi = ymid, c.yhi
	}
	return sub
}

// touches reports whether a building bounding box overlaps the cell.
func (c cell) touches(b zBuilding) bool {
	return uint64(b.minX) < c.xhi && uint64(b.maxX) >= c.xlo &&
		uint64(b.minY) < c.yhi && uint64(b.maxY) >= c.ylo
}

// clip moves p to the nearest point inside the region.
func clip(p geom.Point, r *Region) geom.Point {
	return geom.Point{
		X: math.Min(math.Max(p.X, r.Min.X), r.Max.X),
		Y: math.Min(math.Max(p.Y, r.Min.Y), r.Max.Y),
	}
}

// mapQuadrant maps the agents of one quadtree cell.
func mapQuadrant(threshold int, agents []zAgent, buildings []zBuilding, c cell, results []Mapping, mapper Mapper, wg *sync.WaitGroup) {
	if len(agents) == 0 {
		return
	}
	if len(agents) <= threshold || len(buildings) <= threshold || c.depth >= maxDepth {
		candidates := make([]*loopheat.Building, len(buildings))
		for i, b := range buildings {
			candidates[i] = b.building
		}
		for _, a := range agents {
			b, d := mapper.MapAgent(a.agent, candidates)
			results[a.idx] = Mapping{Agent: a.agent, Building: b, Distance: d}
		}
		return
	}

	// Each quadrant is a contiguous run of the Z-sorted agents.
	shift := 2 * (maxDepth - c.depth - 1)
	bounds := [5]int{0, 0, 0, 0, len(agents)}
	for q := ZValue(1); q < 4; q++ {
		lo := c.prefix | q<<shift
		bounds[q] = sort.Search(len(agents), func(i int) bool { return agents[i].z >= lo })
	}

	for q := 0; q < 4; q++ {
		sub := agents[bounds[q]:bounds[q+1]]
		if len(sub) == 0 {
			continue
		}
		qc := c.quadrant(q)
		var qb []zBuilding
		for _, b := range buildings {
			if qc.touches(b) {
				qb = append(qb, b)
			}
		}
		wg.Add(1)
		go func(sub []zAgent, qb []zBuilding, qc cell) {
			defer wg.Done()
			mapQuadrant(threshold, sub, qb, qc, results, mapper, wg)
		}(sub, qb, qc)
	}
}

// Closest maps each vehicle to the building with the nearest centroid.
type Closest struct{}

// MapAgent implements Mapper.
func (Closest) MapAgent(a *loopheat.Agent, candidates []*loopheat.Building) (*loopheat.Building, float64) {
	var best *loopheat.Building
	bestD2 := math.Inf(1)
	p := a.Point()
	for _, b := range candidates {
		c := b.Point()
		d2 := (p.X-c.X)*(p.X-c.X) + (p.Y-c.Y)*(p.Y-c.Y)
		if d2 < bestD2 {
			best, bestD2 = b, d2
		}
	}
	if best == nil {
		return nil, math.Inf(1)
	}
	return best, math.Sqrt(bestD2)
}

// AreaWeighted maps each vehicle to the building minimizing centroid
// distance divided by the building's share of the total candidate
// footprint area, preferring larger buildings at equal distance.
type AreaWeighted struct{}

// MapAgent implements Mapper.
func (AreaWeighted) MapAgent(a *loopheat.Agent, candidates []*loopheat.Building) (*loopheat.Building, float64) {
	var areaSum float64
	for _, b := range candidates {
		areaSum += b.Area
	}
	var best *loopheat.Building
	bestScore := math.Inf(1)
	bestD := math.Inf(1)
	p := a.Point()
	for _, b := range candidates {
		c := b.Point()
		d := math.Hypot(p.X-c.X, p.Y-c.Y)
		score := d / (b.Area / areaSum)
		if score < bestScore {
			best, bestScore, bestD = b, score, d
		}
	}
	if best == nil {
		return nil, math.Inf(1)
	}
	return best, bestD
}
