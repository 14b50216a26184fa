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

package loopheat

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"

	"github.com/urbanloop/loopheat/utm"
)

// The Loop window: building footprints with any vertex outside this
// longitude/latitude box are discarded during simplification.
const (
	loopWest  = -87.651190
	loopEast  = -87.609778
	loopSouth = 41.848287
	loopNorth = 41.900419
)

// A Building is a simplified building footprint: the centroid, area, and
// bounding box of the original footprint polygon, in UTM coordinates.
// Count is the number of vehicles mapped to the building for buildings
// loaded from a mapping count file; it is -1 when no count data is
// present.
type Building struct {
	ID       int
	Centroid geom.Point
	Area     float64 // footprint area [m²]
	BBox     *geom.Bounds
	Count    int
}

// Point returns the building centroid.
func (b *Building) Point() geom.Point { return b.Centroid }

// Bounds returns the bounding box of the original footprint.
func (b *Building) Bounds() *geom.Bounds { return b.BBox }

// NormCount returns the mapped-vehicle count normalized by footprint
// area, or NaN when no count data is present.
func (b *Building) NormCount() float64 {
	if b.Count < 0 {
		return math.NaN()
	}
	return float64(b.Count) / b.Area
}

// A BuildingCollection holds simplified buildings keyed by ID.
type BuildingCollection struct {
	Buildings map[int]*Building

	// HasCounts indicates whether mapped-vehicle counts were present in
	// the file this collection was loaded from.
	HasCounts bool
}

// Merge merges the buildings of other into a new collection. Where both
// collections contain a building with the same ID, the version from other
// wins.
func (c *BuildingCollection) Merge(other *BuildingCollection) *BuildingCollection {
	merged := &BuildingCollection{
		Buildings: make(map[int]*Building, len(c.Buildings)),
		HasCounts: c.HasCounts || other.HasCounts,
	}
	for id, b := range c.Buildings {
		bb := *b
		merged.Buildings[id] = &bb
	}
	for id, b := range other.Buildings {
		bb := *b
		merged.Buildings[id] = &bb
	}
	return merged
}

// Slice returns the buildings of the collection sorted by ID.
func (c *BuildingCollection) Slice() []*Building {
	out := make([]*Building, 0, len(c.Buildings))
	for _, b := range c.Buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReadBuildings loads a simplified building CSV file. The first eight
// columns are id, centroid x/y, area, and the bounding box east, west,
// north, and south edges; a ninth mapped-vehicle count column is loaded
// when present.
func ReadBuildings(r io.Reader) (*BuildingCollection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loopheat: reading buildings: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("loopheat: building file is empty")
	}

	hasCounts := len(rows[0]) >= 9
	c := &BuildingCollection{
		Buildings: make(map[int]*Building, len(rows)-1),
		HasCounts: hasCounts,
	}
	for _, row := range rows[1:] { // skip header
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading building ID: %v", err)
		}
		vals := make([]float64, 7)
		for i := range vals {
			vals[i], err = strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("loopheat: reading building %d: %v", id, err)
			}
		}
		count := -1
		if hasCounts {
			count, err = strconv.Atoi(row[8])
			if err != nil {
				return nil, fmt.Errorf("loopheat: reading building %d count: %v", id, err)
			}
		}
		c.Buildings[id] = &Building{
			ID:       id,
			Centroid: geom.Point{X: vals[0], Y: vals[1]},
			Area:     vals[2],
			BBox: &geom.Bounds{
				Min: geom.Point{X: vals[4], Y: vals[6]}, // west, south
				Max: geom.Point{X: vals[3], Y: vals[5]}, // east, north
			},
			Count: count,
		}
	}
	return c, nil
}

// buildingHeader is the header of simplified building files produced by
// SimplifyFootprints.
var buildingHeader = []string{
	"id", "center_x", "center_y", "area",
	"bbox_east", "bbox_west", "bbox_north", "bbox_south",
}

// WriteBuildings writes the collection as a simplified building CSV file,
// including the count column when the collection has count data.
func (c *BuildingCollection) WriteBuildings(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := buildingHeader
	if c.HasCounts {
		header = append(append([]string{}, header...), "count")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("loopheat: writing buildings: %v", err)
	}
	for _, b := range c.Slice() {
		row := []string{
			strconv.Itoa(b.ID),
			formatCoord(b.Centroid.X),
			formatCoord(b.Centroid.Y),
			formatCoord(b.Area),
			formatCoord(b.BBox.Max.X),
			formatCoord(b.BBox.Min.X),
			formatCoord(b.BBox.Max.Y),
			formatCoord(b.BBox.Min.Y),
		}
		if c.HasCounts {
			row = append(row, strconv.Itoa(b.Count))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("loopheat: writing buildings: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

// SimplifyFootprints streams a GeoJSON FeatureCollection of building
// footprint polygons from r, discards footprints with any vertex outside
// the Loop window, and writes the remaining footprints to w as a
// simplified building CSV file: sequentially assigned IDs, UTM centroid
// (vertex mean), shoelace area, and bounding box, all rounded to
// centimeters. The input is decoded one feature at a time so that
// footprint collections much larger than memory can be processed.
// It returns the number of footprints written and the number seen.
func SimplifyFootprints(r io.Reader, w io.Writer, progress chan string) (written, seen int, err error) {
	dec := json.NewDecoder(r)

	// Scan forward to the start of the features array.
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("loopheat: simplifying footprints: %v", err)
		}
		if key, ok := tok.(string); ok && key == "features" {
			break
		}
	}
	if _, err := dec.Token(); err != nil { // consume the array '['
		return 0, 0, fmt.Errorf("loopheat: simplifying footprints: %v", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(buildingHeader); err != nil {
		return 0, 0, fmt.Errorf("loopheat: simplifying footprints: %v", err)
	}

	for dec.More() {
		var feat struct {
			Geometry json.RawMessage `json:"geometry"`
		}
		if err := dec.Decode(&feat); err != nil {
			return written, seen, fmt.Errorf("loopheat: simplifying footprints: %v", err)
		}
		seen++
		if progress != nil && seen%50000 == 0 {
			progress <- fmt.Sprintf("Processed %d footprints...\n", seen)
		}

		g, err := geojson.Decode(feat.Geometry)
		if err != nil {
			return written, seen, fmt.Errorf("loopheat: decoding footprint %d: %v", seen, err)
		}
		var ring []geom.Point
		switch gg := g.(type) {
		case geom.Polygon:
			ring = gg[0] // outer ring only
		default:
			return written, seen, fmt.Errorf("loopheat: footprint %d is a %T, not a polygon", seen, g)
		}

		if !inLoopWindow(ring) {
			continue
		}

		b := simplifyRing(written, ring)
		row := []string{
			strconv.Itoa(b.ID),
			formatCoord(b.Centroid.X),
			formatCoord(b.Centroid.Y),
			formatCoord(b.Area),
			formatCoord(b.BBox.Max.X),
			formatCoord(b.BBox.Min.X),
			formatCoord(b.BBox.Max.Y),
			formatCoord(b.BBox.Min.Y),
		}
		if err := cw.Write(row); err != nil {
			return written, seen, fmt.Errorf("loopheat: simplifying footprints: %v", err)
		}
		written++
	}

	cw.Flush()
	return written, seen, cw.Error()
}

// inLoopWindow reports whether every vertex of a lon/lat ring lies inside
// the Loop window.
func inLoopWindow(ring []geom.Point) bool {
	for _, p := range ring {
		if p.X < loopWest || p.X > loopEast || p.Y < loopSouth || p.Y > loopNorth {
			return false
		}
	}
	return true
}

// simplifyRing projects a footprint ring to UTM and reduces it to a
// Building with the given ID.
func simplifyRing(id int, ring []geom.Point) *Building {
	// GeoJSON rings repeat the first vertex at the end.
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	pts := make([]geom.Point, len(ring))
	for i, p := range ring {
		pts[i] = utm.Convert(p.Y, p.X, ChicagoCentralMeridian)
	}

	var sumX, sumY, area float64
	bounds := geom.NewBounds()
	for i, p := range pts {
		sumX += p.X
		sumY += p.Y
		bounds.Extend(geom.NewBoundsPoint(p))

		// Shoelace formula; the ring wraps around.
		prev := pts[(i+len(pts)-1)%len(pts)]
		area += p.X*prev.Y - p.Y*prev.X
	}
	area = math.Abs(area) / 2

	return &Building{
		ID:       id,
		Centroid: geom.Point{X: sumX / float64(len(pts)), Y: sumY / float64(len(pts))},
		Area:     area,
		BBox:     bounds,
		Count:    -1,
	}
}
