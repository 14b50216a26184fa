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
	"github.com/spf13/cast"

	"github.com/urbanloop/loopheat/utm"
)

// A Link is one directed road segment of the road network. The embedded
// LineString holds the link polyline in UTM coordinates, ordered in the
// link's canonical direction.
type Link struct {
	geom.LineString

	ID        int
	From      int // upstream node
	To        int // downstream node
	Direction int // canonical travel direction code
	Class     string

	length float64
}

// Length returns the total polyline length of the link in meters.
func (l *Link) Length() float64 { return l.length }

// OffsetToPoint returns the point at arc-length offset along the link when
// traveling in the given direction. When direction differs from the link's
// canonical direction the polyline is walked in reverse. An error is
// returned when the offset is beyond the end of the link.
func (l *Link) OffsetToPoint(offset float64, direction int) (geom.Point, error) {
	pts := l.LineString
	if direction != l.Direction {
		pts = make(geom.LineString, len(l.LineString))
		for i, p := range l.LineString {
			pts[len(pts)-1-i] = p
		}
	}

	var prevLen float64
	prev := pts[0]
	for _, cur := range pts[1:] {
		segLen := math.Hypot(cur.X-prev.X, cur.Y-prev.Y)
		if prevLen+segLen < offset {
			prevLen += segLen
			prev = cur
			continue
		}
		s := (offset - prevLen) / segLen
		return geom.Point{
			X: s*cur.X + (1-s)*prev.X,
			Y: s*cur.Y + (1-s)*prev.Y,
		}, nil
	}
	return geom.Point{}, fmt.Errorf("loopheat: offset %g out of bounds for link %d with length %g",
		offset, l.ID, l.length)
}

// A RoadNetwork holds all links of the Chicago Loop road network,
// sorted by link ID.
type RoadNetwork struct {
	Links []*Link

	byID map[int]*Link
}

// NewRoadNetwork assembles a network from links, computing the cached
// polyline length of each link and sorting the links by ID.
func NewRoadNetwork(links []*Link) *RoadNetwork {
	n := &RoadNetwork{Links: links, byID: make(map[int]*Link, len(links))}
	for _, l := range links {
		l.length = 0
		for i := 1; i < len(l.LineString); i++ {
			l.length += math.Hypot(
				l.LineString[i].X-l.LineString[i-1].X,
				l.LineString[i].Y-l.LineString[i-1].Y)
		}
		n.byID[l.ID] = l
	}
	sort.Slice(n.Links, func(i, j int) bool { return n.Links[i].ID < n.Links[j].ID })
	return n
}

// Link returns the link with the given ID.
func (n *RoadNetwork) Link(id int) (*Link, error) {
	l, ok := n.byID[id]
	if !ok {
		return nil, fmt.Errorf("loopheat: no link with ID %d in road network", id)
	}
	return l, nil
}

type roadFeature struct {
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

type roadFeatureCollection struct {
	Features []roadFeature `json:"features"`
}

// ReadRoadNetwork loads a road network from a GeoJSON FeatureCollection of
// LineString features with LINKID, FROM, TO, DIRECT, and FCC properties.
// Coordinates are WGS84 longitude/latitude and are projected to UTM
// (central meridian 87°W) during loading.
func ReadRoadNetwork(r io.Reader) (*RoadNetwork, error) {
	var fc roadFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("loopheat: decoding road network GeoJSON: %v", err)
	}

	links := make([]*Link, 0, len(fc.Features))
	for _, feat := range fc.Features {
		g, err := geojson.Decode(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("loopheat: decoding road network geometry: %v", err)
		}
		ls, ok := g.(geom.LineString)
		if !ok {
			return nil, fmt.Errorf("loopheat: road network features must be LineStrings, got %T", g)
		}

		id, err := cast.ToIntE(feat.Properties["LINKID"])
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading road network LINKID: %v", err)
		}
		l := &Link{
			ID:        id,
			From:      cast.ToInt(feat.Properties["FROM"]),
			To:        cast.ToInt(feat.Properties["TO"]),
			Direction: cast.ToInt(feat.Properties["DIRECT"]),
			Class:     cast.ToString(feat.Properties["FCC"]),
		}

		l.LineString = make(geom.LineString, len(ls))
		for i, p := range ls {
			l.LineString[i] = utm.Convert(p.Y, p.X, ChicagoCentralMeridian)
		}
		links = append(links, l)
	}
	return NewRoadNetwork(links), nil
}

// A NetworkPoint is a point interpolated along a link of the road network,
// tagged with the link it belongs to and its arc-length offset along the
// link.
type NetworkPoint struct {
	Point  geom.Point
	Link   int
	Offset float64
}

// Interpolate generates points along every link of the network, spaced
// spacing meters apart along each polyline segment, plus the exact final
// endpoint of each link. The points of each link appear in order of
// increasing offset.
func (n *RoadNetwork) Interpolate(spacing float64) []NetworkPoint {
	var out []NetworkPoint
	for _, l := range n.Links {
		var offset float64
		prev := l.LineString[0]
		for _, cur := range l.LineString[1:] {
			segLen := math.Hypot(cur.X-prev.X, cur.Y-prev.Y)
			for d := 0.0; d < segLen; d += spacing {
				s := d / segLen
				out = append(out, NetworkPoint{
					Point: geom.Point{
						X: round2(s*cur.X + (1-s)*prev.X),
						Y: round2(s*cur.Y + (1-s)*prev.Y),
					},
					Link:   l.ID,
					Offset: offset + d,
				})
			}
			offset += segLen
			prev = cur
		}
		last := l.LineString[len(l.LineString)-1]
		out = append(out, NetworkPoint{
			Point:  geom.Point{X: round2(last.X), Y: round2(last.Y)},
			Link:   l.ID,
			Offset: offset,
		})
	}
	return out
}

// WriteNetworkPoints writes interpolated network points as CSV with
// columns x, y, link_id, offset.
func WriteNetworkPoints(w io.Writer, points []NetworkPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "link_id", "offset"}); err != nil {
		return fmt.Errorf("loopheat: writing network points: %v", err)
	}
	for _, p := range points {
		err := cw.Write([]string{
			strconv.FormatFloat(p.Point.X, 'f', -1, 64),
			strconv.FormatFloat(p.Point.Y, 'f', -1, 64),
			strconv.Itoa(p.Link),
			strconv.FormatFloat(p.Offset, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("loopheat: writing network points: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadNetworkPoints reads CSV data written by WriteNetworkPoints.
func ReadNetworkPoints(r io.Reader) ([]NetworkPoint, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loopheat: reading network points: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("loopheat: network point file is empty")
	}
	points := make([]NetworkPoint, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		x, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading network points: %v", err)
		}
		y, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading network points: %v", err)
		}
		link, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading network points: %v", err)
		}
		offset, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading network points: %v", err)
		}
		points = append(points, NetworkPoint{
			Point:  geom.Point{X: x, Y: y},
			Link:   link,
			Offset: offset,
		})
	}
	return points, nil
}

// round2 rounds to centimeter precision.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
