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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ctessum/geom"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/kdtree"
)

// MaxSnapDistance is the furthest, in meters, a trace point may be
// moved when snapping it to the road network.
const MaxSnapDistance = 20.0

// A SnappedPoint is one trace point snapped to the nearest interpolated
// network point.
type SnappedPoint struct {
	Vehicle  int
	Time     loopheat.Timestamp
	Link     int     // link of the network point
	Lane     int
	Offset   float64 // offset of the network point along its link
	Driver   int
	X, Y     float64 // snapped coordinates
	TrueX    float64 // original recorded coordinates
	TrueY    float64
	Distance float64
}

type networkPointItem struct {
	point loopheat.NetworkPoint
}

func (i *networkPointItem) Point() geom.Point { return i.point.Point }

// A Snapper snaps vehicle positions onto a k-d tree index of
// interpolated network points.
type Snapper struct {
	tree *kdtree.Tree
}

// NewSnapper indexes the given network points.
func NewSnapper(points []loopheat.NetworkPoint) *Snapper {
	items := make([]kdtree.Item, len(points))
	for i, p := range points {
		items[i] = &networkPointItem{point: p}
	}
	return &Snapper{tree: kdtree.NewTree(items)}
}

// Snap snaps every trace point of the snapshot to the nearest network
// point within MaxSnapDistance. Points with no network point in range
// are dropped.
func (sn *Snapper) Snap(s *loopheat.Snapshot) []SnappedPoint {
	var out []SnappedPoint
	for _, f := range s.Frames {
		nn := sn.tree.NearestNeighbors(f.Point(), 1, MaxSnapDistance)
		if len(nn) == 0 {
			continue
		}
		np := nn[0].Item.(*networkPointItem).point
		out = append(out, SnappedPoint{
			Vehicle:  f.Vehicle,
			Time:     f.Time,
			Link:     np.Link,
			Lane:     f.Lane,
			Offset:   np.Offset,
			Driver:   f.Driver,
			X:        np.Point.X,
			Y:        np.Point.Y,
			TrueX:    f.X,
			TrueY:    f.Y,
			Distance: nn[0].Distance,
		})
	}
	return out
}

// WriteSnappedPoints writes snapped trace points as CSV. The layout
// mirrors the snapshot columns, with the original coordinates and snap
// distance appended; fields the snapping does not preserve are zero.
func WriteSnappedPoints(w io.Writer, points []SnappedPoint) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"vehicle", "time", "link", "dir", "lane", "offset",
		"speed", "accel", "veh_type", "driver", "passengers",
		"x_coord", "y_coord", "true_x", "true_y", "dist"})
	if err != nil {
		return fmt.Errorf("analysis: writing snapped points: %v", err)
	}
	for _, p := range points {
		err := cw.Write([]string{
			strconv.Itoa(p.Vehicle),
			p.Time.String(),
			strconv.Itoa(p.Link),
			"0",
			strconv.Itoa(p.Lane),
			strconv.FormatFloat(p.Offset, 'f', -1, 64),
			"0", "0", "0",
			strconv.Itoa(p.Driver),
			"0",
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			strconv.FormatFloat(p.TrueX, 'f', -1, 64),
			strconv.FormatFloat(p.TrueY, 'f', -1, 64),
			strconv.FormatFloat(p.Distance, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("analysis: writing snapped points: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
