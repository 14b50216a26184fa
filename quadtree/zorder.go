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
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// A UnitFixed is a coordinate in the unit interval [0,1] stored as
// 32-bit fixed point, so that bit prefixes correspond to nested halves
// of the interval.
type UnitFixed uint32

// NewUnitFixed converts v to fixed point, clipping to [0,1]. NaN is
// rejected.
func NewUnitFixed(v float64) (UnitFixed, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("quadtree: cannot convert NaN to a unit coordinate")
	}
	if v <= 0 {
		return 0, nil
	}
	if v >= 1 {
		return math.MaxUint32, nil
	}
	return UnitFixed(v * (1 << 32)), nil
}

// Float returns the coordinate as a float64 in [0,1].
func (u UnitFixed) Float() float64 {
	return float64(u) / (1 << 32)
}

// A ZValue is the Morton (Z-order) interleave of two 32-bit unit
// coordinates: x occupies the even bits and y the odd bits, so that
// sorting by ZValue orders points along the Z-order curve and common
// prefixes identify quadtree cells.
type ZValue uint64

const (
	xBits ZValue = 0x5555555555555555
	yBits ZValue = 0xAAAAAAAAAAAAAAAA
)

// mortonTable spreads the bits of a byte over the even bits of a
// 16-bit word.
var mortonTable [256]uint16

func init() {
	for i := range mortonTable {
		var v uint16
		for b := 0; b < 8; b++ {
			if i&(1<<b) != 0 {
				v |= 1 << (2 * b)
			}
		}
		mortonTable[i] = v
	}
}

func spread(v uint32) uint64 {
	return uint64(mortonTable[v&0xff]) |
		uint64(mortonTable[v>>8&0xff])<<16 |
		uint64(mortonTable[v>>16&0xff])<<32 |
		uint64(mortonTable[v>>24&0xff])<<48
}

// NewZValue interleaves x and y into a ZValue.
func NewZValue(x, y UnitFixed) ZValue {
	return ZValue(spread(uint32(x)) | spread(uint32(y))<<1)
}

// LessX reports whether the x coordinate of z is less than that of z2,
// compared without de-interleaving.
func (z ZValue) LessX(z2 ZValue) bool { return z&xBits < z2&xBits }

// LessY reports whether the y coordinate of z is less than that of z2.
func (z ZValue) LessY(z2 ZValue) bool { return z&yBits < z2&yBits }

// A Region is an axis-aligned bounding box that normalizes contained
// points onto the unit square.
type Region struct {
	Min, Max geom.Point
}

// NewRegion returns the region spanning the given bounds, or an error
// for a degenerate extent.
func NewRegion(b *geom.Bounds) (*Region, error) {
	if b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
		return nil, fmt.Errorf("quadtree: degenerate region %v", b)
	}
	return &Region{Min: b.Min, Max: b.Max}, nil
}

// Normalize maps p onto the unit square over the region. ok is false
// when p lies outside the region.
func (r *Region) Normalize(p geom.Point) (x, y UnitFixed, ok bool) {
	if p.X < r.Min.X || p.X > r.Max.X || p.Y < r.Min.Y || p.Y > r.Max.Y {
		return 0, 0, false
	}
	x, err := NewUnitFixed((p.X - r.Min.X) / (r.Max.X - r.Min.X))
	if err != nil {
		return 0, 0, false
	}
	y, err = NewUnitFixed((p.Y - r.Min.Y) / (r.Max.Y - r.Min.Y))
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

// ZValue maps p onto the Z-order curve over the region.
func (r *Region) ZValue(p geom.Point) (ZValue, bool) {
	x, y, ok := r.Normalize(p)
	if !ok {
		return 0, false
	}
	return NewZValue(x, y), true
}
