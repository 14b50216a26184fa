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

// Package heatmap rasterizes hourly link emissions onto a fixed grid
// over the Chicago Loop.
package heatmap

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"

	"github.com/urbanloop/loopheat"
)

// Grid geometry: a fixed raster over the Loop in UTM zone 16
// coordinates, row 0 at the north edge.
const (
	Cols = 400
	Rows = 550

	MinX = 446319.62563207
	MaxX = 448913.35313896
	MinY = 4634587.13680183
	MaxY = 4638130.74608598

	// CutoffRadius is the distance in cells beyond which a link's
	// emissions do not spread.
	CutoffRadius = 8
)

// CellWidth and CellHeight are the cell dimensions in meters.
const (
	CellWidth  = (MaxX - MinX) / Cols
	CellHeight = (MaxY - MinY) / Rows
)

// A Cell identifies one raster cell.
type Cell struct {
	Row, Col int
}

// CellAt returns the cell containing the UTM point p; ok is false when
// p falls outside the raster.
func CellAt(p geom.Point) (Cell, bool) {
	if p.X < MinX || p.X >= MaxX || p.Y <= MinY || p.Y > MaxY {
		return Cell{}, false
	}
	return Cell{
		Row: int((MaxY - p.Y) / CellHeight),
		Col: int((p.X - MinX) / CellWidth),
	}, true
}

// Center returns the UTM coordinates of the cell center.
func (c Cell) Center() geom.Point {
	return geom.Point{
		X: MinX + (float64(c.Col)+0.5)*CellWidth,
		Y: MaxY - (float64(c.Row)+0.5)*CellHeight,
	}
}

// A Grid is one hour's rasterized emissions: the per-cell emission
// totals, the raster cells each link's emissions reached (the drawn
// line plus its spread halo), and the maximum cell value.
type Grid struct {
	Data      *sparse.DenseArray
	LinkCells map[int][]Cell
	Max       float64
}

// Compute rasterizes one hour of link emissions. Each link with
// emissions is drawn as the raster line between the first two vertices
// of its polyline; the link's emission quantity then spreads from every
// drawn cell to all cells within CutoffRadius, attenuated by the
// reciprocal of the distance in cells (the full quantity at distance
// zero). Links entirely outside the raster are skipped.
func Compute(network *loopheat.RoadNetwork, emissions *loopheat.EmissionsSnapshot) (*Grid, error) {
	g := &Grid{
		Data:      sparse.ZerosDense(Rows, Cols),
		LinkCells: make(map[int][]Cell),
	}

	for _, e := range emissions.Slice() {
		link, err := network.Link(e.LinkID)
		if err != nil {
			return nil, fmt.Errorf("heatmap: %v", err)
		}
		cells := rasterizeLink(link)
		if len(cells) == 0 {
			continue
		}

		quantity := e.Total().Value()
		seen := make(map[Cell]bool)
		for _, c := range cells {
			for _, sc := range spread(g.Data, c, quantity) {
				if !seen[sc] {
					seen[sc] = true
					g.LinkCells[e.LinkID] = append(g.LinkCells[e.LinkID], sc)
				}
			}
		}
	}

	g.Max = g.Data.Max()
	return g, nil
}

// rasterizeLink returns the raster cells of the line between the first
// two vertices of the link polyline, in cell space. Cells outside the
// raster are omitted.
func rasterizeLink(link *loopheat.Link) []Cell {
	ls := link.LineString
	if len(ls) < 2 {
		return nil
	}
	return rasterizeSegment(ls[0], ls[1])
}

func rasterizeSegment(a, b geom.Point) []Cell {
	ca, aok := CellAt(a)
	cb, bok := CellAt(b)
	if !aok && !bok {
		return nil
	}
	if !aok {
		ca = clampCell(a)
	}
	if !bok {
		cb = clampCell(b)
	}

	var cells []Cell
	switch {
	case ca.Col == cb.Col: // vertical
		r0, r1 := order(ca.Row, cb.Row)
		for r := r0; r <= r1; r++ {
			cells = append(cells, Cell{Row: r, Col: ca.Col})
		}
	case ca.Row == cb.Row: // horizontal
		c0, c1 := order(ca.Col, cb.Col)
		for c := c0; c <= c1; c++ {
			cells = append(cells, Cell{Row: ca.Row, Col: c})
		}
	default: // sloped: evaluate the line equation per column
		if ca.Col > cb.Col {
			ca, cb = cb, ca
		}
		slope := float64(cb.Row-ca.Row) / float64(cb.Col-ca.Col)
		prevRow := ca.Row
		for c := ca.Col; c <= cb.Col; c++ {
			row := ca.Row + int(math.Round(slope*float64(c-ca.Col)))
			// Fill the rows skipped by steep slopes so the line stays
			// connected.
			r0, r1 := order(prevRow, row)
			for r := r0; r <= r1; r++ {
				cells = append(cells, Cell{Row: r, Col: c})
			}
			prevRow = row + sign(slope)
		}
	}

	kept := cells[:0]
	for _, c := range cells {
		if c.Row >= 0 && c.Row < Rows && c.Col >= 0 && c.Col < Cols {
			kept = append(kept, c)
		}
	}
	return kept
}

// clampCell returns the raster cell nearest to an out-of-bounds point.
func clampCell(p geom.Point) Cell {
	row := int((MaxY - p.Y) / CellHeight)
	col := int((p.X - MinX) / CellWidth)
	if row < 0 {
		row = 0
	}
	if row >= Rows {
		row = Rows - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= Cols {
		col = Cols - 1
	}
	return Cell{Row: row, Col: col}
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// spread adds quantity to every cell within CutoffRadius of c,
// attenuated by the reciprocal of the cell distance, and returns the
// cells it reached.
func spread(data *sparse.DenseArray, c Cell, quantity float64) []Cell {
	var reached []Cell
	for dr := -CutoffRadius; dr <= CutoffRadius; dr++ {
		for dc := -CutoffRadius; dc <= CutoffRadius; dc++ {
			r, col := c.Row+dr, c.Col+dc
			if r < 0 || r >= Rows || col < 0 || col >= Cols {
				continue
			}
			d := math.Hypot(float64(dr), float64(dc))
			if d > CutoffRadius {
				continue
			}
			v := quantity
			if d > 0 {
				v = quantity / d
			}
			data.AddVal(v, r, col)
			reached = append(reached, Cell{Row: r, Col: col})
		}
	}
	return reached
}

// Diff returns the Frobenius norm of the difference of two grids.
func Diff(a, b *sparse.DenseArray) (float64, error) {
	if len(a.Elements) != len(b.Elements) {
		return 0, fmt.Errorf("heatmap: grid shapes %v and %v differ", a.Shape, b.Shape)
	}
	var sum float64
	for i, v := range a.Elements {
		d := v - b.Elements[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
