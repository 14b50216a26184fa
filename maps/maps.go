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

// Package maps renders PNG maps of the Loop datasets: the road network,
// emission heatmaps, building densities, and correlation scatter plots.
package maps

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
)

// DefaultWidth is the default map width in pixels.
const DefaultWidth = 1000

// roadColors maps Census Feature Class Codes to display colors.
var roadColors = map[string]color.NRGBA{
	"A00": {255, 0, 0, 255},
	"A10": {0, 128, 0, 255},
	"A20": {0, 0, 255, 255},
	"A30": {0, 255, 255, 255},
	"A40": {255, 0, 255, 255},
	"A50": {255, 165, 0, 255},
	"A60": {128, 0, 128, 255},
}

var defaultRoadColor = color.NRGBA{0, 0, 0, 255}

// noFill is a fully transparent fill for unshaded geometries.
var noFill = color.NRGBA{0, 0, 0, 0}

// A canvas projects map coordinates onto a PNG image.
type canvas struct {
	draw.Canvas
	img    *image.RGBA
	bounds *geom.Bounds
	scale  float64
}

func newCanvas(b *geom.Bounds, width, height int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	m := &canvas{
		Canvas: draw.New(vgimg.NewWith(vgimg.UseImage(img))),
		img:    img,
		bounds: b,
	}
	m.scale = math.Min(float64(m.Max.X-m.Min.X)/(b.Max.X-b.Min.X),
		float64(m.Max.Y-m.Min.Y)/(b.Max.Y-b.Min.Y))
	return m
}

// mapHeight returns the image height preserving the aspect ratio of the
// map bounds.
func mapHeight(b *geom.Bounds, width int) int {
	return int(float64(width) * (b.Max.Y - b.Min.Y) / (b.Max.X - b.Min.X))
}

// coordinates transforms map coordinates to canvas coordinates.
func (m *canvas) coordinates(p geom.Point) vg.Point {
	return vg.Point{
		X: m.Min.X + vg.Length(m.scale*(p.X-m.bounds.Min.X)),
		Y: m.Min.Y + vg.Length(m.scale*(p.Y-m.bounds.Min.Y)),
	}
}

// strokeLineString draws a polyline. Polylines entirely outside the map
// bounds are skipped.
func (m *canvas) strokeLineString(ls geom.LineString, sty draw.LineStyle) {
	if len(ls) == 0 || !ls.Bounds().Overlaps(m.bounds) {
		return
	}
	m.SetLineStyle(sty)
	var path vg.Path
	for i, p := range ls {
		if i == 0 {
			path.Move(m.coordinates(p))
		} else {
			path.Line(m.coordinates(p))
		}
	}
	m.Stroke(path)
}

// drawPolygon fills a polygon when fill is not transparent and strokes
// its edge when the edge color is not transparent.
func (m *canvas) drawPolygon(pg geom.Polygon, fill color.NRGBA, edge draw.LineStyle) {
	if !pg.Bounds().Overlaps(m.bounds) {
		return
	}
	var path vg.Path
	for _, ring := range pg {
		for i, p := range ring {
			if i == 0 {
				path.Move(m.coordinates(p))
			} else {
				path.Line(m.coordinates(p))
			}
		}
	}
	path.Close()
	if fill.A != 0 {
		m.SetColor(fill)
		m.Fill(path)
	}
	if _, _, _, a := edge.Color.RGBA(); a != 0 {
		m.SetLineStyle(edge)
		m.Stroke(path)
	}
}

func writePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("maps: writing PNG: %v", err)
	}
	return nil
}

// A colorRamp linearly interpolates values in [0, max] over a fixed
// white-to-dark-red gradient.
type colorRamp struct {
	max   float64
	stops []color.NRGBA
}

func newColorRamp(vals []float64) *colorRamp {
	r := &colorRamp{stops: []color.NRGBA{
		{255, 255, 255, 255},
		{254, 224, 144, 255},
		{252, 141, 89, 255},
		{215, 48, 39, 255},
		{165, 0, 38, 255},
	}}
	for _, v := range vals {
		if v > r.max {
			r.max = v
		}
	}
	return r
}

// at returns the gradient color for v. Values at or below zero map to
// the first stop; NaN draws as the first stop as well.
func (r *colorRamp) at(v float64) color.NRGBA {
	if math.IsNaN(v) || v <= 0 || r.max <= 0 {
		return r.stops[0]
	}
	if v >= r.max {
		return r.stops[len(r.stops)-1]
	}
	t := v / r.max * float64(len(r.stops)-1)
	i := int(t)
	frac := t - float64(i)
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*frac + 0.5)
	}
	a, b := r.stops[i], r.stops[i+1]
	return color.NRGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

// networkBounds returns the bounding box of every link polyline.
func networkBounds(network *loopheat.RoadNetwork) *geom.Bounds {
	b := geom.NewBounds()
	for _, l := range network.Links {
		b.Extend(l.LineString.Bounds())
	}
	return b
}

// Roads renders the road network with links colored by road class.
func Roads(w io.Writer, network *loopheat.RoadNetwork, width int) error {
	b := networkBounds(network)
	m := newCanvas(b, width, mapHeight(b, width))
	for _, l := range network.Links {
		stroke, ok := roadColors[l.Class]
		if !ok {
			stroke = defaultRoadColor
		}
		m.strokeLineString(l.LineString, draw.LineStyle{Width: 0.2 * vg.Millimeter, Color: stroke})
	}
	return writePNG(w, m.img)
}

// Heatmap renders an emission grid as a color-mapped raster, one pixel
// per grid cell, with the road network drawn on top.
func Heatmap(w io.Writer, grid *heatmap.Grid, network *loopheat.RoadNetwork) error {
	b := &geom.Bounds{
		Min: geom.Point{X: heatmap.MinX, Y: heatmap.MinY},
		Max: geom.Point{X: heatmap.MaxX, Y: heatmap.MaxY},
	}
	m := newCanvas(b, heatmap.Cols, heatmap.Rows)

	// Grid row 0 is the north edge, matching image row 0.
	ramp := newColorRamp(grid.Data.Elements)
	for row := 0; row < heatmap.Rows; row++ {
		for col := 0; col < heatmap.Cols; col++ {
			m.img.Set(col, row, ramp.at(grid.Data.Get(row, col)))
		}
	}

	sty := draw.LineStyle{Width: 0.1 * vg.Millimeter, Color: color.NRGBA{0, 0, 0, 255}}
	for _, l := range network.Links {
		m.strokeLineString(l.LineString, sty)
	}
	return writePNG(w, m.img)
}

// Density renders a choropleth of building bounding boxes shaded by
// mapped-vehicle count normalized by footprint area. Buildings without
// count data are drawn unfilled.
func Density(w io.Writer, buildings *loopheat.BuildingCollection, width int) error {
	bounds := geom.NewBounds()
	var vals []float64
	for _, b := range buildings.Slice() {
		bounds.Extend(b.BBox)
		if b.Count >= 0 {
			vals = append(vals, b.NormCount())
		}
	}
	if bounds.Empty() {
		return fmt.Errorf("maps: no buildings to draw")
	}
	ramp := newColorRamp(vals)

	m := newCanvas(bounds, width, mapHeight(bounds, width))
	edge := draw.LineStyle{Width: 0.05 * vg.Millimeter, Color: color.NRGBA{80, 80, 80, 255}}
	for _, b := range buildings.Slice() {
		fill := noFill
		if b.Count >= 0 {
			fill = ramp.at(b.NormCount())
		}
		m.drawPolygon(boxPolygon(b.BBox), fill, edge)
	}
	return writePNG(w, m.img)
}

func boxPolygon(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Min.Y},
	}}
}
