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

// Package utm converts WGS84 latitude/longitude coordinates to Universal
// Transverse Mercator (UTM) easting/northing pairs.
//
// The conversion uses the standard series expansion; see
// https://www.ccgalberta.com/ccgresources/report11/2009-410_converting_latlon_to_utm.pdf.
// The coordinates it produces are the frame of reference for every dataset
// in this project, so the expansion is implemented here verbatim rather
// than delegated to a projection library. The test suite cross-checks the
// results against github.com/ctessum/geom/proj.
package utm

import (
	"math"

	"github.com/ctessum/geom"
)

// Constants for the WGS84 ellipsoid (EPSG:4326).
const (
	// semiMajor is the equatorial radius [m].
	semiMajor = 6378137

	// invFlattening is the inverse flattening.
	invFlattening = 298.257223563

	// k0 is the point scale factor at the central meridian.
	k0 = 0.9996

	flattening = 1 / invFlattening

	// Powers of the first eccentricity (e², e⁴, e⁶).
	e2 = 2*flattening - flattening*flattening
	e4 = e2 * e2
	e6 = e2 * e2 * e2

	// ep2 is the second eccentricity squared.
	ep2 = e2 / (1 - e2)

	// Coefficients for the meridian arc length M.
	m1 = 1 - e2/4 - 3*e4/64 - 5*e6/256
	m2 = 3*e2/8 + 3*e4/32 + 45*e6/1024
	m3 = 15*e4/256 + 45*e6/1024
	m4 = 35 * e6 / 3072
)

// CentralLongitude returns the longitude, in degrees, of the central
// meridian for the UTM zone containing the given longitude. Positive
// values are east of the Prime Meridian.
func CentralLongitude(lonDeg float64) float64 {
	return math.Floor(lonDeg/-6)*-6 - 3
}

// Convert converts a WGS84 latitude/longitude pair, in degrees, to UTM
// easting/northing coordinates in meters, relative to the zone whose
// central meridian is centralLonDeg. The origin is the intersection of the
// central meridian with the Equator, offset by the usual 500 km false
// easting (and 10,000 km false northing in the Southern Hemisphere).
func Convert(latDeg, lonDeg, centralLonDeg float64) geom.Point {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	centLon := centralLonDeg * math.Pi / 180

	sinLat, cosLat := math.Sincos(lat)
	tanLat := sinLat / cosLat

	n := semiMajor / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := (lon - centLon) * cosLat
	m := semiMajor * (m1*lat -
		m2*math.Sin(2*lat) +
		m3*math.Sin(4*lat) -
		m4*math.Sin(6*lat))

	a2 := a * a
	a3 := a2 * a
	a4 := a2 * a2
	a5 := a4 * a
	a6 := a3 * a3

	x := k0 * n * (a +
		(1-t+c)*a3/6 +
		(5-18*t+t*t+72*c-58*ep2)*a5/120)

	y := k0 * (m + n*tanLat*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))

	x += 500000 // false easting
	if latDeg < 0 {
		y += 10000000 // false northing south of the Equator
	}

	return geom.Point{X: x, Y: y}
}
