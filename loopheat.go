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

// Package loopheat analyzes vehicle traffic and traffic-generated heat
// emissions in the Chicago Loop. It works with three related datasets:
// per-vehicle traffic simulation snapshots, a GeoJSON road network, and
// per-link hourly energy emission reports, and it provides the data model
// and input/output routines shared by the analysis subpackages.
package loopheat

// Version gives the version number of this version of Loopheat.
const Version = "1.2.1"

// ChicagoCentralMeridian is the central meridian, in degrees longitude, of
// the UTM zone containing the Chicago Loop (zone 16).
const ChicagoCentralMeridian = -87
