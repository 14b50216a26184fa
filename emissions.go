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
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ctessum/unit"
)

const (
	// joulesPerMMBtu converts MMBtu to Joules (1 BTU = 1.05506 kJ).
	joulesPerMMBtu = 1.05506e9

	// secondsPerOpHour is the length of the operating hour that per-hour
	// emission rates are reported over.
	secondsPerOpHour = 3600.

	// degCPer100Wm2 is the expected steady-state near-surface air
	// temperature elevation per 100 W/m² of anthropogenic heat flux.
	degCPer100Wm2 = 0.8
)

// LinkEmissions holds the vehicular energy emissions attributed to one
// road link during one hour: the per-vehicle emission rate
// [kJ/vehicle/operating-hour] and the total emitted energy [MMBtu].
type LinkEmissions struct {
	LinkID     int
	RateKJ     float64 // [kJ/vehicle/op-hr]
	TotalMMBtu float64
}

// Rate returns the per-vehicle emission rate as a power quantity [W].
func (e *LinkEmissions) Rate() *unit.Unit {
	return unit.New(e.RateKJ*1000/secondsPerOpHour, unit.Watt)
}

// Total returns the total emitted energy [J].
func (e *LinkEmissions) Total() *unit.Unit {
	return unit.New(e.TotalMMBtu*joulesPerMMBtu, unit.Joule)
}

// TemperatureElevation estimates the steady-state air temperature
// elevation [°C] caused by releasing energy e over area [m²] for one
// hour, using the 0.8 °C per 100 W/m² sensitivity.
func TemperatureElevation(e, area *unit.Unit) (float64, error) {
	if !e.Dimensions().Matches(unit.Joule) {
		return 0, fmt.Errorf("loopheat: temperature elevation: energy has dimensions %v, want J", e.Dimensions())
	}
	if !area.Dimensions().Matches(unit.Meter2) {
		return 0, fmt.Errorf("loopheat: temperature elevation: area has dimensions %v, want m²", area.Dimensions())
	}
	flux := unit.Div(unit.Div(e, unit.New(secondsPerOpHour, unit.Second)), area)
	return flux.Value() / 100 * degCPer100Wm2, nil
}

// An EmissionsSnapshot holds the link emissions of one simulated hour.
type EmissionsSnapshot struct {
	Links map[int]*LinkEmissions
}

// ReadEmissions loads an hourly link emissions CSV file. Columns beyond
// the link ID (column 1), emission rate (column 3), and total energy
// (column 4) are ignored.
func ReadEmissions(r io.Reader) (*EmissionsSnapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loopheat: reading emissions: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("loopheat: emissions file is empty")
	}

	s := &EmissionsSnapshot{Links: make(map[int]*LinkEmissions, len(rows)-1)}
	for _, row := range rows[1:] { // skip header
		if len(row) < 5 {
			return nil, fmt.Errorf("loopheat: emissions row has %d columns, want at least 5", len(row))
		}
		id, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading emissions link ID: %v", err)
		}
		rate, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading emissions rate for link %d: %v", id, err)
		}
		total, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading emissions total for link %d: %v", id, err)
		}
		s.Links[id] = &LinkEmissions{LinkID: id, RateKJ: rate, TotalMMBtu: total}
	}
	return s, nil
}

// Slice returns the link emissions sorted by link ID.
func (s *EmissionsSnapshot) Slice() []*LinkEmissions {
	out := make([]*LinkEmissions, 0, len(s.Links))
	for _, e := range s.Links {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out
}

// Sum returns the total energy emitted on all links [J].
func (s *EmissionsSnapshot) Sum() *unit.Unit {
	total := unit.New(0, unit.Joule)
	for _, e := range s.Links {
		total.Add(e.Total())
	}
	return total
}

// EmissionsFileName returns the conventional name of the link emissions
// file for one hour of one simulated July 2017 day.
func EmissionsFileName(day, hour int) string {
	return fmt.Sprintf("2017-07-%02d_%02d_energy.csv", day, hour)
}
