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
	"math"
	"strings"
	"testing"

	"github.com/ctessum/unit"
)

const testEmissionsCSV = `hour,link,vehicles,energy_rate,energy_total
8,10,120,3600,2
8,25,80,7200,1.5
`

func TestReadEmissions(t *testing.T) {
	s, err := ReadEmissions(strings.NewReader(testEmissionsCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Links) != 2 {
		t.Fatalf("got %d links, want 2", len(s.Links))
	}
	e := s.Links[10]
	if e.RateKJ != 3600 || e.TotalMMBtu != 2 {
		t.Errorf("unexpected link 10 emissions: %+v", e)
	}

	slice := s.Slice()
	if len(slice) != 2 || slice[0].LinkID != 10 || slice[1].LinkID != 25 {
		t.Errorf("slice not sorted by link ID: %+v", slice)
	}
}

func TestReadEmissionsErrors(t *testing.T) {
	if _, err := ReadEmissions(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
	short := "hour,link,vehicles\n8,10,120\n"
	if _, err := ReadEmissions(strings.NewReader(short)); err == nil {
		t.Error("expected error for short rows")
	}
}

func TestEmissionsRate(t *testing.T) {
	e := &LinkEmissions{RateKJ: 3600} // 3600 kJ per operating hour = 1 kW
	r := e.Rate()
	if !r.Dimensions().Matches(unit.Watt) {
		t.Errorf("rate dimensions: got %v, want W", r.Dimensions())
	}
	if got, want := r.Value(), 1000.0; got != want {
		t.Errorf("rate: got %f W, want %f W", got, want)
	}
}

func TestEmissionsTotal(t *testing.T) {
	e := &LinkEmissions{TotalMMBtu: 2}
	total := e.Total()
	if !total.Dimensions().Matches(unit.Joule) {
		t.Errorf("total dimensions: got %v, want J", total.Dimensions())
	}
	if got, want := total.Value(), 2*1.05506e9; got != want {
		t.Errorf("total: got %g J, want %g J", got, want)
	}
}

func TestEmissionsSum(t *testing.T) {
	s, err := ReadEmissions(strings.NewReader(testEmissionsCSV))
	if err != nil {
		t.Fatal(err)
	}
	sum := s.Sum()
	if got, want := sum.Value(), 3.5*1.05506e9; math.Abs(got-want) > 1 {
		t.Errorf("sum: got %g J, want %g J", got, want)
	}
}

func TestTemperatureElevation(t *testing.T) {
	// 360 MJ over 1 hour and 1000 m² is 100 W/m², which elevates the
	// temperature by 0.8 °C.
	e := unit.New(3.6e8, unit.Joule)
	area := unit.New(1000, unit.Meter2)
	dT, err := TemperatureElevation(e, area)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dT-0.8) > 1e-12 {
		t.Errorf("got %f °C, want 0.8 °C", dT)
	}
}

func TestTemperatureElevationDimensions(t *testing.T) {
	e := unit.New(3.6e8, unit.Joule)
	area := unit.New(1000, unit.Meter2)
	if _, err := TemperatureElevation(area, area); err == nil {
		t.Error("expected error for non-energy input")
	}
	if _, err := TemperatureElevation(e, e); err == nil {
		t.Error("expected error for non-area input")
	}
}

func TestEmissionsFileName(t *testing.T) {
	if got, want := EmissionsFileName(4, 8), "2017-07-04_08_energy.csv"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := EmissionsFileName(10, 17), "2017-07-10_17_energy.csv"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
