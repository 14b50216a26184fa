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
	"strings"
	"testing"
)

func TestReadLinkVolumes(t *testing.T) {
	csv := `link,county,zone,road_type,length,volume,avg_speed,desc,avg_grade
17,31,77,2,0.5,350,28.5,State St,0.1
25,31,78,3,0.25,120.5,22,Lake St,0
`
	v, err := ReadLinkVolumes(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Volumes) != 2 {
		t.Fatalf("got %d volumes, want 2", len(v.Volumes))
	}
	// The volume is column 5; the county and zone columns next to the
	// link ID must not be mistaken for it.
	if got, want := v.Volumes[17], 350.0; got != want {
		t.Errorf("link 17: got %f, want %f", got, want)
	}
	if got, want := v.Volumes[25], 120.5; got != want {
		t.Errorf("link 25: got %f, want %f", got, want)
	}
	if _, ok := v.Volumes[31]; ok {
		t.Error("county code 31 was read as a link ID")
	}
}

func TestReadLinkVolumesErrors(t *testing.T) {
	if _, err := ReadLinkVolumes(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
	if _, err := ReadLinkVolumes(strings.NewReader("link,county,zone\n17,31,77\n")); err == nil {
		t.Error("expected error for short rows")
	}
}

func TestVolumeFileName(t *testing.T) {
	if got, want := VolumeFileName(4, 8), "2017-07-04_08_volume.csv"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
