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
	"bytes"
	"strings"
	"testing"
)

const testSnapshotCSV = `VEHICLE,TIME,LINK,DIR,LANE,OFFSET,SPEED,ACCEL,VEH_TYPE,DRIVER,PASSENGERS,X_COORD,Y_COORD
3,8:00,11,0,1,5.5,13.9,0,1,3,1,447000.25,4635000.5
1,8:00,10,1,1,0,0,0,1,1,1,446500,4636000
1,8:00:30,10,1,2,12.25,8.2,1.1,1,1,1,446512.25,4636000
3,8:01,11,0,1,20,13.9,0,1,3,1,447014.75,4635000.5
`

func TestReadSnapshot(t *testing.T) {
	s, err := ReadSnapshot(strings.NewReader(testSnapshotCSV), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(s.Frames))
	}
	if len(s.Traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(s.Traces))
	}
	f := s.Frames[0]
	if f.Vehicle != 3 || f.Link != 11 || f.Offset != 5.5 || f.X != 447000.25 {
		t.Errorf("unexpected first frame: %+v", f)
	}
	if got, want := f.Time, Timestamp(8*3600); got != want {
		t.Errorf("first frame time: got %v, want %v", got, want)
	}

	tr := s.Traces[1]
	if len(tr.Frames) != 2 {
		t.Fatalf("vehicle 1: got %d frames, want 2", len(tr.Frames))
	}
	if tr.Frames[0].Time >= tr.Frames[1].Time {
		t.Error("vehicle 1 trace not in time order")
	}
}

func TestReadSnapshotUnordered(t *testing.T) {
	shuffled := `VEHICLE,TIME,LINK,DIR,LANE,OFFSET,SPEED,ACCEL,VEH_TYPE,DRIVER,PASSENGERS,X_COORD,Y_COORD
1,9:00,10,1,1,0,0,0,1,1,1,0,0
2,8:00,10,1,1,0,0,0,1,1,1,0,0
1,8:30,10,1,1,0,0,0,1,1,1,0,0
`
	s, err := ReadSnapshot(strings.NewReader(shuffled), false)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(s.Frames); i++ {
		if s.Frames[i-1].Time > s.Frames[i].Time {
			t.Fatalf("frames out of order at %d", i)
		}
	}
	tr := s.Traces[1]
	if got, want := tr.Frames[0].Time.String(), "8:30"; got != want {
		t.Errorf("vehicle 1 first frame: got %s, want %s", got, want)
	}
}

func TestTraceMerge(t *testing.T) {
	a := &Trace{Frames: []*Frame{{Vehicle: 1, Time: 10}, {Vehicle: 1, Time: 30}}}
	b := &Trace{Frames: []*Frame{{Vehicle: 1, Time: 20}, {Vehicle: 1, Time: 40}}}
	a.Merge(b)
	if len(a.Frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(a.Frames))
	}
	want := []Timestamp{10, 20, 30, 40}
	for i, f := range a.Frames {
		if f.Time != want[i] {
			t.Errorf("frame %d: got time %d, want %d", i, f.Time, want[i])
		}
	}
	if b.Frames != nil {
		t.Error("merged trace not emptied")
	}
}

func TestSnapshotSortByTime(t *testing.T) {
	s := NewSnapshot()
	s.Frames = []*Frame{
		{Vehicle: 2, Time: 30},
		{Vehicle: 1, Time: 10},
		{Vehicle: 1, Time: 20},
	}
	s.SortByTime()
	want := []Timestamp{10, 20, 30}
	for i, f := range s.Frames {
		if f.Time != want[i] {
			t.Errorf("frame %d: got time %d, want %d", i, f.Time, want[i])
		}
	}
	if len(s.Traces) != 2 || len(s.Traces[1].Frames) != 2 {
		t.Error("traces not rebuilt")
	}
}

func TestSnapshotWrite(t *testing.T) {
	s, err := ReadSnapshot(strings.NewReader(testSnapshotCSV), true)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != testSnapshotCSV {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), testSnapshotCSV)
	}
}

func TestSnapshotAgents(t *testing.T) {
	s, err := ReadSnapshot(strings.NewReader(testSnapshotCSV), true)
	if err != nil {
		t.Fatal(err)
	}
	agents := s.Agents()
	if len(agents) != len(s.Frames) {
		t.Fatalf("got %d agents, want %d", len(agents), len(s.Frames))
	}
	a := agents[0]
	if a.ID != 3 || a.Position.X != 447000.25 || a.Position.Y != 4635000.5 {
		t.Errorf("unexpected agent: %+v", a)
	}
	if p := a.Point(); p != a.Position {
		t.Error("Point does not match Position")
	}
}
