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
	"fmt"
	"io"
	"sort"

	"github.com/ctessum/geom"
	"github.com/gocarina/gocsv"
)

// A Frame is a single record from a traffic simulation snapshot file:
// the state of one vehicle at one point in time. X and Y are UTM zone 16
// coordinates in meters.
type Frame struct {
	Vehicle     int       `csv:"VEHICLE"`
	Time        Timestamp `csv:"TIME"`
	Link        int       `csv:"LINK"`
	Direction   int       `csv:"DIR"`
	Lane        int       `csv:"LANE"`
	Offset      float64   `csv:"OFFSET"`
	Speed       float64   `csv:"SPEED"`
	Accel       float64   `csv:"ACCEL"`
	VehicleType int       `csv:"VEH_TYPE"`
	Driver      int       `csv:"DRIVER"`
	Passengers  int       `csv:"PASSENGERS"`
	X           float64   `csv:"X_COORD"`
	Y           float64   `csv:"Y_COORD"`
}

// Point returns the recorded vehicle position.
func (f *Frame) Point() geom.Point { return geom.Point{X: f.X, Y: f.Y} }

// Agent returns the reduced representation of f used by the
// vehicle-to-building mapping algorithms.
func (f *Frame) Agent() Agent {
	return Agent{ID: f.Vehicle, Time: f.Time, Position: f.Point()}
}

// An Agent is a positioned vehicle observation: the subset of a Frame
// needed for spatial mapping.
type Agent struct {
	ID       int
	Time     Timestamp
	Position geom.Point
}

// Point returns the agent position.
func (a *Agent) Point() geom.Point { return a.Position }

// A Trace is the time-ordered series of Frames belonging to one vehicle.
type Trace struct {
	Frames []*Frame
}

// Merge merges the frames of other into t, preserving time order.
// After merging, other is empty.
func (t *Trace) Merge(other *Trace) {
	merged := make([]*Frame, 0, len(t.Frames)+len(other.Frames))
	i, j := 0, 0
	for i < len(t.Frames) && j < len(other.Frames) {
		if t.Frames[i].Time < other.Frames[j].Time {
			merged = append(merged, t.Frames[i])
			i++
		} else {
			merged = append(merged, other.Frames[j])
			j++
		}
	}
	merged = append(merged, t.Frames[i:]...)
	merged = append(merged, other.Frames[j:]...)
	t.Frames = merged
	other.Frames = nil
}

// A Snapshot holds the contents of one simulation snapshot file:
// all frames in time order, plus the per-vehicle traces.
type Snapshot struct {
	Frames []*Frame
	Traces map[int]*Trace
}

// NewSnapshot initializes an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Traces: make(map[int]*Trace)}
}

// Append adds a frame to the snapshot. Frames must be appended in
// ascending time order.
func (s *Snapshot) Append(f *Frame) {
	s.Frames = append(s.Frames, f)
	tr, ok := s.Traces[f.Vehicle]
	if !ok {
		tr = new(Trace)
		s.Traces[f.Vehicle] = tr
	}
	tr.Frames = append(tr.Frames, f)
}

// ReadSnapshot loads a snapshot from CSV data. If ordered is true the
// input is assumed to already be sorted by time; otherwise the frames
// are sorted before the traces are assembled.
func ReadSnapshot(r io.Reader, ordered bool) (*Snapshot, error) {
	var frames []*Frame
	if err := gocsv.Unmarshal(r, &frames); err != nil {
		return nil, fmt.Errorf("loopheat: reading snapshot: %v", err)
	}
	if !ordered {
		sort.SliceStable(frames, func(i, j int) bool {
			return frames[i].Time < frames[j].Time
		})
	}
	s := NewSnapshot()
	for _, f := range frames {
		s.Append(f)
	}
	return s, nil
}

// SortByTime restores ascending time order after out-of-order appends
// and rebuilds the per-vehicle traces.
func (s *Snapshot) SortByTime() {
	sort.SliceStable(s.Frames, func(i, j int) bool {
		return s.Frames[i].Time < s.Frames[j].Time
	})
	s.Traces = make(map[int]*Trace)
	for _, f := range s.Frames {
		tr, ok := s.Traces[f.Vehicle]
		if !ok {
			tr = new(Trace)
			s.Traces[f.Vehicle] = tr
		}
		tr.Frames = append(tr.Frames, f)
	}
}

// Write writes the snapshot as CSV with the canonical 13-column header.
func (s *Snapshot) Write(w io.Writer) error {
	if err := gocsv.Marshal(&s.Frames, w); err != nil {
		return fmt.Errorf("loopheat: writing snapshot: %v", err)
	}
	return nil
}

// Agents returns the reduced agent representation of every frame in s.
func (s *Snapshot) Agents() []*Agent {
	agents := make([]*Agent, len(s.Frames))
	for i, f := range s.Frames {
		a := f.Agent()
		agents[i] = &a
	}
	return agents
}
