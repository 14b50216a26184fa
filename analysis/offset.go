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

package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"sync"

	"github.com/urbanloop/loopheat"
)

// A PositionError is the distance between a frame's recorded position
// and the position reconstructed from its link, offset, and direction.
type PositionError struct {
	Vehicle int
	Time    loopheat.Timestamp
	Meters  float64 // rounded to millimeters
}

// OffsetErrors reconstructs the position of every frame from its link
// and offset and reports the distance to the recorded coordinates.
// Frames whose offset exceeds the link length, or that reference an
// unknown link, are skipped. Results are in frame order; frames are
// processed concurrently.
func OffsetErrors(network *loopheat.RoadNetwork, s *loopheat.Snapshot, progress chan string) []PositionError {
	results := make([]*PositionError, len(s.Frames))

	nprocs := runtime.GOMAXPROCS(-1)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	var done int64
	var mx sync.Mutex
	chunk := (len(s.Frames) + nprocs - 1) / nprocs
	for p := 0; p < nprocs; p++ {
		go func(lo int) {
			defer wg.Done()
			hi := lo + chunk
			if hi > len(s.Frames) {
				hi = len(s.Frames)
			}
			for i := lo; i < hi; i++ {
				results[i] = offsetError(network, s.Frames[i])
				if progress != nil {
					mx.Lock()
					done++
					if done%50000 == 0 {
						progress <- fmt.Sprintf("Progress: %.1f%%\n", 100*float64(done)/float64(len(s.Frames)))
					}
					mx.Unlock()
				}
			}
		}(p * chunk)
	}
	wg.Wait()

	out := make([]PositionError, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func offsetError(network *loopheat.RoadNetwork, f *loopheat.Frame) *PositionError {
	link, err := network.Link(f.Link)
	if err != nil {
		return nil
	}
	p, err := link.OffsetToPoint(f.Offset, f.Direction)
	if err != nil {
		return nil
	}
	d := math.Hypot(p.X-f.X, p.Y-f.Y)
	return &PositionError{
		Vehicle: f.Vehicle,
		Time:    f.Time,
		Meters:  math.Round(d*1000) / 1000,
	}
}

// WritePositionErrors writes position errors as CSV.
func WritePositionErrors(w io.Writer, errs []PositionError) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle", "time", "position_err_m"}); err != nil {
		return fmt.Errorf("analysis: writing position errors: %v", err)
	}
	for _, e := range errs {
		err := cw.Write([]string{
			strconv.Itoa(e.Vehicle),
			e.Time.String(),
			strconv.FormatFloat(e.Meters, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("analysis: writing position errors: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
