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

package mapping

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/urbanloop/loopheat"
)

// LastSeen reduces the given snapshot files to the latest frame of each
// vehicle, over all files together, returned sorted by vehicle ID.
// Files are processed concurrently.
func LastSeen(paths []string, progress chan string) ([]*loopheat.Frame, error) {
	latests := make([]map[int]*loopheat.Frame, len(paths))
	errs := make([]error, len(paths))

	pathChan := make(chan int, len(paths))
	var wg sync.WaitGroup
	nprocs := runtime.GOMAXPROCS(-1)
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func() {
			defer wg.Done()
			for i := range pathChan {
				latests[i], errs[i] = lastSeenFile(paths[i])
				if progress != nil && errs[i] == nil {
					progress <- fmt.Sprintf("Scanned %s: %d vehicles\n", paths[i], len(latests[i]))
				}
			}
		}()
	}
	for i := range paths {
		pathChan <- i
	}
	close(pathChan)
	wg.Wait()

	merged := make(map[int]*loopheat.Frame)
	for i, latest := range latests {
		if errs[i] != nil {
			return nil, fmt.Errorf("mapping: while scanning %s: %v", paths[i], errs[i])
		}
		for vehicle, f := range latest {
			if cur, ok := merged[vehicle]; !ok || f.Time > cur.Time {
				merged[vehicle] = f
			}
		}
	}

	out := make([]*loopheat.Frame, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vehicle < out[j].Vehicle })
	return out, nil
}

func lastSeenFile(path string) (map[int]*loopheat.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := loopheat.ReadSnapshot(f, true)
	if err != nil {
		return nil, err
	}
	latest := make(map[int]*loopheat.Frame)
	for _, frame := range s.Frames {
		if cur, ok := latest[frame.Vehicle]; !ok || frame.Time >= cur.Time {
			latest[frame.Vehicle] = frame
		}
	}
	return latest, nil
}

// WriteLastSeen writes the reduced frames with the canonical snapshot
// header.
func WriteLastSeen(w io.Writer, frames []*loopheat.Frame) error {
	if err := gocsv.Marshal(&frames, w); err != nil {
		return fmt.Errorf("mapping: writing last-seen frames: %v", err)
	}
	return nil
}
