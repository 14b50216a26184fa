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
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// SampleSeed is the base seed of the deterministic snapshot sampler.
	SampleSeed = 1592417421

	// SampleFraction is the fraction of records kept when sampling.
	SampleFraction = 0.05

	// snapshotChunks is the number of chunk files one simulated day is
	// split into.
	snapshotChunks = 25

	// snapshotChunkRecords is the number of records per chunk file.
	snapshotChunkRecords = 1000000
)

// SnapshotChunkName returns the name of the i-th snapshot chunk file of a
// simulated day.
func SnapshotChunkName(i int) string {
	return fmt.Sprintf("Snapshot_%d.csv", i*snapshotChunkRecords)
}

// SampleSnapshots samples the snapshot chunk files in dir, keeping each
// record with probability SampleFraction, and merges the result into a
// single snapshot ordered by time. Sampling is deterministic: chunk i is
// sampled with seed SampleSeed+i, so repeated runs select the same
// records. Chunks are processed concurrently, one worker per processor.
func SampleSnapshots(dir string, progress chan string) (*Snapshot, error) {
	nprocs := runtime.GOMAXPROCS(-1)
	chunkChan := make(chan int, snapshotChunks)
	results := make([]*Snapshot, snapshotChunks)
	errs := make([]error, snapshotChunks)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func() {
			defer wg.Done()
			for i := range chunkChan {
				results[i], errs[i] = sampleChunk(filepath.Join(dir, SnapshotChunkName(i)), SampleSeed+int64(i))
				if progress != nil && errs[i] == nil {
					progress <- fmt.Sprintf("Sampled %s: kept %d frames\n",
						SnapshotChunkName(i), len(results[i].Frames))
				}
			}
		}()
	}
	for i := 0; i < snapshotChunks; i++ {
		chunkChan <- i
	}
	close(chunkChan)
	wg.Wait()

	merged := NewSnapshot()
	for i := 0; i < snapshotChunks; i++ {
		if errs[i] != nil {
			return nil, errs[i]
		}
		for _, f := range results[i].Frames {
			merged.Append(f)
		}
	}
	merged.SortByTime()
	return merged, nil
}

// sampleChunk reads one chunk file and keeps each frame with probability
// SampleFraction, drawing from a generator with the given seed.
func sampleChunk(path string, seed int64) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loopheat: while sampling: %v", err)
	}
	defer f.Close()

	s, err := ReadSnapshot(f, false)
	if err != nil {
		return nil, fmt.Errorf("loopheat: while sampling %s: %v", filepath.Base(path), err)
	}

	rng := rand.New(rand.NewSource(seed))
	kept := NewSnapshot()
	for _, frame := range s.Frames {
		if rng.Float64() < SampleFraction {
			kept.Append(frame)
		}
	}
	return kept, nil
}
