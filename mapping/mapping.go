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

// Package mapping assigns the vehicles of simulation snapshots to the
// buildings they most plausibly parked at, one result set per
// simulated hour.
package mapping

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/kdtree"
	"github.com/urbanloop/loopheat/quadtree"
)

// An Entry is one vehicle→building assignment as written to the
// per-hour mapping files.
type Entry struct {
	Vehicle   int     `csv:"VEHICLE"`
	Link      int     `csv:"LINK"`
	X         float64 `csv:"X_COORD"`
	Y         float64 `csv:"Y_COORD"`
	Building  int     `csv:"BUILDING"`
	BuildingX float64 `csv:"BUILDING_X"`
	BuildingY float64 `csv:"BUILDING_Y"`
	Distance  float64 `csv:"DISTANCE"`
	Count     int     `csv:"MAPPED_VEHICLE_COUNT"`
}

// Mapping strategies.
const (
	StrategyKDTree   = "kdtree"   // nearest centroid via k-d tree
	StrategyClosest  = "closest"  // nearest centroid via quadtree splitting
	StrategyWeighted = "weighted" // area-weighted quadtree splitting
)

// DefaultSplitThreshold is the quadrant population below which the
// quadtree strategies stop splitting.
const DefaultSplitThreshold = 32

// tukeyK is the Tukey fence multiplier used for outlier filtering.
const tukeyK = 1.5

// A Config holds the settings of one mapping pipeline run.
type Config struct {
	// Buildings are the candidate buildings.
	Buildings *loopheat.BuildingCollection

	// Strategy selects how vehicles are assigned to buildings; one of
	// StrategyKDTree (the default), StrategyClosest, or
	// StrategyWeighted.
	Strategy string

	// SplitThreshold tunes the quadtree strategies;
	// DefaultSplitThreshold when zero.
	SplitThreshold int

	// FilterOutliers removes assignments with outlying mapping
	// distances using Tukey fences before counting.
	FilterOutliers bool

	// OutDir receives one hour_<H> directory per simulated hour.
	OutDir string

	// Progress, if non-nil, receives status updates.
	Progress chan string
}

// Run executes the pipeline over the given snapshot files: frames on a
// whole hour are grouped by hour-of-dataset, each hour's vehicles are
// assigned to buildings, and per-hour mapping and count files are
// written to c.OutDir. Files are read and hours processed concurrently.
func (c *Config) Run(paths []string) error {
	hours, err := c.groupByHour(paths)
	if err != nil {
		return err
	}

	tree := c.buildTree()

	nprocs := runtime.GOMAXPROCS(-1)
	hourChan := make(chan int, len(hours))
	errChan := make(chan error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func() {
			defer wg.Done()
			for hour := range hourChan {
				if err := c.runHour(hour, hours[hour], tree); err != nil {
					errChan <- err
					return
				}
				if c.Progress != nil {
					c.Progress <- fmt.Sprintf("Mapped hour %d: %d vehicles\n", hour, len(hours[hour]))
				}
			}
		}()
	}
	for hour := range hours {
		hourChan <- hour
	}
	close(hourChan)
	go func() {
		wg.Wait()
		close(errChan)
	}()
	return <-errChan
}

// groupByHour reads the snapshot files concurrently and collects the
// frames that fall on a whole hour, keyed by hour-of-dataset.
func (c *Config) groupByHour(paths []string) (map[int][]*loopheat.Frame, error) {
	type result struct {
		hours map[int][]*loopheat.Frame
		err   error
	}
	results := make([]result, len(paths))

	pathChan := make(chan int, len(paths))
	var wg sync.WaitGroup
	nprocs := runtime.GOMAXPROCS(-1)
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func() {
			defer wg.Done()
			for i := range pathChan {
				results[i].hours, results[i].err = readHourFrames(paths[i])
			}
		}()
	}
	for i := range paths {
		pathChan <- i
	}
	close(pathChan)
	wg.Wait()

	merged := make(map[int][]*loopheat.Frame)
	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("mapping: while reading %s: %v", paths[i], r.err)
		}
		for hour, frames := range r.hours {
			merged[hour] = append(merged[hour], frames...)
		}
	}
	return merged, nil
}

func readHourFrames(path string) (map[int][]*loopheat.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := loopheat.ReadSnapshot(f, true)
	if err != nil {
		return nil, err
	}
	hours := make(map[int][]*loopheat.Frame)
	for _, frame := range s.Frames {
		if frame.Time.OnHour() {
			hours[frame.Time.Hour()] = append(hours[frame.Time.Hour()], frame)
		}
	}
	return hours, nil
}

// buildTree indexes the buildings for the k-d tree strategy.
func (c *Config) buildTree() *kdtree.Tree {
	if c.Strategy != "" && c.Strategy != StrategyKDTree {
		return nil
	}
	items := make([]kdtree.Item, 0, len(c.Buildings.Buildings))
	for _, b := range c.Buildings.Buildings {
		items = append(items, b)
	}
	return kdtree.NewTree(items)
}

// runHour maps one hour's vehicles and writes its output files.
func (c *Config) runHour(hour int, frames []*loopheat.Frame, tree *kdtree.Tree) error {
	entries, err := c.MapFrames(frames, tree)
	if err != nil {
		return fmt.Errorf("mapping: while mapping hour %d: %v", hour, err)
	}
	if c.FilterOutliers {
		entries = TukeyFilter(entries, tukeyK)
	}
	counts := CountByBuilding(entries)
	for i := range entries {
		entries[i].Count = counts[entries[i].Building]
	}

	dir := filepath.Join(c.OutDir, fmt.Sprintf("hour_%d", hour))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("mapping: while writing hour %d: %v", hour, err)
	}
	mf, err := os.Create(filepath.Join(dir, "NN_mappings.csv"))
	if err != nil {
		return fmt.Errorf("mapping: while writing hour %d: %v", hour, err)
	}
	defer mf.Close()
	if err := WriteEntries(mf, entries); err != nil {
		return fmt.Errorf("mapping: while writing hour %d: %v", hour, err)
	}

	cf, err := os.Create(filepath.Join(dir, "NN_counts.csv"))
	if err != nil {
		return fmt.Errorf("mapping: while writing hour %d: %v", hour, err)
	}
	defer cf.Close()
	if err := writeCounts(cf, c.Buildings, counts); err != nil {
		return fmt.Errorf("mapping: while writing hour %d: %v", hour, err)
	}
	return nil
}

// MapFrames assigns every frame's vehicle to a building using the
// configured strategy. Frames that no building could be assigned to are
// omitted. Entries are returned sorted by vehicle ID with counts unset.
func (c *Config) MapFrames(frames []*loopheat.Frame, tree *kdtree.Tree) ([]Entry, error) {
	entries := make([]Entry, 0, len(frames))

	switch c.Strategy {
	case "", StrategyKDTree:
		for _, f := range frames {
			item, d := tree.NearestNeighbor(f.Point())
			if item == nil {
				continue
			}
			entries = append(entries, newEntry(f, item.(*loopheat.Building), d))
		}

	case StrategyClosest, StrategyWeighted:
		var mapper quadtree.Mapper = quadtree.Closest{}
		if c.Strategy == StrategyWeighted {
			mapper = quadtree.AreaWeighted{}
		}
		threshold := c.SplitThreshold
		if threshold == 0 {
			threshold = DefaultSplitThreshold
		}
		agents := make([]*loopheat.Agent, len(frames))
		for i, f := range frames {
			a := f.Agent()
			agents[i] = &a
		}
		mappings, err := quadtree.Map(threshold, agents, c.Buildings.Slice(), mapper)
		if err != nil {
			return nil, err
		}
		for i, m := range mappings {
			if m.Building == nil {
				continue
			}
			entries = append(entries, newEntry(frames[i], m.Building, m.Distance))
		}

	default:
		return nil, fmt.Errorf("mapping: unknown strategy %q", c.Strategy)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Vehicle < entries[j].Vehicle })
	return entries, nil
}

func newEntry(f *loopheat.Frame, b *loopheat.Building, d float64) Entry {
	return Entry{
		Vehicle:   f.Vehicle,
		Link:      f.Link,
		X:         f.X,
		Y:         f.Y,
		Building:  b.ID,
		BuildingX: b.Centroid.X,
		BuildingY: b.Centroid.Y,
		Distance:  math.Round(d*1000) / 1000,
	}
}

// TukeyFilter removes entries whose mapping distance falls outside the
// Tukey fences [Q1-k*IQR, Q3+k*IQR] of the distance distribution.
func TukeyFilter(entries []Entry, k float64) []Entry {
	if len(entries) < 4 {
		return entries
	}
	dists := make([]float64, len(entries))
	for i, e := range entries {
		dists[i] = e.Distance
	}
	sort.Float64s(dists)
	q1 := quantile(dists, 0.25)
	q3 := quantile(dists, 0.75)
	iqr := q3 - q1
	lo, hi := q1-k*iqr, q3+k*iqr

	kept := entries[:0]
	for _, e := range entries {
		if e.Distance >= lo && e.Distance <= hi {
			kept = append(kept, e)
		}
	}
	return kept
}

// quantile returns the q-th quantile of sorted values by linear
// interpolation.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i]*(1-frac) + sorted[i+1]*frac
}

// CountByBuilding tallies mapped vehicles per building.
func CountByBuilding(entries []Entry) map[int]int {
	counts := make(map[int]int)
	for _, e := range entries {
		counts[e.Building]++
	}
	return counts
}

// WriteEntries writes mapping entries as CSV.
func WriteEntries(w io.Writer, entries []Entry) error {
	return gocsv.Marshal(&entries, w)
}

// ReadEntries loads a mapping entry CSV file.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := gocsv.Unmarshal(r, &entries); err != nil {
		return nil, fmt.Errorf("mapping: reading entries: %v", err)
	}
	return entries, nil
}

// writeCounts writes the building records of buildings that had
// vehicles mapped to them, with the mapped-vehicle count column.
func writeCounts(w io.Writer, buildings *loopheat.BuildingCollection, counts map[int]int) error {
	out := &loopheat.BuildingCollection{
		Buildings: make(map[int]*loopheat.Building, len(counts)),
		HasCounts: true,
	}
	for id, n := range counts {
		b, ok := buildings.Buildings[id]
		if !ok {
			return fmt.Errorf("mapping: count for unknown building %d", id)
		}
		bb := *b
		bb.Count = n
		out.Buildings[id] = &bb
	}
	return out.WriteBuildings(w)
}
