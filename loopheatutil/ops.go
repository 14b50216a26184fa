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

package loopheatutil

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/analysis"
	"github.com/urbanloop/loopheat/heatmap"
	"github.com/urbanloop/loopheat/mapping"
	"github.com/urbanloop/loopheat/maps"
)

func loadNetwork(path string) (*loopheat.RoadNetwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loopheat: opening road network: %v", err)
	}
	defer f.Close()
	return loopheat.ReadRoadNetwork(f)
}

func loadBuildings(path string) (*loopheat.BuildingCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loopheat: opening buildings: %v", err)
	}
	defer f.Close()
	return loopheat.ReadBuildings(f)
}

func loadSnapshot(path string, ordered bool) (*loopheat.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loopheat: opening snapshot: %v", err)
	}
	defer f.Close()
	return loopheat.ReadSnapshot(f, ordered)
}

// Sample samples the snapshot chunk files in dir and writes the merged
// sample to outFile.
func Sample(dir, outFile string, progress chan string) error {
	s, err := loopheat.SampleSnapshots(dir, progress)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating sample output: %v", err)
	}
	defer f.Close()
	if err := s.Write(f); err != nil {
		return err
	}
	progress <- fmt.Sprintf("Wrote %d sampled frames to %s\n", len(s.Frames), outFile)
	return nil
}

// Recompute validates and repairs the recorded positions of the
// snapshot files in snapshotDir and reports the observed error rates.
func Recompute(networkPath, snapshotDir, outDir string, reports bool, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return fmt.Errorf("loopheat: creating output directory: %v", err)
	}
	c := &analysis.RepairConfig{
		Network:         network,
		OutDir:          outDir,
		GenerateReports: reports,
		Progress:        progress,
	}
	stats, err := c.Run(snapshotDir)
	if err != nil {
		return err
	}

	progress <- "Error rates prior to reinterpretation:\n"
	progress <- fmt.Sprintf("%05d erroneous x-coordinates out of %05d total entries = %3.3f%%\n",
		stats.ErrX, stats.Total, stats.Rate(stats.ErrX))
	progress <- fmt.Sprintf("%05d of these were outside the map, rate of occurrence = %3.3f%%\n",
		stats.OutsideX, stats.Rate(stats.OutsideX))
	progress <- fmt.Sprintf("%05d erroneous y-coordinates out of %05d total entries = %3.3f%%\n",
		stats.ErrY, stats.Total, stats.Rate(stats.ErrY))
	progress <- fmt.Sprintf("%05d of these were outside the map, rate of occurrence = %3.3f%%\n",
		stats.OutsideY, stats.Rate(stats.OutsideY))
	progress <- fmt.Sprintf("%05d erroneous entries in total, rate of occurrence = %3.3f%%\n",
		stats.ErrTotal, stats.Rate(stats.ErrTotal))
	for m, n := range stats.Methods {
		progress <- fmt.Sprintf("%05d entries were corrected as follows: method for x-coord was %q, method for y-coord was %q\n",
			n, m.X.String(), m.Y.String())
	}
	return nil
}

// Simplify reduces a GeoJSON building footprint collection to the
// simplified building CSV format.
func Simplify(footprintsPath, outFile string, progress chan string) error {
	in, err := os.Open(footprintsPath)
	if err != nil {
		return fmt.Errorf("loopheat: opening footprints: %v", err)
	}
	defer in.Close()
	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating simplified buildings: %v", err)
	}
	defer out.Close()

	written, seen, err := loopheat.SimplifyFootprints(in, out, progress)
	if err != nil {
		return err
	}
	progress <- fmt.Sprintf("Kept %d of %d footprints\n", written, seen)
	return nil
}

// InterpolateNetwork writes points interpolated along every network
// link to outFile.
func InterpolateNetwork(networkPath string, spacing float64, outFile string, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	points := network.Interpolate(spacing)
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating network points: %v", err)
	}
	defer f.Close()
	if err := loopheat.WriteNetworkPoints(f, points); err != nil {
		return err
	}
	progress <- fmt.Sprintf("Wrote %d network points to %s\n", len(points), outFile)
	return nil
}

// SnapTraces snaps the trace points of a snapshot onto interpolated
// network points.
func SnapTraces(pointsPath, snapshotPath, outFile string, progress chan string) error {
	pf, err := os.Open(pointsPath)
	if err != nil {
		return fmt.Errorf("loopheat: opening network points: %v", err)
	}
	points, err := loopheat.ReadNetworkPoints(pf)
	pf.Close()
	if err != nil {
		return err
	}
	s, err := loadSnapshot(snapshotPath, true)
	if err != nil {
		return err
	}

	snapper := analysis.NewSnapper(points)
	snapped := snapper.Snap(s)
	if dropped := len(s.Frames) - len(snapped); dropped > 0 {
		log.Warnf("dropped %d trace points with no network point within %g m",
			dropped, analysis.MaxSnapDistance)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating snapped output: %v", err)
	}
	defer f.Close()
	if err := analysis.WriteSnappedPoints(f, snapped); err != nil {
		return err
	}
	progress <- fmt.Sprintf("Snapped %d of %d trace points\n", len(snapped), len(s.Frames))
	return nil
}

// RunMapping executes the hourly vehicle→building mapping pipeline.
func RunMapping(snapshotFiles []string, buildingsPath, outDir, strategy string,
	splitThreshold int, filterOutliers bool, progress chan string) error {
	buildings, err := loadBuildings(buildingsPath)
	if err != nil {
		return err
	}
	c := &mapping.Config{
		Buildings:      buildings,
		Strategy:       strategy,
		SplitThreshold: splitThreshold,
		FilterOutliers: filterOutliers,
		OutDir:         outDir,
		Progress:       progress,
	}
	return c.Run(snapshotFiles)
}

// RunLastSeen reduces snapshot files to the latest frame per vehicle.
func RunLastSeen(snapshotFiles []string, outFile string, progress chan string) error {
	frames, err := mapping.LastSeen(snapshotFiles, progress)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating last-seen output: %v", err)
	}
	defer f.Close()
	if err := mapping.WriteLastSeen(f, frames); err != nil {
		return err
	}
	progress <- fmt.Sprintf("Wrote last-seen frames for %d vehicles\n", len(frames))
	return nil
}

// HeatmapDensity computes the emission heatmap of one hour and writes
// the per-building emission density report.
func HeatmapDensity(networkPath, emissionsPath, buildingsPath, outFile string, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	ef, err := os.Open(emissionsPath)
	if err != nil {
		return fmt.Errorf("loopheat: opening emissions: %v", err)
	}
	emissions, err := loopheat.ReadEmissions(ef)
	ef.Close()
	if err != nil {
		return err
	}
	buildings, err := loadBuildings(buildingsPath)
	if err != nil {
		return err
	}
	if !buildings.HasCounts {
		log.Warn("building file has no mapped-vehicle counts; densities will lack count data")
	}

	grid, err := heatmap.Compute(network, emissions)
	if err != nil {
		return err
	}
	progress <- fmt.Sprintf("Rasterized %d links; maximum cell value %g\n", len(grid.LinkCells), grid.Max)

	densities := heatmap.BuildingDensities(grid.Data, buildings)
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating density output: %v", err)
	}
	defer f.Close()
	return heatmap.WriteDensities(f, densities)
}

// HeatmapDiff writes the day-to-day heatmap difference report.
func HeatmapDiff(networkPath, emissionsDir, outFile string, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	diffs, err := heatmap.DiffDays(network, emissionsDir, progress)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating difference report: %v", err)
	}
	defer f.Close()
	return heatmap.WriteDayDiffs(f, diffs)
}

// AnalyzePositionErrors reports the offset-reconstruction position
// error of every snapshot frame.
func AnalyzePositionErrors(networkPath, snapshotPath, outFile string, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	s, err := loadSnapshot(snapshotPath, true)
	if err != nil {
		return err
	}
	errs := analysis.OffsetErrors(network, s, progress)
	if skipped := len(s.Frames) - len(errs); skipped > 0 {
		log.Warnf("skipped %d frames with unknown links or out-of-range offsets", skipped)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating position error output: %v", err)
	}
	defer f.Close()
	return analysis.WritePositionErrors(f, errs)
}

// AnalyzeConsistency checks hourly vehicle mappings against the
// emission heatmaps of the same hours.
func AnalyzeConsistency(networkPath, mappingsDir, emissionsDir string, day int, hours []int, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	loadEntries := func(hour int) ([]mapping.Entry, error) {
		path := filepath.Join(mappingsDir, fmt.Sprintf("hour_%d", hour), "NN_mappings.csv")
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("loopheat: opening mappings: %v", err)
		}
		defer f.Close()
		return mapping.ReadEntries(f)
	}
	loadEmissions := func(hour int) (*loopheat.EmissionsSnapshot, error) {
		path := filepath.Join(emissionsDir, loopheat.EmissionsFileName(day, hour%24))
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("loopheat: opening emissions: %v", err)
		}
		defer f.Close()
		return loopheat.ReadEmissions(f)
	}

	stats, err := analysis.HourlyConsistency(network, hours, loadEntries, loadEmissions)
	if err != nil {
		return err
	}
	progress <- fmt.Sprintf("%05d erroneous entries out of %05d = %2.3f%%\n",
		stats.Err, stats.Total, stats.Rate(stats.Err))
	progress <- fmt.Sprintf("%05d entries with vehicle outside of y-bounds out of %05d = %2.3f%%\n",
		stats.Outside, stats.Total, stats.Rate(stats.Outside))
	return nil
}

// AnalyzeDensity correlates per-building mapped-vehicle density with
// building emission concentration.
func AnalyzeDensity(densityPath, buildingsPath string, progress chan string) error {
	df, err := os.Open(densityPath)
	if err != nil {
		return fmt.Errorf("loopheat: opening densities: %v", err)
	}
	densities, err := heatmap.ReadDensities(df)
	df.Close()
	if err != nil {
		return err
	}
	buildings, err := loadBuildings(buildingsPath)
	if err != nil {
		return err
	}

	xs, ys := analysis.DensitySeries(densities, buildings)
	c, err := analysis.Correlate(xs, ys)
	if err != nil {
		return err
	}
	progress <- fmt.Sprintf("%d buildings with both density and count data\n", c.N)
	progress <- fmt.Sprintf("Pearson correlation: %.4f\n", c.Pearson)
	progress <- fmt.Sprintf("Regression: concentration = %.4f * density + %.4f (R² = %.4f)\n",
		c.Slope, c.Intercept, c.R2)
	return nil
}

// AnalyzeVolume correlates snapshot-derived per-link vehicle counts
// with reported link volumes.
func AnalyzeVolume(networkPath, snapshotPath, volumePath string, progress chan string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	s, err := loadSnapshot(snapshotPath, false)
	if err != nil {
		return err
	}
	vf, err := os.Open(volumePath)
	if err != nil {
		return fmt.Errorf("loopheat: opening link volumes: %v", err)
	}
	vols, err := loopheat.ReadLinkVolumes(vf)
	vf.Close()
	if err != nil {
		return err
	}

	xs, ys := analysis.LinkVolumeSeries(network, s, vols)
	c, err := analysis.Correlate(xs, ys)
	if err != nil {
		return err
	}
	progress <- fmt.Sprintf("%d links with both snapshot and volume data\n", c.N)
	progress <- fmt.Sprintf("Pearson correlation: %.4f\n", c.Pearson)
	progress <- fmt.Sprintf("Regression: counts = %.4f * volume + %.4f (R² = %.4f)\n",
		c.Slope, c.Intercept, c.R2)
	return nil
}

// RenderRoads draws the road network to a PNG file.
func RenderRoads(networkPath, outFile string, width int) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating map output: %v", err)
	}
	defer f.Close()
	return maps.Roads(f, network, width)
}

// RenderHeatmap draws one hour's emission heatmap to a PNG file.
func RenderHeatmap(networkPath, emissionsPath, outFile string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	ef, err := os.Open(emissionsPath)
	if err != nil {
		return fmt.Errorf("loopheat: opening emissions: %v", err)
	}
	emissions, err := loopheat.ReadEmissions(ef)
	ef.Close()
	if err != nil {
		return err
	}
	grid, err := heatmap.Compute(network, emissions)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating map output: %v", err)
	}
	defer f.Close()
	return maps.Heatmap(f, grid, network)
}

// RenderDensity draws a building density choropleth to a PNG file.
func RenderDensity(buildingsPath, outFile string, width int) error {
	buildings, err := loadBuildings(buildingsPath)
	if err != nil {
		return err
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating map output: %v", err)
	}
	defer f.Close()
	return maps.Density(f, buildings, width)
}

// RenderVolume draws the link volume correlation scatter plot to a PNG
// file.
func RenderVolume(networkPath, snapshotPath, volumePath, outFile string) error {
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}
	s, err := loadSnapshot(snapshotPath, false)
	if err != nil {
		return err
	}
	vf, err := os.Open(volumePath)
	if err != nil {
		return fmt.Errorf("loopheat: opening link volumes: %v", err)
	}
	vols, err := loopheat.ReadLinkVolumes(vf)
	vf.Close()
	if err != nil {
		return err
	}

	xs, ys := analysis.LinkVolumeSeries(network, s, vols)
	c, err := analysis.Correlate(xs, ys)
	if err != nil {
		log.Warnf("no regression line: %v", err)
		c = nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("loopheat: creating plot output: %v", err)
	}
	defer f.Close()
	return maps.VolumeScatter(f, xs, ys, c)
}
