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

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/urbanloop/loopheat"
	"github.com/urbanloop/loopheat/heatmap"
	"github.com/urbanloop/loopheat/mapping"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Loopheat.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "RoadNetwork",
			usage: `
              RoadNetwork is the location of the GeoJSON road network file. Link
              coordinates are given in longitude and latitude and are projected
              to UTM zone 16 on load.`,
			shorthand:  "n",
			defaultVal: "Roads.geojson",
			flagsets: []*pflag.FlagSet{recomputeCmd.Flags(), interpolateCmd.Flags(),
				heatmapCmd.PersistentFlags(), analyzeCmd.PersistentFlags(),
				renderRoadsCmd.Flags(), renderHeatmapCmd.Flags(), renderVolumeCmd.Flags()},
		},
		{
			name: "SnapshotDir",
			usage: `
              SnapshotDir is the directory holding the numbered vehicle snapshot
              chunk files (Snapshot_0.csv, Snapshot_1000000.csv, ...).`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags(), recomputeCmd.Flags()},
		},
		{
			name: "SnapshotFile",
			usage: `
              SnapshotFile is the location of a single vehicle snapshot CSV file.`,
			shorthand:  "f",
			defaultVal: "sampled_vehicles.csv",
			flagsets: []*pflag.FlagSet{snapCmd.Flags(), poserrCmd.Flags(),
				volumeCmd.Flags(), renderVolumeCmd.Flags()},
		},
		{
			name: "SnapshotFiles",
			usage: `
              SnapshotFiles lists the vehicle snapshot CSV files to process.`,
			defaultVal: []string{"sampled_vehicles.csv"},
			flagsets:   []*pflag.FlagSet{mapCmd.PersistentFlags()},
		},
		{
			name: "Buildings",
			usage: `
              Buildings is the location of the simplified building CSV file. The
              ninth column, mapped vehicle counts, is read when present.`,
			shorthand:  "b",
			defaultVal: "buildings.csv",
			flagsets: []*pflag.FlagSet{mapCmd.PersistentFlags(), heatmapCmd.PersistentFlags(),
				densityCmd.Flags(), renderDensityCmd.Flags()},
		},
		{
			name: "BuildingFootprints",
			usage: `
              BuildingFootprints is the location of the GeoJSON building footprint
              collection to simplify. Footprints outside the Loop window are
              discarded.`,
			defaultVal: "Buildings.geojson",
			flagsets:   []*pflag.FlagSet{simplifyCmd.Flags()},
		},
		{
			name: "EmissionsFile",
			usage: `
              EmissionsFile is the location of a per-link energy emissions CSV file
              for a single hour.`,
			shorthand:  "e",
			defaultVal: "2017-07-04_08_energy.csv",
			flagsets:   []*pflag.FlagSet{heatmapCmd.PersistentFlags(), renderHeatmapCmd.Flags()},
		},
		{
			name: "EmissionsDir",
			usage: `
              EmissionsDir is the directory holding the per-day, per-hour energy
              emissions CSV files named like 2017-07-04_08_energy.csv.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{diffCmd.Flags(), consistencyCmd.Flags()},
		},
		{
			name: "MappingsDir",
			usage: `
              MappingsDir is the directory holding the hourly vehicle-to-building
              mapping output (hour_8/NN_mappings.csv, ...).`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{consistencyCmd.Flags()},
		},
		{
			name: "VolumeFile",
			usage: `
              VolumeFile is the location of a per-link traffic volume CSV file
              for a single hour.`,
			defaultVal: "2017-07-04_08_volume.csv",
			flagsets:   []*pflag.FlagSet{volumeCmd.Flags(), renderVolumeCmd.Flags()},
		},
		{
			name: "DensityFile",
			usage: `
              DensityFile is the location of a building emission density CSV file
              produced by the heatmap command.`,
			defaultVal: "densities.csv",
			flagsets:   []*pflag.FlagSet{densityCmd.Flags()},
		},
		{
			name: "NetworkPoints",
			usage: `
              NetworkPoints is the location of the interpolated network point CSV
              file produced by 'prep interpolate'.`,
			defaultVal: "network_points.csv",
			flagsets:   []*pflag.FlagSet{snapCmd.Flags()},
		},
		{
			name: "Spacing",
			usage: `
              Spacing is the distance in meters between interpolated points along
              each network link.`,
			defaultVal: 2.5,
			flagsets:   []*pflag.FlagSet{interpolateCmd.Flags()},
		},
		{
			name: "Strategy",
			usage: `
              Strategy selects the vehicle-to-building mapping strategy: 'kdtree'
              for exact nearest neighbors, 'closest' for quadtree-partitioned
              nearest candidates, or 'weighted' for area-weighted quadtree
              candidates.`,
			shorthand:  "s",
			defaultVal: mapping.StrategyKDTree,
			flagsets:   []*pflag.FlagSet{mapCmd.PersistentFlags()},
		},
		{
			name: "SplitThreshold",
			usage: `
              SplitThreshold is the number of agents above which a quadtree cell
              is split into quadrants. It is ignored by the kdtree strategy.`,
			defaultVal: mapping.DefaultSplitThreshold,
			flagsets:   []*pflag.FlagSet{mapCmd.PersistentFlags()},
		},
		{
			name: "FilterOutliers",
			usage: `
              FilterOutliers specifies whether mapping distances outside the Tukey
              fences (k = 1.5) are removed before writing results.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{mapCmd.PersistentFlags()},
		},
		{
			name: "Reports",
			usage: `
              Reports specifies whether 'prep recompute' writes a per-file CSV
              report of every repaired frame alongside the rewritten snapshots.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{recomputeCmd.Flags()},
		},
		{
			name: "Day",
			usage: `
              Day is the July 2017 day of month the emissions files belong to.`,
			defaultVal: heatmap.FirstDay,
			flagsets:   []*pflag.FlagSet{consistencyCmd.Flags()},
		},
		{
			name: "Hours",
			usage: `
              Hours lists the hours of day to check mappings for.`,
			defaultVal: []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17},
			flagsets:   []*pflag.FlagSet{consistencyCmd.Flags()},
		},
		{
			name: "Width",
			usage: `
              Width is the width of rendered map images in pixels. The height
              follows from the Loop raster aspect ratio.`,
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{renderRoadsCmd.Flags(), renderDensityCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the location to write results to.`,
			shorthand:  "o",
			defaultVal: "out.csv",
			flagsets: []*pflag.FlagSet{sampleCmd.Flags(), simplifyCmd.Flags(),
				interpolateCmd.Flags(), snapCmd.Flags(), lastseenCmd.Flags(),
				heatmapCmd.PersistentFlags(), poserrCmd.Flags(),
				renderRoadsCmd.Flags(), renderHeatmapCmd.Flags(),
				renderDensityCmd.Flags(), renderVolumeCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory to write results to.`,
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{recomputeCmd.Flags(), mapCmd.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LOOPHEAT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(sampleCmd)
	Root.AddCommand(prepCmd)
	prepCmd.AddCommand(recomputeCmd)
	prepCmd.AddCommand(simplifyCmd)
	prepCmd.AddCommand(interpolateCmd)
	prepCmd.AddCommand(snapCmd)
	Root.AddCommand(mapCmd)
	mapCmd.AddCommand(lastseenCmd)
	Root.AddCommand(heatmapCmd)
	heatmapCmd.AddCommand(diffCmd)
	Root.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(poserrCmd)
	analyzeCmd.AddCommand(consistencyCmd)
	analyzeCmd.AddCommand(volumeCmd)
	analyzeCmd.AddCommand(densityCmd)
	Root.AddCommand(renderCmd)
	renderCmd.AddCommand(renderRoadsCmd)
	renderCmd.AddCommand(renderHeatmapCmd)
	renderCmd.AddCommand(renderDensityCmd)
	renderCmd.AddCommand(renderVolumeCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Printf(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("loopheat: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "loopheat",
	Short: "A vehicle traffic heat emission model for the Chicago Loop.",
	Long: `Loopheat processes vehicle traffic microsimulation snapshots of the
Chicago Loop into per-link energy emission heatmaps, maps vehicles to
nearby buildings, and analyzes the consistency of the results.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'LOOPHEAT_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Loopheat.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Loopheat v%s\n", loopheat.Version)
	},
	DisableAutoGenTag: true,
}

// sampleCmd deterministically samples the snapshot dataset.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample the snapshot dataset.",
	Long: `sample draws a fixed-seed 5% sample of the frames in every snapshot
chunk file and writes the merged, time-ordered sample to a single CSV file.
The sample is deterministic: running it twice produces identical output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return Sample(
			os.ExpandEnv(Cfg.GetString("SnapshotDir")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare input datasets.",
	Long: `prep validates and transforms raw input datasets. Use the subcommands
specified below to choose a preparation step.`,
	DisableAutoGenTag: true,
}

// recomputeCmd validates and repairs snapshot coordinates.
var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Validate and repair snapshot positions.",
	Long: `recompute checks the recorded coordinates of every snapshot frame
against the frame's link geometry, rewrites frames whose coordinates fall
more than 30 cell widths outside the link's first segment, and prints the
observed error rates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return Recompute(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("SnapshotDir")),
			os.ExpandEnv(Cfg.GetString("OutputDir")),
			Cfg.GetBool("Reports"),
			outChan)
	},
	DisableAutoGenTag: true,
}

// simplifyCmd reduces building footprints to centroid records.
var simplifyCmd = &cobra.Command{
	Use:   "simplify",
	Short: "Simplify building footprints.",
	Long: `simplify streams a GeoJSON building footprint collection, discards
footprints outside the Loop window, and writes one CSV record per building
holding its centroid, shoelace area, and bounding box.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return Simplify(
			os.ExpandEnv(Cfg.GetString("BuildingFootprints")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// interpolateCmd writes evenly spaced points along every link.
var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "Interpolate points along network links.",
	Long: `interpolate writes points spaced at a fixed distance along every road
network link, including each link's final endpoint. The output feeds
'prep snap'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return InterpolateNetwork(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			Cfg.GetFloat64("Spacing"),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// snapCmd snaps trace points onto the network.
var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Snap trace points to the network.",
	Long: `snap matches every snapshot frame to its nearest interpolated network
point and writes the snapped coordinates alongside the originals. Frames
with no network point within 20 meters are dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return SnapTraces(
			os.ExpandEnv(Cfg.GetString("NetworkPoints")),
			os.ExpandEnv(Cfg.GetString("SnapshotFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// mapCmd runs the vehicle→building mapping pipeline.
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map vehicles to nearby buildings.",
	Long: `map assigns every on-the-hour vehicle position to a nearby building
using the selected strategy, and writes per-hour mapping and per-building
count files to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return RunMapping(
			expandStringSlice(Cfg.GetStringSlice("SnapshotFiles")),
			os.ExpandEnv(Cfg.GetString("Buildings")),
			os.ExpandEnv(Cfg.GetString("OutputDir")),
			Cfg.GetString("Strategy"),
			Cfg.GetInt("SplitThreshold"),
			Cfg.GetBool("FilterOutliers"),
			outChan)
	},
	DisableAutoGenTag: true,
}

// lastseenCmd reduces snapshots to the latest frame per vehicle.
var lastseenCmd = &cobra.Command{
	Use:   "lastseen",
	Short: "Keep each vehicle's latest frame.",
	Long: `lastseen reduces the snapshot files to the single most recent frame of
every vehicle and writes the result as one CSV file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return RunLastSeen(
			expandStringSlice(Cfg.GetStringSlice("SnapshotFiles")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// heatmapCmd rasterizes emissions and reports building densities.
var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Compute an emission heatmap.",
	Long: `heatmap rasterizes one hour's per-link energy emissions onto the
400x550 Loop grid, spreading each link's emission to cells within the
cutoff radius, and writes the per-building emission densities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return HeatmapDensity(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("EmissionsFile")),
			os.ExpandEnv(Cfg.GetString("Buildings")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// diffCmd compares heatmaps across days.
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare heatmaps across days.",
	Long: `diff computes the hourly emission heatmap of every day in the study
week and writes the Frobenius distance between each pair of days at each
hour. Missing emissions files are skipped with a note.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return HeatmapDiff(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("EmissionsDir")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze dataset quality.",
	Long: `analyze checks the internal consistency of the datasets and of
results produced by the other commands. Use the subcommands specified below
to choose an analysis.`,
	DisableAutoGenTag: true,
}

// poserrCmd reports offset-reconstruction position errors.
var poserrCmd = &cobra.Command{
	Use:   "poserr",
	Short: "Report position reconstruction errors.",
	Long: `poserr reconstructs every frame's position from its link and offset
and writes the distance between the reconstructed and the recorded
position.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return AnalyzePositionErrors(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("SnapshotFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// consistencyCmd checks mappings against heatmaps.
var consistencyCmd = &cobra.Command{
	Use:   "consistency",
	Short: "Check mappings against heatmaps.",
	Long: `consistency verifies that every mapped vehicle position lies close to
a heatmap cell of its link, and prints the rate of entries more than 50
cells away from their link's nearest rasterized cell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		hours, err := cast.ToIntSliceE(Cfg.Get("Hours"))
		if err != nil {
			return fmt.Errorf("loopheat: reading consistency 'Hours': %v", err)
		}
		return AnalyzeConsistency(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("MappingsDir")),
			os.ExpandEnv(Cfg.GetString("EmissionsDir")),
			Cfg.GetInt("Day"),
			hours,
			outChan)
	},
	DisableAutoGenTag: true,
}

// volumeCmd correlates snapshot counts with link volumes.
var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Correlate snapshot counts with link volumes.",
	Long: `volume counts the distinct vehicles seen on every link in a snapshot,
pairs the counts with the reported link volumes, and prints the Pearson
correlation and linear regression of the two series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return AnalyzeVolume(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("SnapshotFile")),
			os.ExpandEnv(Cfg.GetString("VolumeFile")),
			outChan)
	},
	DisableAutoGenTag: true,
}

// densityCmd correlates vehicle density with emission concentration.
var densityCmd = &cobra.Command{
	Use:   "density",
	Short: "Correlate vehicle density with emission concentration.",
	Long: `density pairs each building's area-normalized mapped-vehicle count
with its emission concentration and prints the Pearson correlation and
linear regression of the two series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return AnalyzeDensity(
			os.ExpandEnv(Cfg.GetString("DensityFile")),
			os.ExpandEnv(Cfg.GetString("Buildings")),
			outChan)
	},
	DisableAutoGenTag: true,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render maps and plots.",
	Long: `render draws PNG maps and plots of the datasets and results. Use the
subcommands specified below to choose an image.`,
	DisableAutoGenTag: true,
}

var renderRoadsCmd = &cobra.Command{
	Use:   "roads",
	Short: "Draw the road network.",
	Long:  `roads draws the road network colored by functional class.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RenderRoads(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			Cfg.GetInt("Width"))
	},
	DisableAutoGenTag: true,
}

var renderHeatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Draw an emission heatmap.",
	Long: `heatmap draws one hour's emission heatmap with the road network
overlaid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RenderHeatmap(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("EmissionsFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")))
	},
	DisableAutoGenTag: true,
}

var renderDensityCmd = &cobra.Command{
	Use:   "density",
	Short: "Draw a building density choropleth.",
	Long: `density draws building bounding boxes colored by their normalized
mapped vehicle counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RenderDensity(
			os.ExpandEnv(Cfg.GetString("Buildings")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			Cfg.GetInt("Width"))
	},
	DisableAutoGenTag: true,
}

var renderVolumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Plot the link volume correlation.",
	Long: `volume plots snapshot vehicle counts against reported link volumes
with the fitted regression line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RenderVolume(
			os.ExpandEnv(Cfg.GetString("RoadNetwork")),
			os.ExpandEnv(Cfg.GetString("SnapshotFile")),
			os.ExpandEnv(Cfg.GetString("VolumeFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")))
	},
	DisableAutoGenTag: true,
}

// expandStringSlice expands any environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}
