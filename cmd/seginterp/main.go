package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"seginterp/internal/models"
	"seginterp/pkg/config"
	"seginterp/pkg/maskio"
	"seginterp/pkg/metrics"
	"seginterp/pkg/segmentation"
	"seginterp/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing the 2D mask slices")
	outputDir := flag.String("output", "interpolated", "Directory to write the filled mask slices to")
	configPath := flag.String("config", "seginterp.yaml", "Configuration file")
	orientation := flag.String("orientation", "", "Orientation to fill: x, y, z or sagittal, frontal, transversal (overrides config)")
	timeStep := flag.Int("timestep", -1, "Time step to fill (overrides config)")
	evaluate := flag.Bool("evaluate", false, "Print a leave-one-out evaluation before filling")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	extractSlices := flag.Bool("extract-slices", false, "Render the filled volume along all orientations")
	slicesDir := flag.String("slices-dir", "rendered_slices", "Directory for rendered slices")
	scale := flag.Int("scale", 1, "Magnification of rendered slices")
	flag.Parse()
	defer glog.Flush()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			glog.Exitf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		glog.Exitf("Failed to load config: %v", err)
	}
	if *orientation != "" {
		cfg.Segmentation.Orientation = *orientation
	}
	if *timeStep >= 0 {
		cfg.Segmentation.TimeStep = *timeStep
	}
	if *evaluate {
		cfg.Output.Evaluate = true
	}
	if err := cfg.Validate(); err != nil {
		glog.Exitf("Invalid configuration: %v", err)
	}

	o, _ := models.ParseOrientation(cfg.Segmentation.Orientation)
	t := cfg.Segmentation.TimeStep
	opts, _ := cfg.ControllerOptions()

	vol, err := maskio.LoadStack(*inputDir)
	if err != nil {
		glog.Exitf("Failed to load mask stack: %v", err)
	}
	if t >= vol.TimeSteps {
		glog.Exitf("Time step %d is out of range, the stack has %d time steps", t, vol.TimeSteps)
	}
	if cfg.Output.Verbose {
		fmt.Printf("Loaded %dx%dx%d volume (%s voxels, %s foreground)\n",
			vol.Dims[0], vol.Dims[1], vol.Dims[2],
			humanize.Comma(int64(vol.TimeStepVoxels())), humanize.Comma(int64(vol.ForegroundVoxels(t))))
	}

	if cfg.Output.Evaluate {
		report, err := metrics.Evaluate(vol, o, t, opts)
		if err != nil {
			glog.Exitf("Evaluation failed: %v", err)
		}
		fmt.Printf("Leave-one-out evaluation: %s\n", report)
	}

	session, err := segmentation.NewSession(vol, opts, cfg.Segmentation.LabelValue)
	if err != nil {
		glog.Exitf("Failed to start session: %v", err)
	}

	before := session.Controller().ContentSlices(o, t)
	startTime := time.Now()
	written, err := session.AcceptAll(o, t)
	if err != nil {
		glog.Exitf("Interpolation failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("Filled %d %s slices between %d content slices in %s\n",
		written, o, len(before), elapsed.Round(time.Millisecond))
	if cfg.Output.Verbose {
		fmt.Printf("Foreground voxels after filling: %s\n", humanize.Comma(int64(vol.ForegroundVoxels(t))))
	}

	paths, err := maskio.SaveStack(vol, t, *outputDir)
	if err != nil {
		glog.Exitf("Failed to save mask stack: %v", err)
	}
	fmt.Printf("Wrote %d slices to %s\n", len(paths), *outputDir)

	if *extractSlices {
		viewer, err := visualization.NewViewer(vol, session.Controller(), t, *scale)
		if err != nil {
			glog.Exitf("Failed to create viewer: %v", err)
		}
		for _, other := range models.Orientations {
			dir := filepath.Join(*slicesDir, other.String())
			fmt.Printf("Saving %s slices to: %s\n", other, dir)
			if err := viewer.SaveSliceSequence(other, dir); err != nil {
				glog.Warningf("Failed to save %s slices: %v", other, err)
			}
		}
	}
}
