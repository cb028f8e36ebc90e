package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"twimap/internal/models"
	"twimap/internal/monitoring"
	"twimap/internal/tckio"
	"twimap/pkg/batch"
	"twimap/pkg/config"
	"twimap/pkg/mapping"
	"twimap/pkg/tractstat"
	"twimap/pkg/visualization"
	"twimap/pkg/voxel"
)

func main() {
	configPath := flag.String("config", "twimap.yaml", "YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	tracksPath := flag.String("tracks", "", "Plain-text streamline file")
	outputPath := flag.String("output", "twi.raw", "Output map (headerless float32)")
	contrast := flag.String("contrast", "", "Override mapping.contrast (tdi, endpoint, length, invlength, scalar_map, scalar_map_count, fod_amp, curvature)")
	stat := flag.String("stat", "", "Override mapping.statistic")
	decoration := flag.String("decoration", "", "Override mapping.decoration (none, direction, dixel, tod)")
	image := flag.String("image", "", "Override image.path")
	workers := flag.Int("workers", 0, "Override processing.numWorkers")
	profile := flag.Int("profile", -1, "Plot the per-point factors of this streamline index to <output>.profile.png")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *tracksPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := applyOverrides(cfg, *contrast, *stat, *decoration, *image, *workers); err != nil {
		log.Fatalf("Invalid option: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.Output.Verbose {
		monitoring.SetLogger(nil)
	}

	tcks, err := tckio.Load(*tracksPath)
	if err != nil {
		log.Fatalf("Failed to read streamlines: %v", err)
	}
	fmt.Printf("Read %s streamlines from %s\n", humanize.Comma(int64(len(tcks))), *tracksPath)

	mapper, err := cfg.NewMapper()
	if err != nil {
		log.Fatalf("Failed to create mapper: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Mapping with contrast %v, statistic %v, decoration %v...\n",
		cfg.Mapping.Contrast, cfg.Mapping.Statistic, cfg.Mapping.Decoration)
	startTime := time.Now()
	twi := batch.NewTWIMap(cfg.Grid.Header())
	stats, err := batch.Run(ctx, mapper, tcks, twi, cfg.BatchParams())
	if err != nil {
		log.Fatalf("Mapping failed: %v", err)
	}
	fmt.Printf("Mapped %s streamlines (%d skipped) into %s voxels in %.2f seconds\n",
		humanize.Comma(int64(stats.Mapped)), stats.Skipped, humanize.Comma(int64(twi.Len())),
		time.Since(startTime).Seconds())

	vol, err := twi.Volume(cfg.Output.Statistic, cfg.Grid.Size(), cfg.Grid.Offset())
	if err != nil {
		log.Fatalf("Failed to render map: %v", err)
	}
	if err := models.SaveRaw(*outputPath, vol); err != nil {
		log.Fatalf("Failed to save map: %v", err)
	}
	fmt.Printf("Map saved to: %s\n", *outputPath)

	var colour *models.Volume
	if cfg.Output.Colour {
		colour = twi.ColourVolume(cfg.Grid.Size(), cfg.Grid.Offset())
		colourPath := strings.TrimSuffix(*outputPath, filepath.Ext(*outputPath)) + ".rgb.raw"
		if err := models.SaveRaw(colourPath, colour); err != nil {
			log.Fatalf("Failed to save colour map: %v", err)
		}
		fmt.Printf("Colour map saved to: %s\n", colourPath)
	}

	if cfg.Output.SlicesDir != "" {
		saveSlices(cfg, vol, colour)
	}

	if *profile >= 0 {
		if err := plotProfile(mapper, tcks, *profile, *outputPath); err != nil {
			log.Printf("Warning: Failed to plot profile: %v", err)
		}
	}
}

func applyOverrides(cfg *config.Config, contrast, stat, decoration, image string, workers int) error {
	if contrast != "" {
		c, err := mapping.ParseContrast(contrast)
		if err != nil {
			return err
		}
		cfg.Mapping.Contrast = c
	}
	if stat != "" {
		s, err := tractstat.ParseStatistic(stat)
		if err != nil {
			return err
		}
		cfg.Mapping.Statistic = s
	}
	if decoration != "" {
		d, err := voxel.ParseDecoration(decoration)
		if err != nil {
			return err
		}
		cfg.Mapping.Decoration = d
	}
	if image != "" {
		cfg.Image.Path = image
	}
	if workers > 0 {
		cfg.Processing.NumWorkers = workers
	}
	return nil
}

func saveSlices(cfg *config.Config, vol, colour *models.Volume) {
	viewer := visualization.NewViewer(vol)
	viewer.Zoom = cfg.Output.Zoom
	for _, axis := range []string{"x", "y", "z"} {
		axisDir := filepath.Join(cfg.Output.SlicesDir, axis)
		fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)
		if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
			log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
		}
	}

	if colour == nil {
		return
	}
	rgb := visualization.NewViewer(colour)
	rgb.Zoom = cfg.Output.Zoom
	mid := cfg.Grid.Dims[2] / 2
	img, err := rgb.ExtractColourSlice("z", mid)
	if err != nil {
		log.Printf("Warning: Failed to extract colour slice: %v", err)
		return
	}
	filename := filepath.Join(cfg.Output.SlicesDir, fmt.Sprintf("colour_z_%03d.jpg", mid))
	if err := rgb.SaveSlice(img, filename); err != nil {
		log.Printf("Warning: Failed to save colour slice: %v", err)
	}
}

func plotProfile(mapper *mapping.Mapper, tcks []models.Streamline, index int, outputPath string) error {
	if index >= len(tcks) {
		return fmt.Errorf("streamline %d out of range (have %d)", index, len(tcks))
	}
	tck := tcks[index]
	factor, err := mapper.Factor(tck)
	if err != nil {
		return err
	}
	values := mapper.Factors()
	if len(values) != len(tck) {
		return fmt.Errorf("contrast %v has no per-point factors", mapper.Options().Contrast)
	}

	filename := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".profile.png"
	title := fmt.Sprintf("Streamline %d (factor %.4g)", index, factor)
	series := []visualization.Series{{Label: mapper.Options().Contrast.String(), Values: values}}
	if err := visualization.PlotProfile(tck, title, series, filename); err != nil {
		return err
	}
	fmt.Printf("Profile plot saved to: %s\n", filename)
	return nil
}
