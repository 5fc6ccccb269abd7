package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"waterpixels/pkg/config"
	"waterpixels/pkg/intensity"
	"waterpixels/pkg/visualization"
	"waterpixels/pkg/waterpixel"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Input image (PNG, JPEG, ...)")
	outputPath := flag.String("output", "waterpixels.png", "Output boundary image")
	configPath := flag.String("config", "waterpixels.yaml", "Configuration file (defaults are used if missing)")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	sigma := flag.Float64("sigma", 0, "Lattice spacing in pixels")
	k := flag.Float64("k", 0, "Spatial regularization strength")
	cellScale := flag.Float64("cell-scale", 0, "Cell shrink ratio in (0,1] for the marker search")
	blur := flag.Float64("blur", 0, "Gaussian blur sigma applied before segmentation")
	metric := flag.String("metric", "", "Regularization distance: euclidean or chebyshev")
	selection := flag.String("selection", "", "Marker selection: closest or largest")
	gradient := flag.String("gradient", "", "Gradient operator: morphological or sobel")
	partition := flag.String("partition", "", "Nearest-center lookup: grid, bruteforce or kdtree")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: all available)")
	overlay := flag.Bool("overlay", false, "Draw the boundaries over the input image")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory to save intermediary results")
	verbose := flag.Bool("verbose", false, "Log every processing stage")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to create config file: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sigma":
			cfg.Segmentation.Sigma = *sigma
		case "k":
			cfg.Segmentation.K = *k
		case "cell-scale":
			cfg.Segmentation.CellScale = *cellScale
		case "blur":
			cfg.Preprocessing.Blur = *blur
		case "metric":
			cfg.Segmentation.Metric = *metric
		case "selection":
			cfg.Segmentation.Selection = *selection
		case "gradient":
			cfg.Segmentation.Gradient = *gradient
		case "partition":
			cfg.Segmentation.Partition = *partition
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "overlay":
			cfg.Output.Overlay = *overlay
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		case "intermediary-dir":
			cfg.Output.IntermediaryDir = *intermediaryDir
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	params, err := cfg.Params()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	mode, err := cfg.IntensityMode()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	params.Logger = logger

	fmt.Println("================================")
	fmt.Println("WATERPIXELS: SUPERPIXELS FROM A SPATIALLY REGULARIZED WATERSHED")
	fmt.Println("================================")

	src, err := imaging.Open(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open input image: %v", err)
	}

	field, err := intensity.Prepare(src, cfg.Preprocessing.Blur, mode, cfg.Processing.NumCores)
	if err != nil {
		log.Fatalf("Failed to prepare intensity: %v", err)
	}

	fmt.Printf("Segmenting %dx%d image (sigma=%.1f, k=%.1f, cellScale=%.2f)...\n",
		field.Width, field.Height, params.Sigma, params.K, params.CellScale)
	startTime := time.Now()
	res, err := waterpixel.NewPipeline(params).Process(field)
	if err != nil {
		log.Fatalf("Segmentation failed: %v", err)
	}
	processingTime := time.Since(startTime)

	var img image.Image = visualization.BoundaryImage(res.Boundaries)
	if cfg.Output.Overlay {
		if img, err = visualization.Overlay(src, res.Boundaries, visualization.BoundaryColor); err != nil {
			log.Fatalf("Failed to draw overlay: %v", err)
		}
	}
	if err := visualization.SaveImage(img, *outputPath); err != nil {
		log.Fatalf("Failed to save output: %v", err)
	}

	m := res.Metrics
	fmt.Printf("\nSegmentation completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Output saved to: %s\n\n", *outputPath)

	fmt.Printf("Segmentation Metrics:\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Superpixels: %d (%d connected fragments)\n", m.Superpixels, m.Fragments)
	fmt.Printf("Mean area: %.1f px (std %.1f, cv %.3f)\n", m.MeanArea, m.AreaStdDev, m.AreaCV)
	fmt.Printf("Area range: %.0f - %.0f px\n", m.MinArea, m.MaxArea)
	fmt.Printf("Boundary fraction: %.3f\n", m.BoundaryFraction)
	fmt.Printf("Fallback markers: %d\n", m.FallbackMarkers)

	fmt.Println("\nStage timings:")
	for _, st := range res.Timings {
		fmt.Printf("- %-15s %s\n", st.Stage, st.Elapsed.Round(time.Microsecond))
	}

	// Save and list intermediary results if requested
	if cfg.Output.SaveIntermediaryResults {
		if err := visualization.SaveIntermediaryResults(cfg.Output.IntermediaryDir, field, res); err != nil {
			log.Printf("Warning: Failed to save intermediary results: %v", err)
			return
		}
		absDir, _ := filepath.Abs(cfg.Output.IntermediaryDir)
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", absDir)
		fmt.Println("The following stages were saved:")
		fmt.Printf("- %s\n", strings.Join(visualization.Stages, "\n- "))
	}
}

// newLogger builds a development logger when verbose, a production logger otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
