package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"cstomo/pkg/backprojection"
	"cstomo/pkg/config"
	"cstomo/pkg/reconstruction"
	"cstomo/pkg/regression"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	size := flag.Int("size", 0, "Side length of the square phantom")
	dirs := flag.Int("dirs", 0, "Number of projection directions")
	noise := flag.Float64("noise", 0, "Standard deviation of the measurement noise")
	seed := flag.Int64("seed", 0, "Random seed for the phantom and the noise")
	lassoAlpha := flag.Float64("lasso-alpha", 0, "L1 regularization strength")
	ridgeAlpha := flag.Float64("ridge-alpha", 0, "L2 regularization strength")
	ridgeSolver := flag.String("ridge-solver", "", "Ridge solver: auto, cholesky or cg")
	fbp := flag.Bool("fbp", false, "Add a filtered back-projection baseline")
	output := flag.String("output", "", "Output figure filename (PNG)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory to save intermediary results")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use")
	verbose := flag.Bool("verbose", false, "Enable development logging")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Explicitly set flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			cfg.Phantom.Size = *size
		case "dirs":
			cfg.Phantom.Directions = *dirs
		case "noise":
			cfg.Noise.Sigma = *noise
		case "seed":
			cfg.Phantom.Seed = *seed
		case "lasso-alpha":
			cfg.Lasso.Alpha = *lassoAlpha
		case "ridge-alpha":
			cfg.Ridge.Alpha = *ridgeAlpha
		case "ridge-solver":
			cfg.Ridge.Solver = *ridgeSolver
		case "fbp":
			cfg.FBP.Enabled = *fbp
		case "output":
			cfg.Output.Figure = *output
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		case "intermediary-dir":
			cfg.Output.IntermediaryDir = *intermediaryDir
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	fmt.Println("================================")
	fmt.Println("COMPRESSIVE SENSING TOMOGRAPHY RECONSTRUCTION")
	fmt.Println("L1 (Lasso) versus L2 (Ridge) penalization")
	fmt.Println("================================")

	params := &reconstruction.Params{
		Size:                    cfg.Phantom.Size,
		Directions:              cfg.Phantom.Directions,
		Seed:                    cfg.Phantom.Seed,
		Points:                  cfg.Phantom.Points,
		NoiseSigma:              cfg.Noise.Sigma,
		LassoAlpha:              cfg.Lasso.Alpha,
		LassoMaxIter:            cfg.Lasso.MaxIter,
		LassoTol:                cfg.Lasso.Tol,
		RidgeAlpha:              cfg.Ridge.Alpha,
		RidgeSolver:             regression.RidgeSolver(cfg.Ridge.Solver),
		FBP:                     cfg.FBP.Enabled,
		FBPFilter:               backprojection.Filter(cfg.FBP.Filter),
		OutputFile:              cfg.Output.Figure,
		NumCores:                cfg.Processing.NumCores,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		Logger:                  logger,
	}

	reconstructor := reconstruction.NewReconstructor(params)

	fmt.Printf("Reconstructing a %dx%d phantom from %d directions...\n",
		params.Size, params.Size, params.Directions)
	startTime := time.Now()
	if err := reconstructor.Process(); err != nil {
		logger.Error("Reconstruction failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nReconstruction completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Figure saved to: %s\n\n", params.OutputFile)

	metrics := reconstructor.GetMetrics()
	methods := make([]string, 0, len(metrics))
	for method := range metrics {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	fmt.Printf("Validation Metrics:\n")
	fmt.Printf("=======================================\n")
	fmt.Printf("%-8s %10s %8s %8s %8s %12s\n", "method", "RMSE", "SSIM", "MI", "errors", "corner MAE")
	for _, method := range methods {
		m := metrics[method]
		fmt.Printf("%-8s %10.6f %8.3f %8.3f %8d %12.6f\n",
			method, m.RMSE, m.SSIM, m.MutualInformation, m.PixelErrors, m.CornerError)
	}

	if params.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", params.IntermediaryDir)
		fmt.Println("The following stages were saved:")
		fmt.Println("- 01_phantom: Ground-truth phantom")
		fmt.Println("- 02_sinogram: Noisy projection data")
		fmt.Println("- 03_reconstructions: One image per reconstruction method")
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
