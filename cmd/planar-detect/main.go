package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/planar-detector/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func printUsage() {
	fmt.Println("planar-detect - locate a trained planar pattern in images")
	fmt.Println()
	fmt.Println("Usage: planar-detect [--config file] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  detect [--max-points N] [--matches out.png] <model> <image>...")
	fmt.Println("                              Detect the pattern in each image")
	fmt.Println("  inspect [model]             Print the contents of a model file")
	fmt.Println("  test [--samples N] [model]  Measure the classifier recognition rate")
	fmt.Println("  points [model] <out.png>    Draw the model points on the model image")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config file    YAML settings file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PLANAR_LOG_LEVEL=debug       Log level (error, warning, info, debug, verbose)")
	fmt.Println("  PLANAR_MODEL=file            Default model file")
	fmt.Println("  PLANAR_MAX_POINTS=N          Candidate points per image")
	fmt.Println("  PLANAR_TEST_SAMPLES=N        Views used by the test command")
	fmt.Println("  PLANAR_ESTIMATOR=ransac      Homography estimator (ransac, opencv)")
	fmt.Println("  PLANAR_EXTRACTOR=shi-tomasi  Corner extractor (shi-tomasi, opencv)")
	fmt.Println("  PLANAR_MATCHES_OUTPUT=file   Write a matches image for each detection")
}

func main() {
	// Handle --version and -h flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("planar-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	logger := logging.New("main")
	logger.Debugf("planar-detect v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
