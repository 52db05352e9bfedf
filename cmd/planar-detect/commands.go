package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ironsheep/planar-detector/internal/config"
	"github.com/ironsheep/planar-detector/internal/detector"
	"github.com/ironsheep/planar-detector/internal/extractor"
	"github.com/ironsheep/planar-detector/internal/homography"
	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/logging"
	"github.com/ironsheep/planar-detector/internal/render"
)

var errUsage = errors.New("usage: planar-detect [--config file] <detect|inspect|test|points> ...")

// run parses the global flags, loads the configuration and dispatches to a
// command. Results go to out; logs go to stderr.
func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("planar-detect", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", "", "YAML settings file")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if level, ok := logging.ParseSeverity(cfg.LogLevel); ok {
		logging.SetLevel(level)
	}

	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	switch rest[0] {
	case "detect":
		return runDetect(cfg, rest[1:], out)
	case "inspect":
		return runInspect(cfg, rest[1:], out)
	case "test":
		return runTest(cfg, rest[1:], out)
	case "points":
		return runPoints(cfg, rest[1:], out)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
}

// newDetector builds a detector using the configured estimator and
// extractor and loads the model file.
func newDetector(cfg *config.Config, model string) (*detector.Detector, error) {
	if model == "" {
		model = cfg.ModelPath
	}
	if model == "" {
		return nil, fmt.Errorf("%w: no model file given", errUsage)
	}

	var opts []detector.Option
	if cfg.Estimator == config.EstimatorOpenCV {
		if !homography.OpenCVAvailable {
			return nil, errors.New("the opencv estimator needs a build with the gocv tag")
		}
		opts = append(opts, detector.WithEstimator(homography.NewOpenCVEstimator()))
	}
	if cfg.Extractor == config.ExtractorOpenCV {
		if !extractor.OpenCVAvailable {
			return nil, errors.New("the opencv extractor needs a build with the gocv tag")
		}
		opts = append(opts, detector.WithExtractor(extractor.NewOpenCVExtractor()))
	}

	d := detector.New(opts...)
	if err := d.LoadFile(model); err != nil {
		return nil, err
	}
	d.SetMaxPointsToDetect(cfg.MaxPointsToDetect)
	return d, nil
}

// splitModel returns the model path and the remaining positional arguments.
// The model may be omitted when the configuration names one.
func splitModel(cfg *config.Config, args []string, wantRest int) (string, []string) {
	if len(args) > wantRest || cfg.ModelPath == "" {
		if len(args) == 0 {
			return "", nil
		}
		return args[0], args[1:]
	}
	return cfg.ModelPath, args
}

func runDetect(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	maxPoints := fs.Int("max-points", cfg.MaxPointsToDetect, "candidate points per image")
	matches := fs.String("matches", cfg.MatchesOutput, "matches image output")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	positional := fs.Args()
	if len(positional) < 2 {
		return fmt.Errorf("%w: detect needs a model and at least one image", errUsage)
	}
	images := positional[1:]

	d, err := newDetector(cfg, positional[0])
	if err != nil {
		return err
	}
	d.SetMaxPointsToDetect(*maxPoints)

	cache := imaging.NewImageCache()
	for i, path := range images {
		img, err := cache.Load(path)
		if err != nil {
			return err
		}

		found, err := d.Detect(img)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if found {
			c := d.DetectedCorners()
			fmt.Fprintf(out, "%s: detected, %d matches, corners", path, d.NumberOfMatches())
			for _, p := range c {
				fmt.Fprintf(out, " (%.1f, %.1f)", p.X, p.Y)
			}
			fmt.Fprintln(out)
		} else {
			fmt.Fprintf(out, "%s: not detected\n", path)
		}

		if *matches != "" {
			target := numberedPath(*matches, i, len(images))
			if err := render.Save(render.Matches(d), target); err != nil {
				return err
			}
		}
	}
	return nil
}

// numberedPath inserts the image index before the extension when several
// images share one output path.
func numberedPath(path string, i, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i, ext)
}

func runInspect(cfg *config.Config, args []string, out io.Writer) error {
	model, _ := splitModel(cfg, args, 0)
	d, err := newDetector(cfg, model)
	if err != nil {
		return err
	}

	img := d.ModelImage()
	fmt.Fprintf(out, "label:            %s\n", d.Label())
	fmt.Fprintf(out, "corners:         ")
	for _, c := range d.ModelCorners() {
		fmt.Fprintf(out, " (%d, %d)", c.X, c.Y)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "patch size:       %d\n", d.PatchSize())
	fmt.Fprintf(out, "radius:           %d\n", d.Radius())
	fmt.Fprintf(out, "octaves:          %d\n", d.Octaves())
	fmt.Fprintf(out, "recognition rate: %g\n", d.MeanRecognitionRate())
	fmt.Fprintf(out, "model image:      %dx%d %s x%d\n", img.Width, img.Height, img.Depth, img.Channels)
	fmt.Fprintf(out, "model points:     %d\n", len(d.ModelPoints()))
	return nil
}

func runTest(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	samples := fs.Int("samples", cfg.TestSamples, "number of warped views")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	model, _ := splitModel(cfg, fs.Args(), 0)
	d, err := newDetector(cfg, model)
	if err != nil {
		return err
	}
	rate, err := d.Test(*samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "recognition rate over %d samples: %.4f\n", *samples, rate)
	return nil
}

func runPoints(cfg *config.Config, args []string, out io.Writer) error {
	model, rest := splitModel(cfg, args, 1)
	if len(rest) != 1 {
		return fmt.Errorf("%w: points needs an output file", errUsage)
	}
	d, err := newDetector(cfg, model)
	if err != nil {
		return err
	}
	if err := render.Save(render.ModelPoints(d.ModelImage(), d.ModelPoints(), d.PatchSize()), rest[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d model points to %s\n", len(d.ModelPoints()), rest[0])
	return nil
}
