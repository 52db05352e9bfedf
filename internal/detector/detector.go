// Package detector locates a trained planar pattern in gray images.
//
// A Detector is loaded from a model file holding the reference image, its
// four corners, the model points and a trained classifier. Each call to
// Detect extracts candidate points from the input, classifies them against
// the model points, keeps the best candidate per model point, fits a
// homography with RANSAC and re-verifies every match against it.
//
// A Detector is a single mutable session and must not be used from more
// than one goroutine at a time.
package detector

import (
	"errors"
	"image"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/planar-detector/internal/extractor"
	"github.com/ironsheep/planar-detector/internal/generator"
	"github.com/ironsheep/planar-detector/internal/homography"
	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/logging"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

var logger = logging.New("detector")

var (
	// ErrWrongImageFormat is returned by Detect for anything but a
	// single-channel 8-bit unsigned image.
	ErrWrongImageFormat = errors.New("detector: wrong image format")

	// ErrNotLoaded is returned when a detector is used before a model was
	// loaded.
	ErrNotLoaded = errors.New("detector: no model loaded")

	// ErrNoViewGenerator is returned by Test when the model image has a
	// layout that cannot be reduced to gray, so no views can be generated.
	ErrNoViewGenerator = errors.New("detector: model image cannot be warped")
)

// Fixed detection policy.
const (
	DefaultMaxPointsToDetect = 500

	ransacThreshold   = 10.0
	ransacIterations  = 1500
	ransacConfidence  = 0.99
	minInliers        = 10
	maxVerifyDistance = 10.0
)

// ModelPoint is a keypoint of the reference image. Its ClassIndex equals its
// position in the model. Score and Correspondent describe the best match
// found by the last Detect call: Correspondent indexes DetectedPoints and is
// -1 when the point was not matched.
type ModelPoint struct {
	keypoint.Keypoint
	Correspondent int
}

// Detector is the detection pipeline controller.
type Detector struct {
	label        string
	modelCorners [4]image.Point
	patchSize    int
	radius       int
	octaves      int
	recognition  float32
	modelImage   *imaging.Image
	modelPoints  []ModelPoint
	loaded       bool
	canWarp      bool

	maxPoints   int
	detected    []keypoint.Keypoint
	numDetected int
	pyramid     *pyramid.Pyramid
	h           homography.Homography
	corners     [4]r2.Point
	matches     int
	found       bool

	extractor      PointExtractor
	classifier     PointClassifier
	loadClassifier ClassifierLoader
	generator      ImageGenerator
	estimator      HomographyEstimator
}

// Option configures a Detector.
type Option func(*Detector)

// WithExtractor replaces the default corner extractor.
func WithExtractor(e PointExtractor) Option {
	return func(d *Detector) { d.extractor = e }
}

// WithEstimator replaces the default pure-Go RANSAC estimator.
func WithEstimator(e HomographyEstimator) Option {
	return func(d *Detector) { d.estimator = e }
}

// WithClassifierLoader replaces the ferns classifier parser.
func WithClassifierLoader(l ClassifierLoader) Option {
	return func(d *Detector) { d.loadClassifier = l }
}

// WithGenerator replaces the default affine view generator.
func WithGenerator(g ImageGenerator) Option {
	return func(d *Detector) { d.generator = g }
}

// New returns an unloaded detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		maxPoints:      DefaultMaxPointsToDetect,
		h:              homography.Identity(),
		extractor:      extractor.New(),
		estimator:      homography.NewEstimator(),
		loadClassifier: loadFern,
		generator:      generator.New(generator.DefaultSeed),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetMaxPointsToDetect changes how many candidate points later Detect
// calls extract.
func (d *Detector) SetMaxPointsToDetect(max int) {
	if max < 0 {
		max = 0
	}
	d.maxPoints = max
}

// MaxPointsToDetect returns the extraction budget.
func (d *Detector) MaxPointsToDetect() int { return d.maxPoints }

// Detect looks for the pattern in img, which must be gray 8-bit. It reports
// whether the pattern was found. Failing to find the pattern is not an
// error; the homography and corners then keep their previous values.
func (d *Detector) Detect(img *imaging.Image) (bool, error) {
	if !img.IsGray8() {
		if img == nil {
			logger.Errorf("wrong image format: nil image")
		} else {
			logger.Errorf("wrong image format nChannels = %d, depth = %s", img.Channels, img.Depth)
		}
		return false, ErrWrongImageFormat
	}
	if !d.loaded {
		return false, ErrNotLoaded
	}

	d.pyramid.SetImage(img)
	d.detectPoints()
	d.matchPoints()

	d.found = d.estimateHomography()
	d.matches = 0
	if !d.found {
		return false, nil
	}

	for i, c := range d.modelCorners {
		d.corners[i] = d.h.Transform(r2.Point{X: float64(c.X), Y: float64(c.Y)})
	}
	d.verifyMatches()

	logger.Debugf("pattern detected with %d matches", d.matches)
	return true, nil
}

func (d *Detector) detectPoints() {
	if cap(d.detected) < d.maxPoints {
		d.detected = make([]keypoint.Keypoint, d.maxPoints)
	}
	d.detected = d.detected[:d.maxPoints]
	d.numDetected = d.extractor.Detect(d.pyramid, d.detected)
	if d.numDetected > d.maxPoints {
		d.numDetected = d.maxPoints
	}
}

// matchPoints keeps, for every model point, the detected point classified
// as it with the highest confidence. Equal confidences keep the first seen.
func (d *Detector) matchPoints() {
	for i := range d.modelPoints {
		d.modelPoints[i].Score = 0
		d.modelPoints[i].Correspondent = -1
	}

	for i := 0; i < d.numDetected; i++ {
		k := &d.detected[i]
		d.classifier.Recognize(d.pyramid, k)
		if k.ClassIndex < 0 || k.ClassIndex >= len(d.modelPoints) {
			continue
		}
		score := float32(math.Exp(float64(k.Score)))
		mp := &d.modelPoints[k.ClassIndex]
		if mp.Score < score {
			mp.Score = score
			mp.Correspondent = i
		}
	}
}

// estimateHomography fits H to every matched model point and accepts it
// only with more than minInliers inliers.
func (d *Detector) estimateHomography() bool {
	d.estimator.ResetCorrespondences(len(d.modelPoints))
	for _, mp := range d.modelPoints {
		if mp.Score <= 0 {
			continue
		}
		c := d.detected[mp.Correspondent]
		d.estimator.AddCorrespondence(
			float64(mp.FrU()), float64(mp.FrV()),
			float64(c.FrU()), float64(c.FrV()),
			float64(mp.Score))
	}

	h := d.h
	inliers := d.estimator.Ransac(&h, ransacThreshold, ransacIterations, ransacConfidence, true)
	logger.Verbosef("%d inliers", inliers)
	if inliers <= minInliers {
		return false
	}
	d.h = h
	return true
}

// verifyMatches drops matches that H reprojects more than
// maxVerifyDistance pixels away from their detected point.
func (d *Detector) verifyMatches() {
	for i := range d.modelPoints {
		mp := &d.modelPoints[i]
		if mp.Score <= 0 {
			continue
		}
		c := d.detected[mp.Correspondent]
		u, v := d.h.TransformPoint(float64(mp.FrU()), float64(mp.FrV()))
		du := u - float64(c.FrU())
		dv := v - float64(c.FrV())
		if du*du+dv*dv > maxVerifyDistance*maxVerifyDistance {
			mp.Score = 0
		} else {
			d.matches++
		}
	}
}

// Test estimates the classifier's recognition rate on samples random
// views of the model image.
func (d *Detector) Test(samples int) (float32, error) {
	if !d.loaded {
		return 0, ErrNotLoaded
	}
	if !d.canWarp {
		return 0, ErrNoViewGenerator
	}
	points := make([]keypoint.Keypoint, len(d.modelPoints))
	for i, mp := range d.modelPoints {
		points[i] = mp.Keypoint
	}
	rate := d.classifier.Test(points, d.octaves, d.radius, samples, d.generator)
	logger.Infof("Rate: %g", rate)
	return rate, nil
}

// Label returns the model's identifying label.
func (d *Detector) Label() string { return d.label }

// Loaded reports whether a model has been loaded.
func (d *Detector) Loaded() bool { return d.loaded }

// ModelCorners returns the reference corners in model image pixels.
func (d *Detector) ModelCorners() [4]image.Point { return d.modelCorners }

// DetectedCorners returns the reference corners mapped into the image by
// the last accepted homography.
func (d *Detector) DetectedCorners() [4]r2.Point { return d.corners }

// Homography returns the last accepted model-to-image homography.
func (d *Detector) Homography() homography.Homography { return d.h }

// PatternDetected reports the outcome of the last Detect call.
func (d *Detector) PatternDetected() bool { return d.found }

// NumberOfMatches returns how many matches survived verification in the
// last successful Detect call.
func (d *Detector) NumberOfMatches() int { return d.matches }

// PatchSize returns the classifier patch width.
func (d *Detector) PatchSize() int { return d.patchSize }

// Radius returns the extractor radius.
func (d *Detector) Radius() int { return d.radius }

// Octaves returns the number of pyramid octaves.
func (d *Detector) Octaves() int { return d.octaves }

// MeanRecognitionRate returns the rate stored in the model.
func (d *Detector) MeanRecognitionRate() float32 { return d.recognition }

// ModelImage returns the reference image.
func (d *Detector) ModelImage() *imaging.Image { return d.modelImage }

// ModelPoints returns the model points. The slice is owned by the detector.
func (d *Detector) ModelPoints() []ModelPoint { return d.modelPoints }

// DetectedPoints returns the points extracted by the last Detect call.
func (d *Detector) DetectedPoints() []keypoint.Keypoint { return d.detected[:d.numDetected] }

// InputImage returns the image passed to the last Detect call.
func (d *Detector) InputImage() *imaging.Image {
	if d.pyramid == nil {
		return nil
	}
	return d.pyramid.Original()
}

// Matches returns the model points with a positive score paired with their
// detected points. After a successful Detect these are the verified matches.
func (d *Detector) Matches() []keypoint.Match {
	var out []keypoint.Match
	for _, mp := range d.modelPoints {
		if mp.Score <= 0 || mp.Correspondent < 0 {
			continue
		}
		out = append(out, keypoint.Match{
			Model:    mp.Keypoint,
			Detected: d.detected[mp.Correspondent],
			Score:    mp.Score,
		})
	}
	return out
}
