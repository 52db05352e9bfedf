// Package render draws debug images of a detector's state: the model
// points on the reference image and the matches found in an input image.
// It only reads public detector state and never takes part in detection.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/planar-detector/internal/detector"
	pimaging "github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/logging"
)

var logger = logging.New("render")

var (
	pointColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	crossColor = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	quadColor  = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	labelFG    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBG    = color.NRGBA{R: 0, G: 0, B: 0, A: 180}
)

// Scene is the detector state needed to draw matches.
type Scene interface {
	ModelImage() *pimaging.Image
	InputImage() *pimaging.Image
	ModelPoints() []detector.ModelPoint
	DetectedPoints() []keypoint.Keypoint
	Matches() []keypoint.Match
	PatternDetected() bool
	DetectedCorners() [4]r2.Point
}

// ModelPoints draws a circle of radius patchSize/2 * 2^octave around every
// model point on a colour copy of the model image.
func ModelPoints(model *pimaging.Image, points []detector.ModelPoint, patchSize int) *image.NRGBA {
	canvas := model.ToNRGBA()
	for _, p := range points {
		r := patchSize / 2 * (1 << p.Octave())
		drawCircle(canvas, round(p.FrU()), round(p.FrV()), r, 2, pointColor)
	}
	return canvas
}

// Matches stacks the model image above the last input image and draws the
// model and detected points, the detected quadrilateral and one line per
// match. Match colours run from red to green with the match score.
func Matches(s Scene) *image.NRGBA {
	model, input := s.ModelImage(), s.InputImage()
	width := model.Width
	if input != nil && input.Width > width {
		width = input.Width
	}
	h := model.Height
	height := h
	if input != nil {
		height += input.Height
	}

	canvas := imaging.New(width, height, color.NRGBA{A: 255})
	canvas = imaging.Paste(canvas, model.ToNRGBA(), image.Pt(0, 0))
	if input != nil {
		canvas = imaging.Paste(canvas, input.ToNRGBA(), image.Pt(0, h))
	}

	for _, p := range s.ModelPoints() {
		drawCross(canvas, round(p.FrU()), round(p.FrV()), 5, 1, crossColor)
	}
	detected := s.DetectedPoints()
	for _, p := range detected {
		drawCross(canvas, round(p.FrU()), h+round(p.FrV()), 5, 1, crossColor)
	}
	logger.Infof("%d detected points.", len(detected))

	if !s.PatternDetected() {
		drawLabel(canvas, 4, 4, "pattern not detected", labelFG, labelBG)
		return canvas
	}

	corners := s.DetectedCorners()
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		drawLine(canvas, round64(a.X), h+round64(a.Y), round64(b.X), h+round64(b.Y), 3, quadColor)
	}

	matches := s.Matches()
	for _, m := range matches {
		c := scoreColor(m.Score)
		mu, mv := round(m.Model.FrU()), round(m.Model.FrV())
		du, dv := round(m.Detected.FrU()), h+round(m.Detected.FrV())
		drawLine(canvas, mu, mv, du, dv, 1, c)
		drawCircle(canvas, du, dv, 16*(1<<m.Detected.Octave()), 1, c)
	}
	logger.Infof("Number of matches: %d", len(matches))

	drawLabel(canvas, 4, 4, fmt.Sprintf("%d matches", len(matches)), labelFG, labelBG)
	return canvas
}

// scoreColor maps a confidence in [0, 1] to a hue between red and green.
func scoreColor(score float32) color.Color {
	s := math.Max(0, math.Min(1, float64(score)))
	return colorful.Hsv(120*s, 1, 1).Clamped()
}

// Save writes a rendered image; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

func round(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}

func round64(v float64) int {
	return int(math.Floor(v + 0.5))
}
