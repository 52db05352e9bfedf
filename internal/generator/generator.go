// Package generator synthesises randomly warped views of a model image.
// The views feed classifier evaluation: each comes with the affine map from
// model to view coordinates so that model points can be followed into it.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	pimaging "github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/logging"
	"github.com/ironsheep/planar-detector/internal/pakfile"
)

var logger = logging.New("generator")

// DefaultSeed makes a freshly created generator reproducible.
const DefaultSeed = 1

// TransformationRange bounds the random affine warps. Angles are in
// radians. A warp is R(theta) R(-phi) diag(l1, l2) R(phi) with l1 and l2
// drawn independently from [LambdaMin, LambdaMax].
type TransformationRange struct {
	ThetaMin, ThetaMax   float32
	PhiMin, PhiMax       float32
	LambdaMin, LambdaMax float32

	// NoiseLevel is the half-width of the uniform noise added to each pixel.
	NoiseLevel float32

	// RandomBackground fills uncovered pixels with noise instead of mid gray.
	RandomBackground bool
}

// DefaultRange returns a full in-plane rotation with moderate skew and scale.
func DefaultRange() TransformationRange {
	return TransformationRange{
		ThetaMin:         -math.Pi,
		ThetaMax:         math.Pi,
		PhiMin:           -math.Pi,
		PhiMax:           math.Pi,
		LambdaMin:        0.6,
		LambdaMax:        1.5,
		NoiseLevel:       0,
		RandomBackground: true,
	}
}

// AffineImageGenerator produces random affine views of the masked part of
// an original image. It is not safe for concurrent use.
type AffineImageGenerator struct {
	Range TransformationRange

	original *pimaging.Image
	mask     image.Rectangle
	rng      *rand.Rand
}

// New returns a generator with DefaultRange seeded with seed.
func New(seed int64) *AffineImageGenerator {
	return &AffineImageGenerator{
		Range: DefaultRange(),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// LoadTransformationRange reads the range record written by
// SaveTransformationRange.
func (g *AffineImageGenerator) LoadTransformationRange(r *pakfile.Reader) error {
	tr := &g.Range
	if err := r.Float32s(
		&tr.ThetaMin, &tr.ThetaMax,
		&tr.PhiMin, &tr.PhiMax,
		&tr.LambdaMin, &tr.LambdaMax,
		&tr.NoiseLevel,
	); err != nil {
		return fmt.Errorf("generator: transformation range: %w", err)
	}
	background, err := r.Int()
	if err != nil {
		return fmt.Errorf("generator: transformation range: %w", err)
	}
	tr.RandomBackground = background != 0
	return nil
}

// SaveTransformationRange writes the range as a single line.
func (g *AffineImageGenerator) SaveTransformationRange(w *pakfile.Writer) error {
	tr := g.Range
	background := 0
	if tr.RandomBackground {
		background = 1
	}
	w.Line(tr.ThetaMin, tr.ThetaMax, tr.PhiMin, tr.PhiMax,
		tr.LambdaMin, tr.LambdaMax, tr.NoiseLevel, background)
	return w.Err()
}

// SetOriginalImage sets the image views are generated from and resets the
// mask to the whole image. img must be gray 8-bit; nil clears the image and
// the mask.
func (g *AffineImageGenerator) SetOriginalImage(img *pimaging.Image) {
	g.original = img
	if img == nil {
		g.mask = image.Rectangle{}
		return
	}
	g.mask = image.Rect(0, 0, img.Width, img.Height)
}

// Original returns the image views are generated from, or nil.
func (g *AffineImageGenerator) Original() *pimaging.Image {
	return g.original
}

// SetMask restricts warping to the rectangle spanned by (u0, v0) and
// (u1, v1), clipped to the original image.
func (g *AffineImageGenerator) SetMask(u0, v0, u1, v1 int) {
	r := image.Rect(u0, v0, u1+1, v1+1)
	if g.original != nil {
		r = r.Intersect(image.Rect(0, 0, g.original.Width, g.original.Height))
	}
	g.mask = r
	logger.Verbosef("mask set to %v", r)
}

// Mask returns the current mask rectangle.
func (g *AffineImageGenerator) Mask() image.Rectangle {
	return g.mask
}

func (g *AffineImageGenerator) uniform(lo, hi float32) float64 {
	return float64(lo) + g.rng.Float64()*float64(hi-lo)
}

// RandomAffine draws a warp from the range and returns the map from
// original coordinates to view coordinates. The mask centre lands on the
// view centre.
func (g *AffineImageGenerator) RandomAffine() f64.Aff3 {
	tr := g.Range
	theta := g.uniform(tr.ThetaMin, tr.ThetaMax)
	phi := g.uniform(tr.PhiMin, tr.PhiMax)
	l1 := g.uniform(tr.LambdaMin, tr.LambdaMax)
	l2 := g.uniform(tr.LambdaMin, tr.LambdaMax)

	a := linear(theta, phi, l1, l2)

	cx := float64(g.mask.Min.X+g.mask.Max.X) / 2
	cy := float64(g.mask.Min.Y+g.mask.Max.Y) / 2
	ox := float64(g.original.Width) / 2
	oy := float64(g.original.Height) / 2

	return f64.Aff3{
		a[0], a[1], ox - a[0]*cx - a[1]*cy,
		a[2], a[3], oy - a[2]*cx - a[3]*cy,
	}
}

// linear returns R(theta) R(-phi) diag(l1, l2) R(phi) in row-major order.
func linear(theta, phi, l1, l2 float64) [4]float64 {
	rot := func(t float64) [4]float64 {
		c, s := math.Cos(t), math.Sin(t)
		return [4]float64{c, -s, s, c}
	}
	mul := func(x, y [4]float64) [4]float64 {
		return [4]float64{
			x[0]*y[0] + x[1]*y[2], x[0]*y[1] + x[1]*y[3],
			x[2]*y[0] + x[3]*y[2], x[2]*y[1] + x[3]*y[3],
		}
	}
	m := mul(rot(theta), rot(-phi))
	m = mul(m, [4]float64{l1, 0, 0, l2})
	return mul(m, rot(phi))
}

// GenerateRandomAffineImage warps the masked region by a random affine
// transform into a view the size of the original image and returns the
// view together with the original-to-view map.
func (g *AffineImageGenerator) GenerateRandomAffineImage() (*pimaging.Image, f64.Aff3) {
	a := g.RandomAffine()
	return g.Warp(a), a
}

// Warp renders the masked region of the original through a, which maps
// original coordinates to view coordinates.
func (g *AffineImageGenerator) Warp(a f64.Aff3) *pimaging.Image {
	w, h := g.original.Width, g.original.Height
	view := image.NewGray(image.Rect(0, 0, w, h))
	g.fillBackground(view)

	src := imaging.Crop(g.original.Gray(), g.mask)

	// The cropped source starts at (0, 0); shift it back to the mask origin.
	mx, my := float64(g.mask.Min.X), float64(g.mask.Min.Y)
	s2d := a
	s2d[2] += a[0]*mx + a[1]*my
	s2d[5] += a[3]*mx + a[4]*my
	draw.BiLinear.Transform(view, s2d, src, src.Bounds(), draw.Over, nil)

	g.addNoise(view)
	return pimaging.FromGray(view)
}

func (g *AffineImageGenerator) fillBackground(view *image.Gray) {
	if !g.Range.RandomBackground {
		draw.Draw(view, view.Bounds(), image.NewUniform(color.Gray{Y: 128}), image.Point{}, draw.Src)
		return
	}
	for i := range view.Pix {
		view.Pix[i] = uint8(g.rng.Intn(256))
	}
}

func (g *AffineImageGenerator) addNoise(view *image.Gray) {
	level := float64(g.Range.NoiseLevel)
	if level <= 0 {
		return
	}
	for i, p := range view.Pix {
		v := float64(p) + (2*g.rng.Float64()-1)*level
		view.Pix[i] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
}
