// Package extractor finds candidate points of interest on every level of a
// pyramid.
//
// Points are corners scored by the smaller eigenvalue of the local gradient
// structure tensor (Shi-Tomasi). Builds with the gocv tag can use
// OpenCVExtractor instead. Each level is searched away from the
// pyramid border so that a classifier patch always fits around a point.
package extractor

import (
	"math"
	"sort"

	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/logging"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

var logger = logging.New("extractor")

// Default tuning.
const (
	DefaultMinEigenvalue     = 20
	DefaultSuppressionRadius = 2

	// OpenCVExtractor tuning.
	DefaultQualityLevel = 0.01
	DefaultMinDistance  = 3
)

// Extractor detects corner points.
type Extractor struct {
	// MinEigenvalue is the weakest corner response kept.
	MinEigenvalue float32

	// SuppressionRadius is the half-width of the window in which a point
	// must be the strongest response to be kept.
	SuppressionRadius int
}

// New returns an extractor with default tuning.
func New() *Extractor {
	return &Extractor{
		MinEigenvalue:     DefaultMinEigenvalue,
		SuppressionRadius: DefaultSuppressionRadius,
	}
}

// Detect fills out with the strongest points of all pyramid levels, best
// first, and returns how many were written. It never writes more than
// len(out) points.
func (e *Extractor) Detect(p *pyramid.Pyramid, out []keypoint.Keypoint) int {
	if len(out) == 0 {
		return 0
	}

	var found []keypoint.Keypoint
	for octave := 0; octave < p.Levels(); octave++ {
		found = e.detectLevel(p, octave, found)
	}
	logger.Debugf("%d corners over %d levels", len(found), p.Levels())

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Score > found[j].Score
	})

	return copy(out, found)
}

func (e *Extractor) detectLevel(p *pyramid.Pyramid, octave int, found []keypoint.Keypoint) []keypoint.Keypoint {
	level := p.Level(octave)
	w, h := level.Width, level.Height
	border := p.Border()
	if w <= 2*border || h <= 2*border {
		return found
	}

	response := cornerResponse(level.Data, level.Stride, w, h)

	r := e.SuppressionRadius
	if r < 1 {
		r = 1
	}

	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			v := response[y*w+x]
			if v < e.MinEigenvalue || !isLocalMax(response, w, h, x, y, r) {
				continue
			}
			found = append(found, keypoint.Keypoint{
				U:          float32(x),
				V:          float32(y),
				Scale:      float32(octave),
				Score:      v,
				ClassIndex: -1,
			})
		}
	}
	return found
}

// isLocalMax reports whether (x, y) beats every neighbour within r. Ties
// go to the neighbour that comes first in raster order.
func isLocalMax(response []float32, w, h, x, y, r int) bool {
	v := response[y*w+x]
	for dy := -r; dy <= r; dy++ {
		yy := y + dy
		if yy < 0 || yy >= h {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			xx := x + dx
			if xx < 0 || xx >= w || (dx == 0 && dy == 0) {
				continue
			}
			n := response[yy*w+xx]
			if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

// cornerResponse returns the minimum eigenvalue of the 3x3 summed
// structure tensor at every pixel. Border pixels get zero.
func cornerResponse(pix []byte, stride, w, h int) []float32 {
	n := w * h
	ixx := make([]float32, n)
	iyy := make([]float32, n)
	ixy := make([]float32, n)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := (float32(pix[y*stride+x+1]) - float32(pix[y*stride+x-1])) / 2
			gy := (float32(pix[(y+1)*stride+x]) - float32(pix[(y-1)*stride+x])) / 2
			i := y*w + x
			ixx[i] = gx * gx
			iyy[i] = gy * gy
			ixy[i] = gx * gy
		}
	}

	response := make([]float32, n)
	for y := 2; y < h-2; y++ {
		for x := 2; x < w-2; x++ {
			var a, b, c float32
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * w
				for dx := -1; dx <= 1; dx++ {
					i := row + x + dx
					a += ixx[i]
					b += ixy[i]
					c += iyy[i]
				}
			}
			half := (a - c) / 2
			response[y*w+x] = (a+c)/2 - float32(math.Sqrt(float64(half*half+b*b)))
		}
	}
	return response
}
