//go:build gocv

package extractor

import (
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// OpenCVAvailable reports whether OpenCVExtractor is backed by OpenCV.
const OpenCVAvailable = true

// OpenCVExtractor finds corners with OpenCV's goodFeaturesToTrack on every
// pyramid level. Points are scored with the same minimum-eigenvalue
// response as Extractor so that levels merge by strength.
type OpenCVExtractor struct {
	// QualityLevel is the fraction of the best corner response a corner
	// must reach.
	QualityLevel float64

	// MinDistance is the smallest distance between two kept corners.
	MinDistance float64
}

// NewOpenCVExtractor returns an extractor with default tuning.
func NewOpenCVExtractor() *OpenCVExtractor {
	return &OpenCVExtractor{
		QualityLevel: DefaultQualityLevel,
		MinDistance:  DefaultMinDistance,
	}
}

// Detect fills out with the strongest points of all pyramid levels, best
// first, and returns how many were written.
func (e *OpenCVExtractor) Detect(p *pyramid.Pyramid, out []keypoint.Keypoint) int {
	if len(out) == 0 {
		return 0
	}

	var found []keypoint.Keypoint
	for octave := 0; octave < p.Levels(); octave++ {
		pts, err := e.detectLevel(p, octave, len(out))
		if err != nil {
			logger.Errorf("goodFeaturesToTrack on octave %d: %v", octave, err)
			continue
		}
		found = append(found, pts...)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Score > found[j].Score
	})
	return copy(out, found)
}

func (e *OpenCVExtractor) detectLevel(p *pyramid.Pyramid, octave, limit int) ([]keypoint.Keypoint, error) {
	level := p.Level(octave)
	w, h := level.Width, level.Height
	border := p.Border()
	if w <= 2*border || h <= 2*border {
		return nil, nil
	}

	packed := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(packed[y*w:(y+1)*w], level.Data[y*level.Stride:])
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, packed)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	corners := gocv.NewMat()
	defer corners.Close()
	gocv.GoodFeaturesToTrack(src, &corners, limit, e.QualityLevel, e.MinDistance)

	response := cornerResponse(level.Data, level.Stride, w, h)

	var found []keypoint.Keypoint
	for i := 0; i < corners.Rows(); i++ {
		v := corners.GetVecfAt(i, 0)
		x, y := int(v[0]+0.5), int(v[1]+0.5)
		if x < border || y < border || x >= w-border || y >= h-border {
			continue
		}
		found = append(found, keypoint.Keypoint{
			U:          float32(x),
			V:          float32(y),
			Scale:      float32(octave),
			Score:      response[y*w+x],
			ClassIndex: -1,
		})
	}
	return found, nil
}
