//go:build !gocv

package extractor

import (
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// OpenCVAvailable reports whether OpenCVExtractor is backed by OpenCV.
const OpenCVAvailable = false

// OpenCVExtractor stands in for the OpenCV-backed extractor in builds
// without the gocv tag. It never finds a point.
type OpenCVExtractor struct {
	QualityLevel float64
	MinDistance  float64
}

// NewOpenCVExtractor returns an extractor with default tuning.
func NewOpenCVExtractor() *OpenCVExtractor {
	return &OpenCVExtractor{
		QualityLevel: DefaultQualityLevel,
		MinDistance:  DefaultMinDistance,
	}
}

// Detect always returns zero; rebuild with -tags gocv for OpenCV.
func (e *OpenCVExtractor) Detect(p *pyramid.Pyramid, out []keypoint.Keypoint) int {
	return 0
}
