//go:build gocv

package homography

import (
	"gocv.io/x/gocv"
)

// OpenCVAvailable reports whether OpenCVEstimator is backed by OpenCV.
const OpenCVAvailable = true

// OpenCVEstimator fits homographies with OpenCV's findHomography using
// RANSAC. Correspondence weights are ignored.
type OpenCVEstimator struct {
	correspondences []Correspondence
}

// NewOpenCVEstimator returns an empty estimator.
func NewOpenCVEstimator() *OpenCVEstimator {
	return &OpenCVEstimator{}
}

// ResetCorrespondences drops all correspondences and reserves room for n.
func (e *OpenCVEstimator) ResetCorrespondences(n int) {
	if cap(e.correspondences) < n {
		e.correspondences = make([]Correspondence, 0, n)
	}
	e.correspondences = e.correspondences[:0]
}

// AddCorrespondence adds a model point matched to an image point.
func (e *OpenCVEstimator) AddCorrespondence(mu, mv, iu, iv, weight float64) {
	e.correspondences = append(e.correspondences, correspondence(mu, mv, iu, iv, weight))
}

// Ransac runs cv::findHomography and returns the size of its inlier mask.
// weighted is accepted for interface compatibility and has no effect.
func (e *OpenCVEstimator) Ransac(h *Homography, threshold float64, maxIterations int, confidence float64, weighted bool) int {
	n := len(e.correspondences)
	if n < sampleSize {
		return 0
	}

	src := gocv.NewMatWithSize(n, 2, gocv.MatTypeCV32F)
	defer src.Close()
	dst := gocv.NewMatWithSize(n, 2, gocv.MatTypeCV32F)
	defer dst.Close()
	for i, c := range e.correspondences {
		src.SetFloatAt(i, 0, float32(c.Model.X))
		src.SetFloatAt(i, 1, float32(c.Model.Y))
		dst.SetFloatAt(i, 0, float32(c.Image.X))
		dst.SetFloatAt(i, 1, float32(c.Image.Y))
	}

	mask := gocv.NewMat()
	defer mask.Close()

	m := gocv.FindHomography(src, &dst, gocv.HomographyMethodRANSAC, threshold, &mask, maxIterations, confidence)
	defer m.Close()
	if m.Empty() {
		return 0
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[3*r+c] = m.GetDoubleAt(r, c)
		}
	}
	return gocv.CountNonZero(mask)
}
