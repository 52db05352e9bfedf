//go:build !gocv

package homography

// OpenCVAvailable reports whether OpenCVEstimator is backed by OpenCV.
const OpenCVAvailable = false

// OpenCVEstimator stands in for the OpenCV-backed estimator in builds
// without the gocv tag. It keeps correspondences but never fits.
type OpenCVEstimator struct {
	correspondences []Correspondence
}

// NewOpenCVEstimator returns an empty estimator.
func NewOpenCVEstimator() *OpenCVEstimator {
	return &OpenCVEstimator{}
}

// ResetCorrespondences drops all correspondences and reserves room for n.
func (e *OpenCVEstimator) ResetCorrespondences(n int) {
	e.correspondences = make([]Correspondence, 0, n)
}

// AddCorrespondence adds a model point matched to an image point.
func (e *OpenCVEstimator) AddCorrespondence(mu, mv, iu, iv, weight float64) {
	e.correspondences = append(e.correspondences, correspondence(mu, mv, iu, iv, weight))
}

// Ransac always reports zero inliers; rebuild with -tags gocv for OpenCV.
func (e *OpenCVEstimator) Ransac(h *Homography, threshold float64, maxIterations int, confidence float64, weighted bool) int {
	return 0
}
