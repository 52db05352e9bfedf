//go:build !gocv

package homography

import "testing"

func TestOpenCVEstimator_UnavailableWithoutTag(t *testing.T) {
	if OpenCVAvailable {
		t.Fatal("OpenCVAvailable should be false without the gocv tag")
	}
	e := NewOpenCVEstimator()
	e.ResetCorrespondences(4)
	for i := 0; i < 8; i++ {
		e.AddCorrespondence(float64(i), float64(i*i), float64(i), float64(i*i), 1)
	}
	h := Identity()
	if n := e.Ransac(&h, 10, 1500, 0.99, true); n != 0 {
		t.Errorf("stub reported %d inliers", n)
	}
}
