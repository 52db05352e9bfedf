//go:build !gocv

package extractor

import (
	"testing"

	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

func TestOpenCVExtractor_UnavailableWithoutTag(t *testing.T) {
	if OpenCVAvailable {
		t.Fatal("OpenCVAvailable should be false without the gocv tag")
	}
	e := NewOpenCVExtractor()
	if e.QualityLevel != DefaultQualityLevel || e.MinDistance != DefaultMinDistance {
		t.Errorf("tuning: got %+v", e)
	}

	p := pyramid.New(3, 8, 1)
	p.SetImage(createSquaresImage(120, 120, [][4]int{{40, 40, 80, 80}}))
	out := make([]keypoint.Keypoint, 10)
	if n := e.Detect(p, out); n != 0 {
		t.Errorf("stub found %d points", n)
	}
}
