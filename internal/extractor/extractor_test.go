package extractor

import (
	"testing"

	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// createSquaresImage draws bright squares on a dark background; every
// square contributes four corners.
func createSquaresImage(width, height int, squares [][4]int) *imaging.Image {
	img := imaging.New(width, height, imaging.Depth8U, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, 20)
		}
	}
	for _, s := range squares {
		for y := s[1]; y < s[3]; y++ {
			for x := s[0]; x < s[2]; x++ {
				img.Set(x, y, 230)
			}
		}
	}
	return img
}

func TestDetect_FindsSquareCorners(t *testing.T) {
	img := createSquaresImage(120, 120, [][4]int{{40, 40, 80, 80}})
	p := pyramid.New(3, 8, 1)
	p.SetImage(img)

	out := make([]keypoint.Keypoint, 50)
	n := New().Detect(p, out)
	if n < 4 {
		t.Fatalf("expected at least 4 corners, got %d", n)
	}

	corners := [][2]float32{{40, 40}, {79, 40}, {40, 79}, {79, 79}}
	for _, c := range corners {
		found := false
		for _, k := range out[:n] {
			du, dv := k.FrU()-c[0], k.FrV()-c[1]
			if du*du+dv*dv <= 9 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no point near corner (%v,%v)", c[0], c[1])
		}
	}
}

func TestDetect_RespectsCapacityAndOrder(t *testing.T) {
	img := createSquaresImage(160, 160, [][4]int{
		{20, 20, 40, 40}, {60, 20, 80, 40}, {100, 20, 120, 40},
		{20, 80, 40, 100}, {60, 80, 80, 100}, {100, 80, 120, 100},
	})
	p := pyramid.New(3, 8, 2)
	p.SetImage(img)

	out := make([]keypoint.Keypoint, 5)
	n := New().Detect(p, out)
	if n != 5 {
		t.Fatalf("Detect: got %d points, want capacity 5", n)
	}
	for i := 1; i < n; i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("points not sorted by score at %d", i)
		}
	}
	for _, k := range out[:n] {
		if k.ClassIndex != -1 {
			t.Errorf("unclassified point has class %d", k.ClassIndex)
		}
	}
}

func TestDetect_UniformImage(t *testing.T) {
	img := createSquaresImage(64, 64, nil)
	p := pyramid.New(3, 8, 2)
	p.SetImage(img)

	out := make([]keypoint.Keypoint, 10)
	if n := New().Detect(p, out); n != 0 {
		t.Errorf("uniform image produced %d points", n)
	}
}

func TestDetect_KeepsAwayFromBorder(t *testing.T) {
	// Square touching the image edge: corners at the border are skipped.
	img := createSquaresImage(100, 100, [][4]int{{0, 0, 30, 30}})
	p := pyramid.New(3, 32, 1)
	p.SetImage(img)

	out := make([]keypoint.Keypoint, 20)
	n := New().Detect(p, out)
	border := float32(p.Border())
	for _, k := range out[:n] {
		if k.U < border || k.V < border || k.U >= 100-border || k.V >= 100-border {
			t.Errorf("point (%v,%v) inside border %v", k.U, k.V, border)
		}
	}
}

func TestDetect_ZeroCapacity(t *testing.T) {
	p := pyramid.New(3, 8, 1)
	p.SetImage(createSquaresImage(64, 64, [][4]int{{20, 20, 40, 40}}))
	if n := New().Detect(p, nil); n != 0 {
		t.Errorf("zero capacity: got %d", n)
	}
}
