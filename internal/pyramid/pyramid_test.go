package pyramid

import (
	"testing"

	"github.com/ironsheep/planar-detector/internal/imaging"
)

func createCheckerImage(width, height, cell int) *imaging.Image {
	img := imaging.New(width, height, imaging.Depth8U, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, 230)
			} else {
				img.Set(x, y, 20)
			}
		}
	}
	return img
}

func TestSetImage_BuildsHalvingLevels(t *testing.T) {
	p := New(7, 32, 3)
	img := createCheckerImage(128, 96, 8)
	p.SetImage(img)

	if p.Levels() != 3 {
		t.Fatalf("Levels: got %d, want 3", p.Levels())
	}
	wantSizes := [][2]int{{128, 96}, {64, 48}, {32, 24}}
	for i, want := range wantSizes {
		level := p.Level(i)
		if level.Width != want[0] || level.Height != want[1] {
			t.Errorf("level %d: got %dx%d, want %dx%d", i, level.Width, level.Height, want[0], want[1])
		}
		if !level.IsGray8() {
			t.Errorf("level %d is not gray 8-bit", i)
		}
	}
	if p.Original() != img {
		t.Error("Original should return the input image")
	}
	if p.Level(3) != nil || p.Level(-1) != nil {
		t.Error("out of range levels should be nil")
	}
}

func TestSetImage_StopsOnTinyImages(t *testing.T) {
	p := New(2, 8, 6)
	p.SetImage(createCheckerImage(4, 4, 1))

	if p.Levels() != 3 {
		t.Errorf("Levels: got %d, want 3 (4x4, 2x2, 1x1)", p.Levels())
	}
}

func TestSetImage_Refresh(t *testing.T) {
	p := New(7, 32, 2)
	p.SetImage(createCheckerImage(64, 64, 8))
	p.SetImage(createCheckerImage(40, 30, 5))

	if p.Levels() != 2 || p.Level(0).Width != 40 || p.Level(1).Width != 20 {
		t.Errorf("levels not rebuilt: %d levels, widths %d/%d", p.Levels(), p.Level(0).Width, p.Level(1).Width)
	}
}

func TestBorder(t *testing.T) {
	if got := New(7, 32, 1).Border(); got != 17 {
		t.Errorf("Border: got %d, want 17", got)
	}
	if got := New(20, 8, 1).Border(); got != 21 {
		t.Errorf("Border: got %d, want 21", got)
	}
}
