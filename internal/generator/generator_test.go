package generator

import (
	"bytes"
	"image"
	"math"
	"testing"

	"golang.org/x/image/math/f64"

	pimaging "github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/pakfile"
)

// createTestPattern returns a gray image with a distinct value per pixel
// neighbourhood so that warps are easy to check.
func createTestPattern(w, h int) *pimaging.Image {
	img := pimaging.New(w, h, pimaging.Depth8U, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, uint8((x*7+y*13)%200+20))
		}
	}
	return img
}

func identityRange() TransformationRange {
	return TransformationRange{LambdaMin: 1, LambdaMax: 1}
}

func TestTransformationRange_RoundTrip(t *testing.T) {
	g := New(DefaultSeed)
	g.Range = TransformationRange{
		ThetaMin: -1.5, ThetaMax: 1.25,
		PhiMin: -0.5, PhiMax: 0.75,
		LambdaMin: 0.625, LambdaMax: 1.5,
		NoiseLevel:       4,
		RandomBackground: true,
	}

	var buf bytes.Buffer
	w := pakfile.NewWriter(&buf)
	if err := g.SaveTransformationRange(w); err != nil {
		t.Fatalf("SaveTransformationRange failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if want := "-1.5 1.25 -0.5 0.75 0.625 1.5 4 1\n"; buf.String() != want {
		t.Errorf("record: got %q, want %q", buf.String(), want)
	}

	loaded := New(DefaultSeed)
	if err := loaded.LoadTransformationRange(pakfile.NewReader(&buf)); err != nil {
		t.Fatalf("LoadTransformationRange failed: %v", err)
	}
	if loaded.Range != g.Range {
		t.Errorf("range: got %+v, want %+v", loaded.Range, g.Range)
	}
}

func TestLoadTransformationRange_Truncated(t *testing.T) {
	g := New(DefaultSeed)
	r := pakfile.NewReader(bytes.NewBufferString("0 1 0 1 1"))
	if err := g.LoadTransformationRange(r); err == nil {
		t.Error("expected an error for a truncated record")
	}
}

func TestSetMask(t *testing.T) {
	g := New(DefaultSeed)
	g.SetOriginalImage(createTestPattern(40, 30))
	if got := g.Mask(); got != image.Rect(0, 0, 40, 30) {
		t.Errorf("default mask: got %v", got)
	}

	tests := []struct {
		name           string
		u0, v0, u1, v1 int
		want           image.Rectangle
	}{
		{"inside", 5, 4, 20, 10, image.Rect(5, 4, 21, 11)},
		{"clipped", -3, 25, 50, 40, image.Rect(0, 25, 40, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.SetMask(tt.u0, tt.v0, tt.u1, tt.v1)
			if got := g.Mask(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRandomAffine_MapsMaskCentreToViewCentre(t *testing.T) {
	g := New(7)
	g.SetOriginalImage(createTestPattern(64, 48))
	g.SetMask(10, 8, 29, 27)

	for i := 0; i < 20; i++ {
		a := g.RandomAffine()
		x := a[0]*20 + a[1]*18 + a[2]
		y := a[3]*20 + a[4]*18 + a[5]
		if math.Abs(x-32) > 1e-9 || math.Abs(y-24) > 1e-9 {
			t.Fatalf("mask centre mapped to (%v, %v), want (32, 24)", x, y)
		}
	}
}

func TestRandomAffine_ScaleWithinRange(t *testing.T) {
	g := New(3)
	g.SetOriginalImage(createTestPattern(64, 48))
	g.Range.LambdaMin, g.Range.LambdaMax = 0.5, 2

	for i := 0; i < 50; i++ {
		a := g.RandomAffine()
		det := a[0]*a[4] - a[1]*a[3]
		if det < 0.25-1e-9 || det > 4+1e-9 {
			t.Fatalf("determinant %v outside [0.25, 4]", det)
		}
	}
}

func TestGenerateRandomAffineImage_Identity(t *testing.T) {
	orig := createTestPattern(40, 30)
	g := New(DefaultSeed)
	g.Range = identityRange()
	g.SetOriginalImage(orig)

	view, a := g.GenerateRandomAffineImage()
	if a[0] != 1 || a[1] != 0 || a[2] != 0 || a[3] != 0 || a[4] != 1 || a[5] != 0 {
		t.Fatalf("affine: got %v, want identity", a)
	}
	if view.Width != 40 || view.Height != 30 || !view.IsGray8() {
		t.Fatalf("view shape: %dx%d %v/%d", view.Width, view.Height, view.Depth, view.Channels)
	}
	for _, p := range []image.Point{{5, 5}, {20, 15}, {33, 22}} {
		if got, want := view.At(p.X, p.Y), orig.At(p.X, p.Y); got != want {
			t.Errorf("pixel %v: got %d, want %d", p, got, want)
		}
	}
}

func TestGenerateRandomAffineImage_MaskedBackground(t *testing.T) {
	orig := createTestPattern(40, 30)
	g := New(DefaultSeed)
	g.Range = identityRange()
	g.SetOriginalImage(orig)
	// Centred mask so the identity warp keeps it in place.
	g.SetMask(10, 5, 29, 24)

	view, _ := g.GenerateRandomAffineImage()
	if got := view.At(2, 2); got != 128 {
		t.Errorf("background pixel: got %d, want 128", got)
	}
	if got, want := view.At(20, 15), orig.At(20, 15); got != want {
		t.Errorf("masked pixel: got %d, want %d", got, want)
	}
}

func TestGenerateRandomAffineImage_Reproducible(t *testing.T) {
	orig := createTestPattern(32, 32)
	generate := func() (*pimaging.Image, f64.Aff3) {
		g := New(11)
		g.Range.NoiseLevel = 5
		g.SetOriginalImage(orig)
		view, a := g.GenerateRandomAffineImage()
		return view, a
	}

	v1, a1 := generate()
	v2, a2 := generate()
	if a1 != a2 {
		t.Errorf("affine maps differ: %v vs %v", a1, a2)
	}
	if !bytes.Equal(v1.Data, v2.Data) {
		t.Error("views differ for the same seed")
	}
}

func TestAddNoise_Bounded(t *testing.T) {
	g := New(5)
	g.Range.NoiseLevel = 3
	view := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range view.Pix {
		view.Pix[i] = uint8(100 + i%50)
	}
	before := append([]uint8(nil), view.Pix...)

	g.addNoise(view)
	for i := range view.Pix {
		if d := int(view.Pix[i]) - int(before[i]); d < -3 || d > 3 {
			t.Fatalf("pixel %d moved by %d", i, d)
		}
	}
}
