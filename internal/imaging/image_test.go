package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createGradientImage creates a gray image whose value grows with x.
func createGradientImage(width, height int) *Image {
	img := New(width, height, Depth8U, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, uint8(x*255/width))
		}
	}
	return img
}

func TestRowStride(t *testing.T) {
	for width := 0; width <= 70; width++ {
		for _, pixelSize := range []int{1, 2, 4} {
			stride := RowStride(width, pixelSize)
			if stride%16 != 0 {
				t.Fatalf("RowStride(%d, %d) = %d, not a multiple of 16", width, pixelSize, stride)
			}
			if stride < width*pixelSize {
				t.Fatalf("RowStride(%d, %d) = %d, smaller than row", width, pixelSize, stride)
			}
			if stride-16 >= width*pixelSize {
				t.Fatalf("RowStride(%d, %d) = %d, not the smallest multiple", width, pixelSize, stride)
			}
		}
	}
}

func TestNew_StrideAndSize(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		depth    Depth
		channels int
		stride   int
	}{
		{"8U gray exact", 32, 10, Depth8U, 1, 32},
		{"8U gray padded", 33, 10, Depth8U, 1, 48},
		{"16U padded", 9, 4, Depth16U, 1, 32},
		{"32F three channels", 5, 3, Depth32F, 3, 32},
		{"8S one pixel", 1, 1, Depth8S, 1, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := New(tt.width, tt.height, tt.depth, tt.channels)
			if img.Stride != tt.stride {
				t.Errorf("Stride: got %d, want %d", img.Stride, tt.stride)
			}
			wantSize := tt.stride * tt.height * tt.channels
			if img.Size != wantSize || len(img.Data) != wantSize {
				t.Errorf("Size: got %d (len %d), want %d", img.Size, len(img.Data), wantSize)
			}
		})
	}
}

func TestDepth_PixelSizeUnknown(t *testing.T) {
	if got := Depth(7).PixelSize(); got != 4 {
		t.Errorf("unknown depth pixel size: got %d, want 4", got)
	}
}

func TestManage_ReallocatesOnlyOnShapeChange(t *testing.T) {
	img := New(10, 10, Depth8U, 1)
	img.Set(3, 3, 99)

	if img.Manage(10, 10, Depth8U, 1) {
		t.Error("same shape should not reallocate")
	}
	if img.At(3, 3) != 99 {
		t.Error("pixels lost without reallocation")
	}

	if !img.Manage(12, 10, Depth8U, 1) {
		t.Error("new width should reallocate")
	}
	if img.Width != 12 || img.Stride != 16 {
		t.Errorf("geometry not updated: width %d stride %d", img.Width, img.Stride)
	}

	if !(&Image{}).Manage(1, 1, Depth8U, 1) {
		t.Error("empty image should allocate")
	}
}

func TestGrayRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 21, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 21; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(x*10 + y)})
		}
	}

	img := FromGray(src)
	if img.Width != 21 || img.Height != 7 || img.Stride != 32 {
		t.Fatalf("unexpected geometry %dx%d stride %d", img.Width, img.Height, img.Stride)
	}

	view := img.Gray()
	for y := 0; y < 7; y++ {
		for x := 0; x < 21; x++ {
			if view.GrayAt(x, y).Y != src.GrayAt(x, y).Y {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

func TestFromImage_Color(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	src.Set(1, 1, color.RGBA{0, 0, 0, 255})

	img := FromImage(src)
	if !img.IsGray8() {
		t.Fatal("FromImage should produce a gray 8-bit image")
	}
	if img.At(0, 0) != 255 || img.At(1, 1) != 0 {
		t.Errorf("luminance: got %d and %d, want 255 and 0", img.At(0, 0), img.At(1, 1))
	}
}

func TestHalfSize(t *testing.T) {
	img := createGradientImage(40, 30)
	half := img.HalfSize()
	if half.Width != 20 || half.Height != 15 {
		t.Fatalf("HalfSize: got %dx%d, want 20x15", half.Width, half.Height)
	}
	if half.At(0, 5) >= half.At(19, 5) {
		t.Error("gradient direction lost after downsampling")
	}

	tiny := New(1, 1, Depth8U, 1).HalfSize()
	if tiny.Width != 1 || tiny.Height != 1 {
		t.Errorf("tiny HalfSize: got %dx%d, want 1x1", tiny.Width, tiny.Height)
	}
}

func TestSmooth_SpreadsSpot(t *testing.T) {
	img := New(15, 15, Depth8U, 1)
	img.Set(7, 7, 255)

	smoothed := img.Smooth(2)
	if smoothed.At(7, 7) >= 255 {
		t.Error("peak should be reduced by smoothing")
	}
	if smoothed.At(8, 7) == 0 {
		t.Error("neighbour should receive some intensity")
	}
	if img.At(8, 7) != 0 {
		t.Error("Smooth must not modify its receiver")
	}
}

func TestClone_IsDeep(t *testing.T) {
	img := createGradientImage(8, 8)
	c := img.Clone()
	c.Set(0, 0, 200)
	if img.At(0, 0) == 200 {
		t.Error("Clone shares pixel storage")
	}
}

func TestToGray8(t *testing.T) {
	t.Run("gray is returned as is", func(t *testing.T) {
		img := createGradientImage(8, 4)
		got, ok := img.ToGray8()
		if !ok || got != img {
			t.Errorf("ToGray8 = %p, %v; want the same image", got, ok)
		}
	})

	t.Run("planar colour", func(t *testing.T) {
		img := New(6, 3, Depth8U, 3)
		plane := img.Stride * img.Height
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				i := y*img.Stride + x
				if x < 3 {
					img.Data[i], img.Data[plane+i], img.Data[2*plane+i] = 255, 255, 255
				} else {
					img.Data[2*plane+i] = 255 // red only
				}
			}
		}

		got, ok := img.ToGray8()
		if !ok {
			t.Fatal("ToGray8 rejected a 3-channel 8U image")
		}
		if !got.IsGray8() || got.Width != 6 || got.Height != 3 {
			t.Fatalf("got %dx%d %s x%d", got.Width, got.Height, got.Depth, got.Channels)
		}
		if got.At(0, 0) != 255 {
			t.Errorf("white: got %d, want 255", got.At(0, 0))
		}
		if v := got.At(4, 1); v < 70 || v > 82 {
			t.Errorf("red luminance: got %d, want about 76", v)
		}
	})

	t.Run("unsupported layouts", func(t *testing.T) {
		tests := []struct {
			name string
			img  *Image
		}{
			{"16-bit", New(4, 4, Depth16U, 1)},
			{"two channels", New(4, 4, Depth8U, 2)},
			{"float colour", New(4, 4, Depth32F, 3)},
			{"short payload", &Image{Width: 4, Height: 4, Depth: Depth8U, Channels: 3, Stride: 16, Size: 192, Data: make([]byte, 10)}},
		}
		for _, tt := range tests {
			if _, ok := tt.img.ToGray8(); ok {
				t.Errorf("%s: ToGray8 should report false", tt.name)
			}
		}
	})
}
