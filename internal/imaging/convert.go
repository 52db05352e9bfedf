package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// FromImage converts any decoded image to a single-channel 8-bit image.
// Colour input is reduced to luminance first.
func FromImage(src image.Image) *Image {
	if g, ok := src.(*image.Gray); ok {
		return FromGray(g)
	}
	return fromChannel(imaging.Grayscale(src))
}

// fromChannel copies the red channel of an NRGBA or RGBA image whose
// channels are already equal.
func fromChannel(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), Depth8U, 1)

	var pix []uint8
	var stride int
	switch s := src.(type) {
	case *image.NRGBA:
		pix, stride = s.Pix, s.Stride
	case *image.RGBA:
		pix, stride = s.Pix, s.Stride
	default:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				r, _, _, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Set(x, y, uint8(r>>8))
			}
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		row := pix[y*stride:]
		dst := out.Data[y*out.Stride:]
		for x := 0; x < out.Width; x++ {
			dst[x] = row[4*x]
		}
	}
	return out
}

// Smooth returns a Gaussian-blurred copy of a gray image. A non-positive
// radius returns a plain copy.
func (img *Image) Smooth(radius float64) *Image {
	if radius <= 0 {
		return img.Clone()
	}
	return fromChannel(blur.Gaussian(img.Gray(), radius))
}

// HalfSize returns the image downsampled by two in each direction with a
// box filter. Images narrower or shorter than two pixels are clamped to one.
func (img *Image) HalfSize() *Image {
	w, h := img.Width/2, img.Height/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return fromChannel(imaging.Resize(img.Gray(), w, h, imaging.Box))
}

// ToNRGBA converts a gray image to a colour canvas for drawing overlays.
func (img *Image) ToNRGBA() *image.NRGBA {
	return imaging.Clone(img.Gray())
}

// ToGray8 returns a single-channel 8-bit view of the image. Gray images are
// returned as they are. 8-bit images with three or four channels are
// reduced to luminance; their channels are stored as consecutive planes of
// Stride*Height bytes in blue, green, red order. Any other layout reports
// false.
func (img *Image) ToGray8() (*Image, bool) {
	if img.IsGray8() {
		return img, true
	}
	if img == nil || img.Depth != Depth8U || (img.Channels != 3 && img.Channels != 4) {
		return nil, false
	}
	plane := img.Stride * img.Height
	if len(img.Data) < 3*plane {
		return nil, false
	}

	rgb := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		dst := rgb.Pix[y*rgb.Stride:]
		for x := 0; x < img.Width; x++ {
			i := y*img.Stride + x
			dst[4*x] = img.Data[2*plane+i]
			dst[4*x+1] = img.Data[plane+i]
			dst[4*x+2] = img.Data[i]
			dst[4*x+3] = 0xff
		}
	}
	return FromImage(rgb), true
}
