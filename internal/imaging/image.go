package imaging

import (
	"fmt"
	"image"

	"github.com/ironsheep/planar-detector/internal/logging"
)

var logger = logging.New("imaging")

// Depth is the per-channel pixel type code. The numeric values are the ones
// written to model files, so they must never change.
type Depth uint32

const (
	depthSigned Depth = 0x80000000

	Depth8U  Depth = 8
	Depth8S  Depth = depthSigned | 8
	Depth16U Depth = 16
	Depth16S Depth = depthSigned | 16
	Depth32S Depth = depthSigned | 32
	Depth32F Depth = 32
)

// String returns a short name such as "8U" or "32F".
func (d Depth) String() string {
	switch d {
	case Depth8U:
		return "8U"
	case Depth8S:
		return "8S"
	case Depth16U:
		return "16U"
	case Depth16S:
		return "16S"
	case Depth32S:
		return "32S"
	case Depth32F:
		return "32F"
	}
	return fmt.Sprintf("depth(%#x)", uint32(d))
}

// PixelSize returns the size in bytes of one channel value. Unknown depth
// codes are logged and treated as 4 bytes wide.
func (d Depth) PixelSize() int {
	switch d {
	case Depth8U, Depth8S:
		return 1
	case Depth16U, Depth16S:
		return 2
	case Depth32S, Depth32F:
		return 4
	}
	logger.Errorf("unknown depth type: %d", uint32(d))
	return 4
}

// RowStride returns the smallest multiple of 16 that holds width pixels of
// pixelSize bytes.
func RowStride(width, pixelSize int) int {
	stride := width * pixelSize
	if stride%16 != 0 {
		stride = 16 * (stride/16 + 1)
	}
	return stride
}

// Image is a raw pixel buffer with explicit geometry. Rows are padded to a
// 16-byte boundary; Stride and Size always follow from the other fields
// except right after ReadImage restores them verbatim from a record.
type Image struct {
	Width    int
	Height   int
	Depth    Depth
	Channels int
	Stride   int
	Size     int
	Data     []byte
}

// New allocates a zeroed image of the given shape.
func New(width, height int, depth Depth, channels int) *Image {
	img := &Image{}
	img.Manage(width, height, depth, channels)
	return img
}

// Manage (re)allocates the pixel buffer when the image has none yet or its
// shape differs from the requested one. It reports whether a new buffer was
// allocated; an unchanged image keeps its pixels.
func (img *Image) Manage(width, height int, depth Depth, channels int) bool {
	if img.Data != nil &&
		img.Width == width && img.Height == height &&
		img.Depth == depth && img.Channels == channels {
		return false
	}

	stride := RowStride(width, depth.PixelSize())
	size := stride * height * channels

	img.Data = make([]byte, size)
	img.Stride = stride
	img.Size = size
	img.Width = width
	img.Height = height
	img.Depth = depth
	img.Channels = channels
	return true
}

// IsGray8 reports whether the image is single-channel 8-bit unsigned.
func (img *Image) IsGray8() bool {
	return img != nil && img.Channels == 1 && img.Depth == Depth8U
}

// At returns the 8-bit value at (x, y). The image must be IsGray8.
func (img *Image) At(x, y int) uint8 {
	return img.Data[y*img.Stride+x]
}

// Set stores an 8-bit value at (x, y). The image must be IsGray8.
func (img *Image) Set(x, y int, v uint8) {
	img.Data[y*img.Stride+x] = v
}

// Inside reports whether (x, y) lies within the pixel grid.
func (img *Image) Inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width && y < img.Height
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := *img
	out.Data = append([]byte(nil), img.Data...)
	return &out
}

// Gray returns an *image.Gray sharing the pixel buffer, for use with
// standard image code. The image must be IsGray8.
func (img *Image) Gray() *image.Gray {
	return &image.Gray{
		Pix:    img.Data,
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// FromGray copies an *image.Gray into a new single-channel 8-bit image.
func FromGray(src *image.Gray) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), Depth8U, 1)
	for y := 0; y < out.Height; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(out.Data[y*out.Stride:y*out.Stride+out.Width], row[:out.Width])
	}
	return out
}
