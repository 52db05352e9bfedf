package pakfile

import (
	"fmt"

	"github.com/ironsheep/planar-detector/internal/imaging"
)

// WriteImage writes the image geometry as text followed by its pixel
// buffer as a buffer record. An image whose Size exceeds its pixel buffer
// is rejected before anything is written.
func WriteImage(w *Writer, img *imaging.Image) error {
	if img.Size < 0 || img.Size > len(img.Data) {
		return fmt.Errorf("pakfile: image size %d does not fit its %d-byte buffer", img.Size, len(img.Data))
	}
	w.Line(img.Width, img.Height, uint32(img.Depth), img.Channels, img.Stride, img.Size)
	return WriteBuffer(w, img.Data[:img.Size])
}

// ReadImage reads an image record into *dst, allocating a new image when
// *dst is nil or has a different shape. Stride and size are then set to
// the recorded values, whatever the local stride rule computes. It reports
// whether the destination was (re)allocated. A pixel record whose length
// differs from the recorded size is an error.
func ReadImage(r *Reader, dst **imaging.Image) (bool, error) {
	var width, height, channels, stride, size int
	if err := r.Ints(&width, &height); err != nil {
		return false, fmt.Errorf("pakfile: image size: %w", err)
	}
	depth, err := r.Uint32()
	if err != nil {
		return false, fmt.Errorf("pakfile: image depth: %w", err)
	}
	if err := r.Ints(&channels, &stride, &size); err != nil {
		return false, fmt.Errorf("pakfile: image layout: %w", err)
	}

	logger.Debugf("loading image size = %dx%d, depth = %s, channels = %d",
		width, height, imaging.Depth(depth), channels)

	if *dst == nil {
		*dst = &imaging.Image{}
	}
	img := *dst
	allocated := img.Manage(width, height, imaging.Depth(depth), channels)

	data, err := ReadBuffer[byte](r)
	if err != nil {
		return allocated, fmt.Errorf("pakfile: image pixels: %w", err)
	}
	if len(data) != size {
		return allocated, fmt.Errorf("pakfile: image records size %d but holds %d bytes", size, len(data))
	}
	img.Data = data
	img.Stride = stride
	img.Size = size
	return allocated, nil
}
