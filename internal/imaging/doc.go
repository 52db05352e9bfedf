// Package imaging provides the managed raw image used throughout the
// detector, together with conversions to and from standard Go images.
//
// An Image is a packed pixel buffer with explicit geometry, the layout the
// model file format stores. Rows are padded so that every row starts on a
// 16-byte boundary. Pixel (0,0) is the top-left corner, X increases
// rightward and Y increases downward.
//
// # Depth Codes
//
// Depth values are the numeric pixel type codes written to model files:
//   - 8U, 16U and 32F are the bit width
//   - 8S, 16S and 32S also carry the sign bit 0x80000000
//
// Unknown codes are logged and treated as four bytes per channel.
//
// # Buffer Management
//
// Manage reallocates the pixel buffer only when the requested shape differs
// from the current one, so a destination image can be reused across loads.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Images themselves are not
// synchronized; callers that share one must do so read-only.
//
// # Conversions
//
// Decoded files of any colour model become 8-bit gray via luminance, and so
// do stored 8-bit images with three or four planar channels. Gray images
// convert to NRGBA canvases for drawing. Smoothing and halving use
// the bild and imaging libraries on a view that shares the pixel buffer.
package imaging
