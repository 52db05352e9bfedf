// Package keypoint defines the point-of-interest types exchanged between the
// extractor, the classifier and the detector.
package keypoint

// Keypoint is a point of interest located at sub-pixel (U, V) in the
// coordinates of pyramid octave Scale. ClassIndex and Score are filled in by
// a classifier; ClassIndex is -1 when the point could not be classified.
type Keypoint struct {
	U, V       float32
	Scale      float32
	Score      float32
	ClassIndex int
}

// Octave returns the pyramid level the point was found on.
func (k Keypoint) Octave() int {
	return int(k.Scale)
}

// FrU returns U in full-resolution image coordinates.
func (k Keypoint) FrU() float32 {
	return k.U * float32(int(1)<<k.Octave())
}

// FrV returns V in full-resolution image coordinates.
func (k Keypoint) FrV() float32 {
	return k.V * float32(int(1)<<k.Octave())
}

// Match pairs a model point with the detected point it was matched to.
type Match struct {
	Model    Keypoint
	Detected Keypoint
	Score    float32
}
