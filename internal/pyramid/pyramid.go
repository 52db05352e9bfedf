// Package pyramid builds the multi-resolution image representation that the
// extractor searches and the classifier samples patches from.
package pyramid

import (
	"github.com/ironsheep/planar-detector/internal/imaging"
)

// SmoothingRadius is the Gaussian radius applied to every level.
const SmoothingRadius = 1.0

// Pyramid holds one smoothed image per octave. Octave 0 has the input
// resolution and each following octave halves both dimensions.
type Pyramid struct {
	radius    int
	patchSize int
	octaves   int

	original *imaging.Image
	levels   []*imaging.Image
}

// New creates an empty pyramid. radius is the extractor's search radius,
// patchSize the classifier patch width; both set the border margin.
func New(radius, patchSize, octaves int) *Pyramid {
	if octaves < 1 {
		octaves = 1
	}
	return &Pyramid{
		radius:    radius,
		patchSize: patchSize,
		octaves:   octaves,
	}
}

// SetImage rebuilds every level from img, which must be gray 8-bit.
// Octaves whose size would drop below one pixel are not built.
func (p *Pyramid) SetImage(img *imaging.Image) {
	p.original = img
	p.levels = p.levels[:0]

	level := img.Smooth(SmoothingRadius)
	p.levels = append(p.levels, level)
	for i := 1; i < p.octaves; i++ {
		if level.Width < 2 || level.Height < 2 {
			break
		}
		level = level.HalfSize().Smooth(SmoothingRadius)
		p.levels = append(p.levels, level)
	}
}

// Level returns the smoothed image for octave, or nil when that octave
// was not built.
func (p *Pyramid) Level(octave int) *imaging.Image {
	if octave < 0 || octave >= len(p.levels) {
		return nil
	}
	return p.levels[octave]
}

// Levels returns the number of built levels.
func (p *Pyramid) Levels() int {
	return len(p.levels)
}

// Original returns the image last passed to SetImage.
func (p *Pyramid) Original() *imaging.Image {
	return p.original
}

// Octaves returns the configured number of octaves.
func (p *Pyramid) Octaves() int {
	return p.octaves
}

// PatchSize returns the classifier patch width.
func (p *Pyramid) PatchSize() int {
	return p.patchSize
}

// Radius returns the extractor search radius.
func (p *Pyramid) Radius() int {
	return p.radius
}

// Border returns the margin in level pixels inside which neither full
// patches nor extractor rings fit.
func (p *Pyramid) Border() int {
	border := p.patchSize/2 + 1
	if p.radius+1 > border {
		border = p.radius + 1
	}
	return border
}
