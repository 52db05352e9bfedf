package classifier

import (
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// SampleGenerator produces randomly warped views of the model image
// together with the affine map from model to view coordinates.
type SampleGenerator interface {
	GenerateRandomAffineImage() (*imaging.Image, f64.Aff3)
}

// Test measures the recognition rate on samples random views: the share of
// model points that, projected into a view, are classified as themselves.
// points[i] must be the model point of class i.
func (f *Fern) Test(points []keypoint.Keypoint, octaves, radius, samples int, gen SampleGenerator) float32 {
	if len(points) == 0 || samples <= 0 {
		return 0
	}

	correct, total := 0, 0
	for s := 0; s < samples; s++ {
		view, a := gen.GenerateRandomAffineImage()
		p := pyramid.New(radius, f.patchSize, octaves)
		p.SetImage(view)

		sampleCorrect := 0
		for i, mp := range points {
			u, v := float64(mp.FrU()), float64(mp.FrV())
			scale := float64(int(1) << mp.Octave())
			k := keypoint.Keypoint{
				U:     float32((a[0]*u + a[1]*v + a[2]) / scale),
				V:     float32((a[3]*u + a[4]*v + a[5]) / scale),
				Scale: mp.Scale,
			}
			f.Recognize(p, &k)
			if k.ClassIndex == i {
				sampleCorrect++
			}
			total++
		}
		correct += sampleCorrect

		logger.Debugf("sample %d: %d/%d points recognized", s, sampleCorrect, len(points))
	}

	return float32(correct) / float32(total)
}
