package detector

import (
	"github.com/ironsheep/planar-detector/internal/classifier"
	"github.com/ironsheep/planar-detector/internal/homography"
	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/pakfile"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// PointExtractor finds candidate points on a pyramid. Detect writes at most
// len(out) points and returns how many it wrote.
type PointExtractor interface {
	Detect(p *pyramid.Pyramid, out []keypoint.Keypoint) int
}

// PointClassifier assigns a model class and a log-confidence to a point.
// Recognize sets ClassIndex to -1 when the point cannot be classified.
type PointClassifier interface {
	Recognize(p *pyramid.Pyramid, k *keypoint.Keypoint)
	Save(w *pakfile.Writer) error
	Test(points []keypoint.Keypoint, octaves, radius, samples int, gen classifier.SampleGenerator) float32
}

// ClassifierLoader parses the classifier section of a model stream.
type ClassifierLoader func(r *pakfile.Reader) (PointClassifier, error)

// ImageGenerator synthesises warped views of the model image and persists
// the range of warps it draws from.
type ImageGenerator interface {
	classifier.SampleGenerator
	LoadTransformationRange(r *pakfile.Reader) error
	SaveTransformationRange(w *pakfile.Writer) error
	SetOriginalImage(img *imaging.Image)
	SetMask(u0, v0, u1, v1 int)
}

// HomographyEstimator robustly fits a homography to weighted
// correspondences. Ransac returns the inlier count and writes the model to
// h only when it found one.
type HomographyEstimator interface {
	ResetCorrespondences(n int)
	AddCorrespondence(mu, mv, iu, iv, weight float64)
	Ransac(h *homography.Homography, threshold float64, maxIterations int, confidence float64, weighted bool) int
}

func loadFern(r *pakfile.Reader) (PointClassifier, error) {
	f, err := classifier.Load(r)
	if err != nil {
		return nil, err
	}
	return f, nil
}
