// Package classifier holds the pre-trained patch classifier that maps an
// image patch around a keypoint to a model point class.
//
// The classifier is a random-ferns ensemble. Each fern applies depth binary
// intensity comparisons inside the patch; the resulting bit string selects a
// row of per-class log-probabilities. Rows are summed over ferns and the best
// class wins. Training is done elsewhere; this package loads, applies, saves
// and evaluates a trained ensemble.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/ironsheep/planar-detector/internal/imaging"
	"github.com/ironsheep/planar-detector/internal/keypoint"
	"github.com/ironsheep/planar-detector/internal/logging"
	"github.com/ironsheep/planar-detector/internal/pakfile"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

var logger = logging.New("classifier")

// ErrBadHeader is returned when a classifier record does not start with
// the ferns label or has impossible dimensions.
var ErrBadHeader = errors.New("classifier: bad ferns header")

const (
	label    = "ferns"
	maxDepth = 16
)

// binaryTest compares two pixels given as offsets from the patch centre.
type binaryTest struct {
	X1, Y1, X2, Y2 int
}

// within reports whether every offset lies in [-half, half].
func (t binaryTest) within(half int) bool {
	for _, o := range [...]int{t.X1, t.Y1, t.X2, t.Y2} {
		if o < -half || o > half {
			return false
		}
	}
	return true
}

// Fern is a trained ferns ensemble. It is not safe for concurrent use.
type Fern struct {
	classes   int
	ferns     int
	depth     int
	patchSize int

	tests    []binaryTest
	logProbs []float32

	scores []float32
}

// NewFern creates an ensemble with random tests inside a patchSize patch
// and uniform class posteriors.
func NewFern(classes, ferns, depth, patchSize int, rng *rand.Rand) (*Fern, error) {
	if classes <= 0 || ferns <= 0 || depth <= 0 || depth > maxDepth || patchSize <= 0 {
		return nil, fmt.Errorf("%w: %d classes, %d ferns, depth %d, patch %d",
			ErrBadHeader, classes, ferns, depth, patchSize)
	}
	f := newFern(classes, ferns, depth, patchSize)

	half := patchSize / 2
	offset := func() int { return rng.Intn(2*half+1) - half }
	for i := range f.tests {
		f.tests[i] = binaryTest{offset(), offset(), offset(), offset()}
	}

	uniform := float32(-math.Log(float64(classes)))
	for i := range f.logProbs {
		f.logProbs[i] = uniform
	}
	return f, nil
}

func newFern(classes, ferns, depth, patchSize int) *Fern {
	return &Fern{
		classes:   classes,
		ferns:     ferns,
		depth:     depth,
		patchSize: patchSize,
		tests:     make([]binaryTest, ferns*depth),
		logProbs:  make([]float32, ferns*(1<<depth)*classes),
		scores:    make([]float32, classes),
	}
}

// Classes returns the number of model point classes.
func (f *Fern) Classes() int { return f.classes }

// Ferns returns the number of ferns in the ensemble.
func (f *Fern) Ferns() int { return f.ferns }

// Depth returns the number of binary tests per fern.
func (f *Fern) Depth() int { return f.depth }

// PatchSize returns the patch width the tests were drawn in.
func (f *Fern) PatchSize() int { return f.patchSize }

// SetTest replaces test t of fern n. Offsets are relative to the patch centre.
func (f *Fern) SetTest(n, t, x1, y1, x2, y2 int) {
	f.tests[n*f.depth+t] = binaryTest{x1, y1, x2, y2}
}

// SetLogProbability sets log P(class | leaf) for fern n.
func (f *Fern) SetLogProbability(n, leaf, class int, lp float32) {
	f.logProbs[f.row(n, leaf)+class] = lp
}

// LogProbability returns log P(class | leaf) for fern n.
func (f *Fern) LogProbability(n, leaf, class int) float32 {
	return f.logProbs[f.row(n, leaf)+class]
}

func (f *Fern) row(n, leaf int) int {
	return (n<<f.depth + leaf) * f.classes
}

// leaf evaluates fern n on the patch centred at (u, v). The caller
// guarantees the patch lies inside level.
func (f *Fern) leaf(level *imaging.Image, u, v, n int) int {
	index := 0
	for _, t := range f.tests[n*f.depth : (n+1)*f.depth] {
		index <<= 1
		if level.At(u+t.X1, v+t.Y1) < level.At(u+t.X2, v+t.Y2) {
			index |= 1
		}
	}
	return index
}

// Recognize classifies k on its pyramid octave. It sets k.ClassIndex to
// the best class and k.Score to the mean log-probability of that class
// over the ferns, so exp(k.Score) lies in (0, 1]. Points whose patch does
// not fit in the level get ClassIndex -1.
func (f *Fern) Recognize(p *pyramid.Pyramid, k *keypoint.Keypoint) {
	k.ClassIndex = -1
	k.Score = 0

	level := p.Level(k.Octave())
	if level == nil {
		return
	}
	u := int(k.U + 0.5)
	v := int(k.V + 0.5)
	half := f.patchSize / 2
	if u-half < 0 || v-half < 0 || u+half >= level.Width || v+half >= level.Height {
		return
	}

	for c := range f.scores {
		f.scores[c] = 0
	}
	for n := 0; n < f.ferns; n++ {
		row := f.logProbs[f.row(n, f.leaf(level, u, v, n)):]
		for c := range f.scores {
			f.scores[c] += row[c]
		}
	}

	best := 0
	for c := 1; c < f.classes; c++ {
		if f.scores[c] > f.scores[best] {
			best = c
		}
	}
	k.ClassIndex = best
	k.Score = f.scores[best] / float32(f.ferns)
}

// Save writes the ensemble as a ferns record.
func (f *Fern) Save(w *pakfile.Writer) error {
	w.Line(label, f.classes, f.ferns, f.depth, f.patchSize)
	for _, t := range f.tests {
		w.Line(t.X1, t.Y1, t.X2, t.Y2)
	}
	if err := pakfile.WriteBuffer(w, f.logProbs); err != nil {
		return fmt.Errorf("classifier: save posteriors: %w", err)
	}
	return w.Err()
}

// Load reads a ferns record written by Save.
func Load(r *pakfile.Reader) (*Fern, error) {
	tok, err := r.Token()
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if tok != label {
		return nil, fmt.Errorf("%w: got label %q", ErrBadHeader, tok)
	}

	var classes, ferns, depth, patchSize int
	if err := r.Ints(&classes, &ferns, &depth, &patchSize); err != nil {
		return nil, fmt.Errorf("classifier: header: %w", err)
	}
	if classes <= 0 || ferns <= 0 || depth <= 0 || depth > maxDepth || patchSize <= 0 {
		return nil, fmt.Errorf("%w: %d classes, %d ferns, depth %d, patch %d",
			ErrBadHeader, classes, ferns, depth, patchSize)
	}

	logger.Verbosef("%d classes, %d ferns of depth %d, patch size %d", classes, ferns, depth, patchSize)

	f := newFern(classes, ferns, depth, patchSize)
	half := patchSize / 2
	for i := range f.tests {
		t := &f.tests[i]
		if err := r.Ints(&t.X1, &t.Y1, &t.X2, &t.Y2); err != nil {
			return nil, fmt.Errorf("classifier: test %d: %w", i, err)
		}
		if !t.within(half) {
			return nil, fmt.Errorf("%w: test %d offsets %v exceed patch radius %d", ErrBadHeader, i, *t, half)
		}
	}

	logProbs, err := pakfile.ReadBuffer[float32](r)
	if err != nil {
		return nil, fmt.Errorf("classifier: posteriors: %w", err)
	}
	if len(logProbs) != len(f.logProbs) {
		return nil, fmt.Errorf("%w: %d posteriors, want %d", ErrBadHeader, len(logProbs), len(f.logProbs))
	}
	f.logProbs = logProbs
	return f, nil
}
