package homography

import (
	"math"
	"math/rand"
	"sort"

	"github.com/golang/geo/r2"
)

// sampleSize is the number of correspondences in a minimal sample.
const sampleSize = 4

// DefaultSeed seeds the sampler so that repeated fits of the same data
// give the same answer.
const DefaultSeed = 1

// Estimator fits a homography to weighted correspondences with RANSAC.
// It is not safe for concurrent use.
type Estimator struct {
	// Seed initialises the sampler at the start of every Ransac call.
	Seed int64

	correspondences []Correspondence
}

// NewEstimator returns an estimator using DefaultSeed.
func NewEstimator() *Estimator {
	return &Estimator{Seed: DefaultSeed}
}

// ResetCorrespondences drops all correspondences and reserves room for n.
func (e *Estimator) ResetCorrespondences(n int) {
	if cap(e.correspondences) < n {
		e.correspondences = make([]Correspondence, 0, n)
	}
	e.correspondences = e.correspondences[:0]
}

// AddCorrespondence adds a model point (mu, mv) matched to image point
// (iu, iv) with the given confidence weight.
func (e *Estimator) AddCorrespondence(mu, mv, iu, iv, weight float64) {
	e.correspondences = append(e.correspondences, correspondence(mu, mv, iu, iv, weight))
}

func correspondence(mu, mv, iu, iv, weight float64) Correspondence {
	return Correspondence{
		Model:  r2.Point{X: mu, Y: mv},
		Image:  r2.Point{X: iu, Y: iv},
		Weight: weight,
	}
}

// Correspondences returns the current correspondence set.
func (e *Estimator) Correspondences() []Correspondence {
	return e.correspondences
}

// Ransac fits a homography and writes it to h, returning the number of
// inliers: correspondences reprojected within threshold pixels. It draws
// at most maxIterations minimal samples, stopping earlier once the chance
// of having missed a better sample drops below 1-confidence. With weighted
// set, samples are drawn with probability proportional to weight.
//
// h is left untouched when no sample produced a model.
func (e *Estimator) Ransac(h *Homography, threshold float64, maxIterations int, confidence float64, weighted bool) int {
	cs := e.correspondences
	if len(cs) < sampleSize {
		return 0
	}

	rng := rand.New(rand.NewSource(e.Seed))
	sampler := newSampler(cs, weighted)
	threshold2 := threshold * threshold

	var best Homography
	bestInliers := 0
	needed := maxIterations
	sample := make([]Correspondence, sampleSize)

	for iter := 0; iter < needed && iter < maxIterations; iter++ {
		if !sampler.draw(rng, cs, sample) {
			continue
		}
		candidate, err := Fit(sample)
		if err != nil {
			continue
		}
		inliers := countInliers(candidate, cs, threshold2)
		if inliers > bestInliers {
			best, bestInliers = candidate, inliers
			needed = iterationsFor(confidence, float64(inliers)/float64(len(cs)), maxIterations)
		}
	}

	if bestInliers == 0 {
		return 0
	}

	// Refit on the consensus set; keep the refit only if it is no worse.
	consensus := make([]Correspondence, 0, bestInliers)
	for _, c := range cs {
		if best.squaredError(c) < threshold2 {
			consensus = append(consensus, c)
		}
	}
	if refined, err := Fit(consensus); err == nil {
		if n := countInliers(refined, cs, threshold2); n >= bestInliers {
			best, bestInliers = refined, n
		}
	}

	*h = best
	return bestInliers
}

func countInliers(h Homography, cs []Correspondence, threshold2 float64) int {
	n := 0
	for _, c := range cs {
		if h.squaredError(c) < threshold2 {
			n++
		}
	}
	return n
}

// iterationsFor returns the number of samples needed to draw one
// all-inlier sample with the given confidence.
func iterationsFor(confidence, inlierRatio float64, maxIterations int) int {
	if inlierRatio >= 1 {
		return 1
	}
	p := math.Pow(inlierRatio, sampleSize)
	if p <= 0 {
		return maxIterations
	}
	n := math.Log(1-confidence) / math.Log(1-p)
	if math.IsNaN(n) || n > float64(maxIterations) {
		return maxIterations
	}
	return int(math.Ceil(n))
}

// sampler draws minimal samples of distinct correspondences.
type sampler struct {
	weighted   bool
	cumulative []float64
}

func newSampler(cs []Correspondence, weighted bool) *sampler {
	s := &sampler{}
	if !weighted {
		return s
	}
	s.cumulative = make([]float64, len(cs))
	total := 0.0
	for i, c := range cs {
		if c.Weight > 0 {
			total += c.Weight
		}
		s.cumulative[i] = total
	}
	s.weighted = total > 0
	return s
}

func (s *sampler) index(rng *rand.Rand, n int) int {
	if !s.weighted {
		return rng.Intn(n)
	}
	total := s.cumulative[len(s.cumulative)-1]
	target := rng.Float64() * total
	i := sort.SearchFloat64s(s.cumulative, target)
	if i >= n {
		i = n - 1
	}
	return i
}

// draw fills sample with distinct correspondences. It gives up after a
// bounded number of attempts, which only happens when almost all weight
// sits on fewer than four correspondences.
func (s *sampler) draw(rng *rand.Rand, cs []Correspondence, sample []Correspondence) bool {
	var picked [sampleSize]int
	for k := 0; k < sampleSize; k++ {
		found := false
		for attempt := 0; attempt < 100 && !found; attempt++ {
			i := s.index(rng, len(cs))
			found = true
			for j := 0; j < k; j++ {
				if picked[j] == i {
					found = false
					break
				}
			}
			if found {
				picked[k] = i
			}
		}
		if !found {
			return false
		}
		sample[k] = cs[picked[k]]
	}
	return true
}
