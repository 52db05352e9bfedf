// Package homography provides the planar projective transform and the
// robust estimators that fit it to weighted point correspondences.
//
// Two estimators implement the same contract: Estimator, a pure-Go weighted
// RANSAC that is always available, and OpenCVEstimator, which defers to
// OpenCV's findHomography and is only functional when built with the gocv
// tag.
package homography

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

// ErrDegenerate is returned when a point configuration does not determine
// a homography (collinear or coincident points).
var ErrDegenerate = errors.New("homography: degenerate point configuration")

// Homography is a 3x3 matrix in row-major order mapping model coordinates
// to image coordinates.
type Homography [9]float64

// Identity returns the identity transform.
func Identity() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Transform maps p through the homography. Points sent to infinity come
// back with infinite coordinates.
func (h Homography) Transform(p r2.Point) r2.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return r2.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// TransformPoint maps (u, v) through the homography.
func (h Homography) TransformPoint(u, v float64) (float64, float64) {
	q := h.Transform(r2.Point{X: u, Y: v})
	return q.X, q.Y
}

// Normalized returns h scaled so that its last element is one. It returns
// h unchanged when that element is zero.
func (h Homography) Normalized() Homography {
	if h[8] == 0 {
		return h
	}
	for i := range h {
		h[i] /= h[8]
	}
	return h
}

// Correspondence is a weighted pair of matching points.
type Correspondence struct {
	Model  r2.Point
	Image  r2.Point
	Weight float64
}

// squaredError returns the squared reprojection distance of c under h.
func (h Homography) squaredError(c Correspondence) float64 {
	q := h.Transform(c.Model)
	d := q.Sub(c.Image)
	e := d.Dot(d)
	if math.IsNaN(e) {
		return math.Inf(1)
	}
	return e
}

// Fit solves for the homography through all correspondences in the least
// squares sense, fixing the last matrix element to one. At least four
// correspondences are needed. Weights are ignored.
func Fit(cs []Correspondence) (Homography, error) {
	if len(cs) < 4 {
		return Homography{}, ErrDegenerate
	}

	// Normalise both point sets for conditioning.
	tm := normalization(cs, func(c Correspondence) r2.Point { return c.Model })
	ti := normalization(cs, func(c Correspondence) r2.Point { return c.Image })

	// Accumulate the normal equations A^T A x = A^T b of the 2n x 8 system.
	var ata [8][8]float64
	var atb [8]float64
	for _, c := range cs {
		m := tm.apply(c.Model)
		d := ti.apply(c.Image)
		rows := [2][8]float64{
			{m.X, m.Y, 1, 0, 0, 0, -m.X * d.X, -m.Y * d.X},
			{0, 0, 0, m.X, m.Y, 1, -m.X * d.Y, -m.Y * d.Y},
		}
		rhs := [2]float64{d.X, d.Y}
		for k := 0; k < 2; k++ {
			for i := 0; i < 8; i++ {
				atb[i] += rows[k][i] * rhs[k]
				for j := 0; j < 8; j++ {
					ata[i][j] += rows[k][i] * rows[k][j]
				}
			}
		}
	}

	x, err := solve8(ata, atb)
	if err != nil {
		return Homography{}, err
	}

	hn := Homography{x[0], x[1], x[2], x[3], x[4], x[5], x[6], x[7], 1}
	h := ti.inverse().mul(hn).mul(tm.matrix())
	h = h.Normalized()
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, ErrDegenerate
		}
	}
	return h, nil
}

// similarity is the isotropic scaling and translation used to condition
// point sets before solving.
type similarity struct {
	s, tx, ty float64
}

func normalization(cs []Correspondence, pick func(Correspondence) r2.Point) similarity {
	var c r2.Point
	for _, x := range cs {
		c = c.Add(pick(x))
	}
	c = c.Mul(1 / float64(len(cs)))

	var mean float64
	for _, x := range cs {
		mean += pick(x).Sub(c).Norm()
	}
	mean /= float64(len(cs))
	s := 1.0
	if mean > 0 {
		s = math.Sqrt2 / mean
	}
	return similarity{s: s, tx: -s * c.X, ty: -s * c.Y}
}

func (t similarity) apply(p r2.Point) r2.Point {
	return r2.Point{X: t.s*p.X + t.tx, Y: t.s*p.Y + t.ty}
}

func (t similarity) matrix() Homography {
	return Homography{t.s, 0, t.tx, 0, t.s, t.ty, 0, 0, 1}
}

func (t similarity) inverse() Homography {
	return Homography{1 / t.s, 0, -t.tx / t.s, 0, 1 / t.s, -t.ty / t.s, 0, 0, 1}
}

// mul returns h * o.
func (h Homography) mul(o Homography) Homography {
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			for k := 0; k < 3; k++ {
				out[3*r+c] += h[3*r+k] * o[3*k+c]
			}
		}
	}
	return out
}

// solve8 solves a dense 8x8 linear system by Gaussian elimination with
// partial pivoting.
func solve8(a [8][8]float64, b [8]float64) ([8]float64, error) {
	const eps = 1e-12
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return [8]float64{}, ErrDegenerate
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < 8; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	var x [8]float64
	for r := 7; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < 8; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
