package valuemodel

import (
	"math"
	"math/rand/v2"
)

// Estimator is an L2-regularised logistic regression over standardised features.
type Estimator struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Scales  []float64 `json:"scales"`
}

type fitParams struct {
	epochs       int
	learningRate float64
	l2           float64
	seed         uint64
}

// fit runs plain SGD. The visiting order is shuffled every epoch from a seeded source, so
// identical inputs always produce identical parameters.
func fit(xs [][]float64, ys []float64, p fitParams) Estimator {
	n := len(xs)
	dim := len(xs[0])

	means, scales := standardisation(xs, dim)
	scaled := make([][]float64, n)
	for i, x := range xs {
		scaled[i] = standardise(x, means, scales)
	}

	est := Estimator{
		Weights: make([]float64, dim),
		Means:   means,
		Scales:  scales,
	}

	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < p.epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		lr := p.learningRate / (1 + 0.01*float64(epoch))
		for _, idx := range order {
			x := scaled[idx]
			grad := sigmoid(est.linear(x)) - ys[idx]
			for j := range est.Weights {
				est.Weights[j] -= lr * (grad*x[j] + p.l2*est.Weights[j])
			}
			est.Bias -= lr * grad
		}
	}
	return est
}

// Score returns the win likelihood of a raw (unstandardised) feature vector.
func (e Estimator) Score(x []float64) float64 {
	return sigmoid(e.linear(standardise(x, e.Means, e.Scales)))
}

func (e Estimator) linear(scaled []float64) float64 {
	z := e.Bias
	for j, w := range e.Weights {
		z += w * scaled[j]
	}
	return z
}

// logLoss is the mean cross-entropy of the estimator over a sample set.
func (e Estimator) logLoss(xs [][]float64, ys []float64) float64 {
	const eps = 1e-12
	var total float64
	for i, x := range xs {
		p := math.Min(math.Max(e.Score(x), eps), 1-eps)
		total -= ys[i]*math.Log(p) + (1-ys[i])*math.Log(1-p)
	}
	return total / float64(len(xs))
}

func standardisation(xs [][]float64, dim int) (means, scales []float64) {
	means = make([]float64, dim)
	scales = make([]float64, dim)
	n := float64(len(xs))
	for _, x := range xs {
		for j := range dim {
			means[j] += x[j]
		}
	}
	for j := range dim {
		means[j] /= n
	}
	for _, x := range xs {
		for j := range dim {
			d := x[j] - means[j]
			scales[j] += d * d
		}
	}
	for j := range dim {
		scales[j] = math.Sqrt(scales[j] / n)
		// constant columns contribute nothing but must not divide by zero
		if scales[j] == 0 {
			scales[j] = 1
		}
	}
	return means, scales
}

func standardise(x, means, scales []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - means[j]) / scales[j]
	}
	return out
}

// sigmoid clamps its input so the result stays strictly inside (0, 1).
func sigmoid(z float64) float64 {
	z = math.Max(-30, math.Min(30, z))
	return 1 / (1 + math.Exp(-z))
}
