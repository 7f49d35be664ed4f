package nn

import "math"

// probEpsilon bounds probabilities away from 0 and 1 inside the loss.
const probEpsilon = 1e-7

// BinaryCrossEntropy returns the weighted mean binary cross-entropy of probs
// against 0/1 targets and its gradient with respect to probs. A nil weights
// slice weights every sample by 1. The mean divides by the sample count,
// not by the weight sum.
func BinaryCrossEntropy(probs, targets, weights []float64) (float64, []float64) {
	grad := make([]float64, len(probs))
	if len(probs) == 0 {
		return 0, grad
	}

	n := float64(len(probs))
	var loss float64
	for i, p := range probs {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		y := targets[i]

		clipped := math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
		loss -= w * (y*math.Log(clipped) + (1-y)*math.Log(1-clipped))

		if p > probEpsilon && p < 1-probEpsilon {
			grad[i] = -w * (y/clipped - (1-y)/(1-clipped)) / n
		}
	}
	return loss / n, grad
}

// penalty returns the summed L2 terms of params.
func penalty(params []*Param) float64 {
	var sum float64
	for _, p := range params {
		if p.L2 == 0 {
			continue
		}
		var sq float64
		for _, v := range p.Value {
			sq += v * v
		}
		sum += p.L2 * sq
	}
	return sum
}

// addPenaltyGradients adds 2*L2*w to the gradient of every penalized param.
func addPenaltyGradients(params []*Param) {
	for _, p := range params {
		if p.L2 == 0 {
			continue
		}
		for i, v := range p.Value {
			p.Grad[i] += 2 * p.L2 * v
		}
	}
}
