// Package metrics scores binary classifiers: thresholding, confusion
// counts, F1, accuracy and inverse-frequency class weights.
package metrics

import (
	"sort"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// DefaultThreshold separates positive from negative probabilities.
const DefaultThreshold = 0.5

// Confusion holds binary confusion counts with 1 as the positive class.
type Confusion struct {
	TN int `json:"tn" csv:"tn"`
	FP int `json:"fp" csv:"fp"`
	FN int `json:"fn" csv:"fn"`
	TP int `json:"tp" csv:"tp"`
}

// NewConfusion counts predictions against truth. Both slices must have
// equal length and hold only 0 and 1.
func NewConfusion(truth, pred []int) (Confusion, error) {
	if len(truth) != len(pred) {
		return Confusion{}, fault.Input("metrics: %d labels but %d predictions", len(truth), len(pred))
	}

	var c Confusion
	for i := range truth {
		switch {
		case truth[i] == 0 && pred[i] == 0:
			c.TN++
		case truth[i] == 0 && pred[i] == 1:
			c.FP++
		case truth[i] == 1 && pred[i] == 0:
			c.FN++
		case truth[i] == 1 && pred[i] == 1:
			c.TP++
		default:
			return Confusion{}, fault.Input("metrics: non-binary pair (%d, %d) at %d", truth[i], pred[i], i)
		}
	}
	return c, nil
}

// Total returns the number of scored samples.
func (c Confusion) Total() int { return c.TN + c.FP + c.FN + c.TP }

// F1 returns 2TP / (2TP + FP + FN), or 0 when there are no positives in
// either truth or prediction.
func (c Confusion) F1() float64 {
	den := 2*c.TP + c.FP + c.FN
	if den == 0 {
		return 0
	}
	return float64(2*c.TP) / float64(den)
}

// Accuracy returns the share of correct predictions, or 0 when empty.
func (c Confusion) Accuracy() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.TN+c.TP) / float64(c.Total())
}

// Precision returns TP / (TP + FP), or 0 without positive predictions.
func (c Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall returns TP / (TP + FN), or 0 without positive samples.
func (c Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// Matrix returns the counts as rows of truth and columns of prediction.
func (c Confusion) Matrix() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

// Threshold maps probabilities strictly above t to 1 and the rest to 0.
func Threshold(probs []float64, t float64) []int {
	out := make([]int, len(probs))
	for i, p := range probs {
		if p > t {
			out[i] = 1
		}
	}
	return out
}

// Score thresholds probs at t and counts the result against truth.
func Score(truth []int, probs []float64, t float64) (Confusion, error) {
	return NewConfusion(truth, Threshold(probs, t))
}

// ClassWeights returns n / (classes * count) for every label present.
func ClassWeights(labels []int) (map[int]float64, error) {
	if len(labels) == 0 {
		return nil, fault.Input("metrics: no labels to weight")
	}

	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}

	n := float64(len(labels))
	k := float64(len(counts))
	out := make(map[int]float64, len(counts))
	for l, c := range counts {
		out[l] = n / (k * float64(c))
	}
	return out, nil
}

// SampleWeights expands class weights to one weight per label.
func SampleWeights(labels []int, weights map[int]float64) []float64 {
	out := make([]float64, len(labels))
	for i, l := range labels {
		w, ok := weights[l]
		if !ok {
			w = 1
		}
		out[i] = w
	}
	return out
}

// Labels returns the sorted distinct keys of a weight map.
func Labels(weights map[int]float64) []int {
	out := make([]int, 0, len(weights))
	for l := range weights {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
