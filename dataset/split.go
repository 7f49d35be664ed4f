package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Split is a stratified train/valid/test partition.
type Split struct {
	Train *Dataset
	Valid *Dataset
	Test  *Dataset
}

var partNames = [3]string{"train", "valid", "test"}

// SplitStratified partitions ds so that every label keeps its proportion in
// each part to within one record. Ratios must be non-negative and sum to 1.
// A label too small to place one record in every part with a positive ratio
// is an input error.
// The result depends only on ds and the state of r.
func SplitStratified(ds *Dataset, train, valid, test float64, r *rand.Rand) (Split, error) {
	ratios := []float64{train, valid, test}
	sum := 0.0
	for _, v := range ratios {
		if v < 0 || math.IsNaN(v) {
			return Split{}, fault.Configuration("dataset: split ratio must be >= 0: %g", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		return Split{}, fault.Configuration("dataset: split ratios must sum to 1, got %g", sum)
	}
	if ds == nil || ds.Len() == 0 {
		return Split{}, fault.Input("dataset: nothing to split")
	}

	parts := make([][]int, len(ratios))
	for _, label := range ds.ClassLabels() {
		idx := ds.Indices(label)
		shares := apportion(len(idx), ratios)
		for p, n := range shares {
			if n == 0 && ratios[p] > 0 {
				return Split{}, fault.Input("dataset: label %d has %d records, too few to reach the %s partition",
					label, len(idx), partNames[p])
			}
		}
		r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		start := 0
		for p, n := range shares {
			parts[p] = append(parts[p], idx[start:start+n]...)
			start += n
		}
	}

	for _, p := range parts {
		r.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	}

	return Split{
		Train: ds.Subset(parts[0]),
		Valid: ds.Subset(parts[1]),
		Test:  ds.Subset(parts[2]),
	}, nil
}

// apportion distributes n items over ratios by largest remainder. Every
// share is the floor or the ceiling of its exact quota and the shares sum
// to n. Ties go to the earlier part.
func apportion(n int, ratios []float64) []int {
	shares := make([]int, len(ratios))
	type rem struct {
		part int
		frac float64
	}
	rems := make([]rem, len(ratios))

	assigned := 0
	for i, ratio := range ratios {
		exact := float64(n) * ratio
		// Guard against 0.6*10 = 5.999999999.
		floor := math.Floor(exact + 1e-9)
		shares[i] = int(floor)
		assigned += shares[i]
		rems[i] = rem{part: i, frac: exact - floor}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < n; i++ {
		shares[rems[i%len(rems)].part]++
		assigned++
	}

	return shares
}
