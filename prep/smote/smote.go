package smote

import (
	"math/rand/v2"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// DefaultNeighbors is the neighborhood size used when none is configured.
const DefaultNeighbors = 5

// Option configures Balance.
type Option func(*config)

type config struct {
	neighbors int
	rand      *rand.Rand
}

// WithNeighbors sets the neighborhood size k.
func WithNeighbors(k int) Option {
	return func(c *config) { c.neighbors = k }
}

// WithRand sets the generator used to pick samples, neighbors and gaps.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rand = r }
}

// Result is a balanced copy of the input.
type Result struct {
	// X holds the original rows in input order followed by synthetic rows.
	X [][]float64
	Y []int

	// Synthesized counts the appended rows.
	Synthesized int

	// Neighbors records, per oversampled class, the effective k.
	Neighbors map[int]int
}

// Counts returns the number of rows per label in r.
func (r Result) Counts() map[int]int {
	out := make(map[int]int, 2)
	for _, l := range r.Y {
		out[l]++
	}
	return out
}

// Balance oversamples every non-majority class of (x, y) to the majority
// count. A class with k or fewer members uses count-1 neighbors. The inputs
// are not modified.
func Balance(x [][]float64, y []int, opts ...Option) (Result, error) {
	cfg := config{neighbors: DefaultNeighbors}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateNeighbors(cfg.neighbors); err != nil {
		return Result{}, err
	}
	if cfg.rand == nil {
		cfg.rand = rand.New(rand.NewPCG(0, 0))
	}
	if err := validateInput(x, y); err != nil {
		return Result{}, err
	}

	byClass := make(map[int][]int)
	for i, l := range y {
		byClass[l] = append(byClass[l], i)
	}
	labels := make([]int, 0, len(byClass))
	majority := 0
	for l, idx := range byClass {
		labels = append(labels, l)
		majority = max(majority, len(idx))
	}
	sort.Ints(labels)

	res := Result{
		X:         make([][]float64, len(x)),
		Y:         append([]int(nil), y...),
		Neighbors: make(map[int]int),
	}
	for i, row := range x {
		res.X[i] = append([]float64(nil), row...)
	}

	for _, l := range labels {
		members := byClass[l]
		need := majority - len(members)
		if need == 0 {
			continue
		}
		if len(members) < 2 {
			return Result{}, errors.Wrapf(ErrTooFewSamples, "class %d has %d", l, len(members))
		}

		k := min(cfg.neighbors, len(members)-1)
		res.Neighbors[l] = k
		nn := nearest(x, members, k)

		for range need {
			i := cfg.rand.IntN(len(members))
			j := nn[i][cfg.rand.IntN(k)]
			gap := cfg.rand.Float64()
			res.X = append(res.X, interpolate(x[members[i]], x[j], gap))
			res.Y = append(res.Y, l)
		}
		res.Synthesized += need
	}

	return res, nil
}

func validateInput(x [][]float64, y []int) error {
	if len(x) == 0 {
		return fault.Input("smote: no samples")
	}
	if len(x) != len(y) {
		return fault.Input("smote: %d rows but %d labels", len(x), len(y))
	}
	for i, row := range x {
		if len(row) != len(x[0]) {
			return fault.Input("smote: row %d has %d features, want %d", i, len(row), len(x[0]))
		}
	}
	return nil
}

// nearest returns, for each member, the row indices of its k nearest other
// members by Euclidean distance. Ties keep the lower index.
func nearest(x [][]float64, members []int, k int) [][]int {
	out := make([][]int, len(members))
	type cand struct {
		row  int
		dist float64
	}
	cands := make([]cand, 0, len(members)-1)

	for a, ra := range members {
		cands = cands[:0]
		for b, rb := range members {
			if a == b {
				continue
			}
			cands = append(cands, cand{row: rb, dist: squaredDistance(x[ra], x[rb])})
		}
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

		out[a] = make([]int, k)
		for i := range k {
			out[a][i] = cands[i].row
		}
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// interpolate returns a + gap*(b-a).
func interpolate(a, b []float64, gap float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = b[i] - a[i]
	}
	vecmath.ScaleBlock(out, out, gap)
	vecmath.AddBlockInPlace(out, a)
	return out
}
