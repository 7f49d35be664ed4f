package nn

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// FitConfig is the training protocol.
type FitConfig struct {
	Epochs    int
	BatchSize int

	// Patience stops training after that many epochs without a lower
	// monitored loss and restores the best weights. Zero disables early
	// stopping.
	Patience int

	// ClassWeights scales each sample's loss by the weight of its label.
	// Labels without an entry weigh 1.
	ClassWeights map[int]float64

	// Shuffle permutes the training order every epoch. Nil keeps the input
	// order.
	Shuffle *rand.Rand

	// Dropout reseeds the masks of every dropout layer before training.
	// Nil keeps the streams split off the build generator.
	Dropout *rand.Rand
}

// Epoch is one row of the training history.
type Epoch struct {
	Epoch       int     `json:"epoch" csv:"epoch"`
	Loss        float64 `json:"loss" csv:"loss"`
	Accuracy    float64 `json:"accuracy" csv:"accuracy"`
	ValLoss     float64 `json:"val_loss" csv:"val_loss"`
	ValAccuracy float64 `json:"val_accuracy" csv:"val_accuracy"`
}

// History records a training run.
type History struct {
	Epochs []Epoch

	// BestEpoch indexes Epochs at the lowest monitored loss.
	BestEpoch int

	// Stopped is set when early stopping ended training before Epochs.
	Stopped bool
}

// Best returns the epoch whose weights the model holds after early
// stopping.
func (h History) Best() Epoch {
	if len(h.Epochs) == 0 {
		return Epoch{}
	}
	return h.Epochs[h.BestEpoch]
}

// Fit trains m with opt on (x, y). When valX is non-nil the validation loss
// is monitored, otherwise the training loss is. Labels must be 0 or 1 and
// the model must output one probability per sample.
func (m *Sequential) Fit(opt *Adam, x *Tensor, y []int, valX *Tensor, valY []int, cfg FitConfig) (History, error) {
	if err := m.checkBinary(x, y); err != nil {
		return History{}, err
	}
	if valX != nil {
		if err := m.checkBinary(valX, valY); err != nil {
			return History{}, err
		}
	}
	if err := validatePositive("epochs", cfg.Epochs); err != nil {
		return History{}, err
	}
	if err := validatePositive("batch size", cfg.BatchSize); err != nil {
		return History{}, err
	}

	if cfg.Dropout != nil {
		m.reseedDropout(cfg.Dropout)
	}

	n := x.Batch()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	params := m.Params()

	var (
		hist = History{BestEpoch: -1}
		best = math.Inf(1)
		snap [][]float64
		wait int
	)
	for e := 0; e < cfg.Epochs; e++ {
		if cfg.Shuffle != nil {
			cfg.Shuffle.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		var correct int
		for lo := 0; lo < n; lo += cfg.BatchSize {
			idx := order[lo:min(lo+cfg.BatchSize, n)]
			loss, right, err := m.trainBatch(opt, params, x.Rows(idx), pick(y, idx), cfg.ClassWeights)
			if err != nil {
				return hist, err
			}
			lossSum += loss * float64(len(idx))
			correct += right
		}

		ep := Epoch{
			Epoch:    e + 1,
			Loss:     lossSum / float64(n),
			Accuracy: float64(correct) / float64(n),
		}
		if math.IsNaN(ep.Loss) || math.IsInf(ep.Loss, 0) {
			return hist, fault.Numeric("nn: non-finite training loss at epoch %d", ep.Epoch)
		}

		monitor := ep.Loss
		if valX != nil {
			var err error
			ep.ValLoss, ep.ValAccuracy, err = m.Evaluate(valX, valY, cfg.BatchSize)
			if err != nil {
				return hist, err
			}
			monitor = ep.ValLoss
		}
		hist.Epochs = append(hist.Epochs, ep)

		if monitor < best {
			best = monitor
			hist.BestEpoch = e
			wait = 0
			if cfg.Patience > 0 {
				snap = m.snapshot()
			}
			continue
		}
		wait++
		if cfg.Patience > 0 && wait >= cfg.Patience {
			hist.Stopped = true
			break
		}
	}

	if cfg.Patience > 0 && snap != nil {
		m.restore(snap)
	} else {
		hist.BestEpoch = len(hist.Epochs) - 1
	}
	return hist, nil
}

// trainBatch runs one forward/backward/update step and returns the batch
// loss including L2 penalties and the number of correct predictions.
func (m *Sequential) reseedDropout(r *rand.Rand) {
	for _, l := range m.layers {
		if d, ok := l.(*Dropout); ok {
			d.rand = rand.New(rand.NewPCG(r.Uint64(), r.Uint64()))
		}
	}
}

func (m *Sequential) trainBatch(opt *Adam, params []*Param, x *Tensor, y []int, weights map[int]float64) (float64, int, error) {
	m.zeroGrad()
	out, err := m.Forward(x, true)
	if err != nil {
		return 0, 0, err
	}

	targets := make([]float64, len(y))
	var sw []float64
	if weights != nil {
		sw = make([]float64, len(y))
	}
	for i, l := range y {
		targets[i] = float64(l)
		if sw != nil {
			w, ok := weights[l]
			if !ok {
				w = 1
			}
			sw[i] = w
		}
	}

	loss, grad := BinaryCrossEntropy(out.Data, targets, sw)
	loss += penalty(params)
	m.backward(&Tensor{Shape: out.Shape, Data: grad})
	addPenaltyGradients(params)
	opt.Step(params)

	return loss, hits(out.Data, y), nil
}

// Evaluate returns the unweighted loss including L2 penalties and the
// accuracy at threshold 0.5.
func (m *Sequential) Evaluate(x *Tensor, y []int, batchSize int) (float64, float64, error) {
	if err := m.checkBinary(x, y); err != nil {
		return 0, 0, err
	}
	probs, err := m.Predict(x, batchSize)
	if err != nil {
		return 0, 0, err
	}

	targets := make([]float64, len(y))
	for i, l := range y {
		targets[i] = float64(l)
	}
	loss, _ := BinaryCrossEntropy(probs, targets, nil)
	loss += penalty(m.Params())
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, 0, fault.Numeric("nn: non-finite evaluation loss")
	}
	return loss, float64(hits(probs, y)) / float64(len(y)), nil
}

func (m *Sequential) checkBinary(x *Tensor, y []int) error {
	if x == nil || x.Batch() == 0 {
		return fault.Input("nn: no samples")
	}
	if x.Batch() != len(y) {
		return fault.Input("nn: %d samples but %d labels", x.Batch(), len(y))
	}
	if volume(m.output) != 1 {
		return fault.Configuration("nn: binary training needs a single output, model has %v", m.output)
	}
	for i, l := range y {
		if l != 0 && l != 1 {
			return fault.Input("nn: label %d at %d is not binary", l, i)
		}
	}
	return nil
}

func hits(probs []float64, y []int) int {
	n := 0
	for i, p := range probs {
		pred := 0
		if p > 0.5 {
			pred = 1
		}
		if pred == y[i] {
			n++
		}
	}
	return n
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
