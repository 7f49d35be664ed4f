package nn

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

const (
	gradStep = 1e-5
	gradRel  = 1e-4
	gradAbs  = 1e-6
)

func randomTensor(r *rand.Rand, shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = r.NormFloat64()
	}
	return t
}

// objective returns sum(layer(x) * weights).
func objective(l Layer, x *Tensor, weights []float64, training bool) float64 {
	return dot(l.forward(x, training).Data, weights)
}

// checkLayer compares analytic input and parameter gradients of
// sum(layer(x) * w) against central differences.
func checkLayer(t *testing.T, l Layer, in []int, batch int) {
	t.Helper()
	r := rand.New(rand.NewPCG(11, 17))
	out, err := l.build(in, r)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	x := randomTensor(r, append([]int{batch}, in...)...)
	w := randomTensor(r, append([]int{batch}, out...)...)

	for _, p := range l.params() {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
	l.forward(x, true)
	dx := l.backward(w)

	for i := range x.Data {
		orig := x.Data[i]
		x.Data[i] = orig + gradStep
		plus := objective(l, x, w.Data, true)
		x.Data[i] = orig - gradStep
		minus := objective(l, x, w.Data, true)
		x.Data[i] = orig

		numeric := (plus - minus) / (2 * gradStep)
		testutil.RequireGradientClose(t, fmt.Sprintf("%s dx[%d]", l.Kind(), i), dx.Data[i], numeric, gradRel, gradAbs)
	}

	for _, p := range l.params() {
		if !p.Trainable {
			continue
		}
		for i := range p.Value {
			orig := p.Value[i]
			p.Value[i] = orig + gradStep
			plus := objective(l, x, w.Data, true)
			p.Value[i] = orig - gradStep
			minus := objective(l, x, w.Data, true)
			p.Value[i] = orig

			numeric := (plus - minus) / (2 * gradStep)
			testutil.RequireGradientClose(t, fmt.Sprintf("%s %s[%d]", l.Kind(), p.Name, i), p.Grad[i], numeric, gradRel, gradAbs)
		}
	}
}

func TestConv1DGradients(t *testing.T) {
	checkLayer(t, NewConv1D(3, 2, ReLU), []int{5, 4}, 2)
	checkLayer(t, NewConv1D(2, 3, Linear), []int{3, 2}, 3)
}

func TestBatchNormGradients(t *testing.T) {
	checkLayer(t, NewBatchNorm(), []int{3, 4}, 4)
	checkLayer(t, NewBatchNorm(), []int{5}, 6)
}

func TestMaxPool1DGradients(t *testing.T) {
	checkLayer(t, NewMaxPool1D(2), []int{5, 3}, 2)
}

func TestLSTMGradients(t *testing.T) {
	checkLayer(t, NewLSTM(3, 0.01), []int{4, 2}, 2)
}

func TestDenseGradients(t *testing.T) {
	checkLayer(t, NewDense(3, ReLU, 0.01), []int{4}, 3)
	checkLayer(t, NewDense(1, Sigmoid, 0), []int{5}, 4)
}

func TestConv1DValues(t *testing.T) {
	l := NewConv1D(1, 2, Linear)
	if _, err := l.build([]int{3, 1}, rand.New(rand.NewPCG(1, 1))); err != nil {
		t.Fatal(err)
	}
	copy(l.w.Value, []float64{1, -1})
	l.b.Value[0] = 0.5

	y := l.forward(&Tensor{Shape: []int{1, 3, 1}, Data: []float64{1, 4, 9}}, false)
	testutil.RequireSliceNearlyEqual(t, y.Data, []float64{-2.5, -4.5}, 1e-12)
}

func TestMaxPool1DDropsTail(t *testing.T) {
	l := NewMaxPool1D(2)
	out, err := l.build([]int{5, 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 2 {
		t.Fatalf("steps = %d, want 2", out[0])
	}

	y := l.forward(&Tensor{Shape: []int{1, 5, 1}, Data: []float64{1, 3, 7, 2, 100}}, false)
	testutil.RequireSliceNearlyEqual(t, y.Data, []float64{3, 7}, 0)

	if _, err := NewMaxPool1D(2).build([]int{1, 4}, nil); err == nil {
		t.Fatal("expected error for a single step")
	}
}

func TestBatchNormInferenceUsesMovingStats(t *testing.T) {
	l := NewBatchNorm()
	if _, err := l.build([]int{2}, nil); err != nil {
		t.Fatal(err)
	}

	x := &Tensor{Shape: []int{2, 2}, Data: []float64{1, 10, 3, 30}}
	l.forward(x, true)

	want := []float64{0.01 * 2, 0.01 * 20}
	testutil.RequireSliceNearlyEqual(t, l.mean.Value, want, 1e-12)
	testutil.RequireSliceNearlyEqual(t, l.variance.Value, []float64{0.99 + 0.01*1, 0.99 + 0.01*100}, 1e-12)

	y := l.forward(&Tensor{Shape: []int{1, 2}, Data: []float64{0.02, 0.2}}, false)
	testutil.RequireSliceNearlyEqual(t, y.Data, []float64{0, 0}, 1e-12)
}

func TestDropout(t *testing.T) {
	l := NewDropout(0.5)
	if _, err := l.build([]int{1000}, rand.New(rand.NewPCG(3, 4))); err != nil {
		t.Fatal(err)
	}

	x := NewTensor(1, 1000)
	for i := range x.Data {
		x.Data[i] = 1
	}
	if y := l.forward(x, false); y != x {
		t.Fatal("inference dropout must be the identity")
	}

	y := l.forward(x, true)
	kept := 0
	for _, v := range y.Data {
		switch v {
		case 0:
		case 2:
			kept++
		default:
			t.Fatalf("unexpected value %v", v)
		}
	}
	if kept < 400 || kept > 600 {
		t.Fatalf("kept %d of 1000 at rate 0.5", kept)
	}

	dx := l.backward(x)
	testutil.RequireSliceNearlyEqual(t, dx.Data, y.Data, 0)

	if _, err := NewDropout(1).build([]int{1}, rand.New(rand.NewPCG(1, 1))); err == nil {
		t.Fatal("expected error for rate 1")
	}
}

func TestLSTMForgetBias(t *testing.T) {
	l := NewLSTM(2, 0)
	if _, err := l.build([]int{3, 1}, rand.New(rand.NewPCG(1, 1))); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, l.bias.Value, []float64{0, 0, 1, 1, 0, 0, 0, 0}, 0)
}

func TestOrthogonal(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for _, dims := range [][2]int{{3, 12}, {6, 2}, {4, 4}} {
		rows, cols := dims[0], dims[1]
		m := orthogonal(r, rows, cols)

		// Gram matrix of the short side must be the identity.
		k := min(rows, cols)
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				var s float64
				for i := 0; i < max(rows, cols); i++ {
					if rows <= cols {
						s += m[a*cols+i] * m[b*cols+i]
					} else {
						s += m[i*cols+a] * m[i*cols+b]
					}
				}
				want := 0.0
				if a == b {
					want = 1
				}
				testutil.RequireGradientClose(t, fmt.Sprintf("%dx%d gram[%d][%d]", rows, cols, a, b), s, want, 0, 1e-12)
			}
		}
	}
}

func TestActivationNames(t *testing.T) {
	for _, a := range []Activation{Linear, ReLU, Sigmoid, Tanh} {
		got, err := ParseActivation(a.String())
		if err != nil || got != a {
			t.Fatalf("ParseActivation(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseActivation("swish"); err == nil {
		t.Fatal("expected error")
	}
	if s := sigmoid(-800); s != 0 {
		t.Fatalf("sigmoid(-800) = %v", s)
	}
	if s := sigmoid(0); s != 0.5 {
		t.Fatalf("sigmoid(0) = %v", s)
	}
}
