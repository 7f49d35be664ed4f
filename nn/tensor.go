package nn

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Tensor is a dense row-major float64 array. The first axis is the batch.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor allocates a zero tensor.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float64, volume(shape))}
}

// FromSamples stacks flattened samples into a tensor with per-sample shape
// sample. Data is copied.
func FromSamples(samples [][]float64, sample ...int) (*Tensor, error) {
	size := volume(sample)
	if size == 0 {
		return nil, fault.Input("nn: empty sample shape %v", sample)
	}

	t := NewTensor(append([]int{len(samples)}, sample...)...)
	for i, s := range samples {
		if len(s) != size {
			return nil, fault.Input("nn: sample %d has %d values, want %d", i, len(s), size)
		}
		copy(t.Data[i*size:], s)
	}
	return t, nil
}

// Batch returns the size of the first axis.
func (t *Tensor) Batch() int { return t.Shape[0] }

// SampleShape returns the shape without the batch axis.
func (t *Tensor) SampleShape() []int { return t.Shape[1:] }

// SampleSize returns the number of values per sample.
func (t *Tensor) SampleSize() int { return volume(t.Shape[1:]) }

// Sample returns sample i. The slice aliases t.
func (t *Tensor) Sample(i int) []float64 {
	n := t.SampleSize()
	return t.Data[i*n : (i+1)*n]
}

// Rows gathers the samples at idx into a new tensor.
func (t *Tensor) Rows(idx []int) *Tensor {
	out := NewTensor(append([]int{len(idx)}, t.Shape[1:]...)...)
	n := t.SampleSize()
	for i, j := range idx {
		copy(out.Data[i*n:(i+1)*n], t.Sample(j))
	}
	return out
}

// Slice returns samples [lo, hi) as a new tensor.
func (t *Tensor) Slice(lo, hi int) *Tensor {
	out := NewTensor(append([]int{hi - lo}, t.Shape[1:]...)...)
	n := t.SampleSize()
	copy(out.Data, t.Data[lo*n:hi*n])
	return out
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

func volume(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// axpy adds a*x to dst, using tmp as scratch of the same length.
func axpy(dst, x []float64, a float64, tmp []float64) {
	if a == 0 {
		return
	}
	vecmath.ScaleBlock(tmp, x, a)
	vecmath.AddBlockInPlace(dst, tmp)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
