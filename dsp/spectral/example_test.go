package spectral_test

import (
	"fmt"

	"github.com/cwbudde/algo-anomaly/dsp/spectral"
)

func ExampleShape() {
	windows, bins, _ := spectral.Shape(2048, 1024, 512)
	fmt.Println(windows, bins)
	// Output:
	// 3 513
}

func ExampleTransform() {
	seq := make([]float64, 16)
	for i := range seq {
		seq[i] = 1
	}

	spec, freqs, _ := spectral.Transform([][]float64{seq}, 8, 4, 8)
	n, w, b := spec.Shape()
	fmt.Printf("%d %d %d DC=%.2f fmax=%.0f\n", n, w, b, spec.Window(0, 0)[0], freqs[len(freqs)-1])
	// Output:
	// 1 3 5 DC=3.50 fmax=4
}
