package signal_test

import (
	"fmt"

	signalstats "github.com/cwbudde/algo-anomaly/stats/signal"
)

func ExampleCalculate() {
	s := signalstats.Calculate([]float64{1, -1, 1, -1})
	fmt.Printf("rms=%.1f crest=%.1f crossings=%.0f\n", s.RMS, s.CrestFactor, s.ZeroCrossings)

	// Output:
	// rms=1.0 crest=1.0 crossings=3
}
