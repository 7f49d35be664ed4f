package signal

import (
	"strconv"
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

func BenchmarkCalculate(b *testing.B) {
	for _, n := range []int{256, 2048, 16384} {
		seq := testutil.Healthy(0, n, 1024)
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(n * 8))
			for range b.N {
				Calculate(seq)
			}
		})
	}
}
