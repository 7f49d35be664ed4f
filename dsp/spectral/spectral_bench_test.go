package spectral

import (
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

func BenchmarkTransform(b *testing.B) {
	x, _ := testutil.Labeled(16, 4, 2048, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Transform(x, 1024, 512, 1024); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransformerSequence(b *testing.B) {
	tr, err := NewTransformer(1024, 512)
	if err != nil {
		b.Fatal(err)
	}
	seq := testutil.Noise(1, 1, 8192)
	dst := make([]float64, 0, tr.Windows(len(seq))*tr.Bins())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tr.Sequence(dst[:0], seq); err != nil {
			b.Fatal(err)
		}
	}
}
