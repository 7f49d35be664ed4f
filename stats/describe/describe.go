package describe

import (
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Feature describes one sample position across all sequences. Std is the
// sample standard deviation; it is 0 for a single sequence.
type Feature struct {
	Feature int     `json:"feature" csv:"feature"`
	Count   int     `json:"count" csv:"count"`
	Mean    float64 `json:"mean" csv:"mean"`
	Std     float64 `json:"std" csv:"std"`
	Min     float64 `json:"min" csv:"min"`
	Q1      float64 `json:"q1" csv:"25%"`
	Median  float64 `json:"median" csv:"50%"`
	Q3      float64 `json:"q3" csv:"75%"`
	Max     float64 `json:"max" csv:"max"`
}

// Summary is the result of Summarize.
type Summary struct {
	Sequences int
	Length    int
	Counts    map[int]int
	NonFinite int
	Features  []Feature
}

// Classes returns the labels present in Counts in ascending order.
func (s Summary) Classes() []int {
	out := make([]int, 0, len(s.Counts))
	for c := range s.Counts {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Summarize describes every feature column of ds.
func Summarize(ds *dataset.Dataset) (Summary, error) {
	if ds == nil || ds.Len() == 0 {
		return Summary{}, fault.Input("describe: empty dataset")
	}

	s := Summary{
		Sequences: ds.Len(),
		Length:    ds.SeqLen(),
		Counts:    ds.Counts(),
		Features:  make([]Feature, ds.SeqLen()),
	}
	for j := range s.Features {
		f, bad, err := describeColumn(ds.Column(j))
		if err != nil {
			return Summary{}, errors.Wrapf(err, "describe: feature %d", j)
		}
		f.Feature = j
		s.Features[j] = f
		s.NonFinite += bad
	}
	return s, nil
}

// describeColumn skips non-finite values and reports how many it skipped.
func describeColumn(col []float64) (Feature, int, error) {
	data := make(stats.Float64Data, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	bad := len(col) - len(data)
	if len(data) == 0 {
		return Feature{}, bad, fault.Numeric("no finite values")
	}

	f := Feature{Count: len(data)}
	var err error
	if f.Mean, err = stats.Mean(data); err != nil {
		return Feature{}, bad, err
	}
	if len(data) > 1 {
		if f.Std, err = stats.StandardDeviationSample(data); err != nil {
			return Feature{}, bad, err
		}
	}
	if f.Min, err = stats.Min(data); err != nil {
		return Feature{}, bad, err
	}
	if f.Max, err = stats.Max(data); err != nil {
		return Feature{}, bad, err
	}
	if f.Median, err = stats.Median(data); err != nil {
		return Feature{}, bad, err
	}
	if f.Q1, err = quantile(data, 25); err != nil {
		return Feature{}, bad, err
	}
	if f.Q3, err = quantile(data, 75); err != nil {
		return Feature{}, bad, err
	}
	return f, bad, nil
}

// quantile falls back to the extremes where the percentile rank lands
// outside the sample, which happens for very short columns.
func quantile(data stats.Float64Data, p float64) (float64, error) {
	v, err := stats.Percentile(data, p)
	if err == nil {
		return v, nil
	}
	if p < 50 {
		return stats.Min(data)
	}
	return stats.Max(data)
}

// WriteCSV writes one row per feature to path.
func (s Summary) WriteCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "describe: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	rows := s.Features
	return errors.Wrap(gocsv.Marshal(&rows, f), "describe: write summary")
}

// ReadCSV reads a file written by WriteCSV.
func ReadCSV(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(fault.ErrInput, "describe: open %s: %v", path, err)
	}
	defer f.Close()

	var rows []Feature
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrapf(fault.ErrInput, "describe: parse %s: %v", path, err)
	}
	return rows, nil
}
