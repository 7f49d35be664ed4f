package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Labels of the two sources.
const (
	Healthy = 0
	Anomaly = 1
)

// Record is one labeled sequence. It is never modified after construction.
type Record struct {
	samples []float64
	label   int
}

// NewRecord copies samples into a new Record.
func NewRecord(samples []float64, label int) Record {
	return Record{
		samples: append([]float64(nil), samples...),
		label:   label,
	}
}

// Label returns 0 (healthy) or 1 (anomaly).
func (r Record) Label() int { return r.label }

// Len returns the sequence length.
func (r Record) Len() int { return len(r.samples) }

// At returns sample i.
func (r Record) At(i int) float64 { return r.samples[i] }

// Samples returns a copy of the sequence.
func (r Record) Samples() []float64 {
	return append([]float64(nil), r.samples...)
}

// Dataset is an ordered collection of equal-length records.
type Dataset struct {
	records []Record
	seqLen  int
}

// FromRecords validates records and wraps them in a Dataset.
func FromRecords(records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fault.Input("dataset: no records")
	}

	seqLen := records[0].Len()
	if seqLen == 0 {
		return nil, fault.Input("dataset: record 0 is empty")
	}

	for i, r := range records {
		if r.Len() != seqLen {
			return nil, fault.Input("dataset: record %d has length %d, want %d", i, r.Len(), seqLen)
		}
		if r.label != Healthy && r.label != Anomaly {
			return nil, fault.Input("dataset: record %d has label %d, want 0 or 1", i, r.label)
		}
		for j, v := range r.samples {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fault.Input("dataset: record %d has non-finite value at column %d", i, j)
			}
		}
	}

	return &Dataset{
		records: append([]Record(nil), records...),
		seqLen:  seqLen,
	}, nil
}

// FromMatrix builds a Dataset from parallel feature rows and labels.
func FromMatrix(x [][]float64, y []int) (*Dataset, error) {
	if len(x) != len(y) {
		return nil, fault.Input("dataset: %d rows but %d labels", len(x), len(y))
	}

	records := make([]Record, len(x))
	for i := range x {
		records[i] = NewRecord(x[i], y[i])
	}
	return FromRecords(records)
}

// Merge tags healthy rows with 0 and anomaly rows with 1 and concatenates
// them, healthy first.
func Merge(healthy, anomalies [][]float64) (*Dataset, error) {
	if len(healthy) == 0 {
		return nil, fault.Input("dataset: healthy source is empty")
	}
	if len(anomalies) == 0 {
		return nil, fault.Input("dataset: anomaly source is empty")
	}
	if len(healthy[0]) != len(anomalies[0]) {
		return nil, fault.Input("dataset: column mismatch: healthy has %d, anomalies %d", len(healthy[0]), len(anomalies[0]))
	}

	records := make([]Record, 0, len(healthy)+len(anomalies))
	for _, row := range healthy {
		records = append(records, NewRecord(row, Healthy))
	}
	for _, row := range anomalies {
		records = append(records, NewRecord(row, Anomaly))
	}

	return FromRecords(records)
}

// Len returns the record count.
func (d *Dataset) Len() int { return len(d.records) }

// SeqLen returns the shared sequence length.
func (d *Dataset) SeqLen() int { return d.seqLen }

// Record returns record i.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// Labels returns the label of every record in order.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.records))
	for i, r := range d.records {
		out[i] = r.label
	}
	return out
}

// Features returns a copy of every sequence in order.
func (d *Dataset) Features() [][]float64 {
	out := make([][]float64, len(d.records))
	for i, r := range d.records {
		out[i] = r.Samples()
	}
	return out
}

// Column returns sample position j of every record.
func (d *Dataset) Column(j int) []float64 {
	out := make([]float64, len(d.records))
	for i, r := range d.records {
		out[i] = r.samples[j]
	}
	return out
}

// Counts returns the number of records per label.
func (d *Dataset) Counts() map[int]int {
	out := make(map[int]int, 2)
	for _, r := range d.records {
		out[r.label]++
	}
	return out
}

// ClassLabels returns the distinct labels in ascending order.
func (d *Dataset) ClassLabels() []int {
	counts := d.Counts()
	out := make([]int, 0, len(counts))
	for l := range counts {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Subset returns the records at idx in that order. The result may be empty.
func (d *Dataset) Subset(idx []int) *Dataset {
	records := make([]Record, len(idx))
	for i, j := range idx {
		records[i] = d.records[j]
	}
	return &Dataset{records: records, seqLen: d.seqLen}
}

// Shuffle returns a permuted copy of d.
func (d *Dataset) Shuffle(r *rand.Rand) *Dataset {
	return d.Subset(r.Perm(len(d.records)))
}

// Indices returns the positions of every record with label l.
func (d *Dataset) Indices(l int) []int {
	var out []int
	for i, r := range d.records {
		if r.label == l {
			out = append(out, i)
		}
	}
	return out
}
