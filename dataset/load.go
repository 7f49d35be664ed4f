package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// CompressedSuffix marks snappy framed CSV files.
const CompressedSuffix = ".sz"

// Load reads the healthy and anomaly sources, labels and merges them, and
// permutes the result with r.
func Load(healthyPath, anomalyPath string, r *rand.Rand) (*Dataset, error) {
	healthy, err := ReadMatrix(healthyPath)
	if err != nil {
		return nil, err
	}
	anomalies, err := ReadMatrix(anomalyPath)
	if err != nil {
		return nil, err
	}

	merged, err := Merge(healthy, anomalies)
	if err != nil {
		return nil, err
	}

	return merged.Shuffle(r), nil
}

// ReadMatrix reads a CSV source of numeric rows. A first row that does not
// parse as numbers is treated as a header and skipped.
func ReadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(fault.ErrInput, "dataset: open %s: %v", path, err)
	}
	defer f.Close()

	var src io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, CompressedSuffix) {
		src = snappy.NewReader(src)
	}

	rows, err := parseMatrix(src)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if len(rows) == 0 {
		return nil, fault.Input("dataset: %s contains no sequences", path)
	}
	return rows, nil
}

func parseMatrix(src io.Reader) ([][]float64, error) {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	var (
		rows [][]float64
		line int
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(fault.ErrInput, "dataset: csv: %v", err)
		}
		line++

		row, perr := parseRow(fields)
		if perr != nil {
			if line == 1 && isHeader(fields) {
				continue
			}
			return nil, errors.Wrapf(fault.ErrInput, "dataset: line %d: %v", line, perr)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fault.Input("dataset: line %d has %d columns, want %d", line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRow(fields []string) ([]float64, error) {
	row := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// isHeader reports whether no field of a first row is a number.
func isHeader(fields []string) bool {
	for _, s := range fields {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return false
		}
	}
	return true
}

// WriteMatrix writes rows as CSV with a header s0..sN-1. Paths ending in
// ".sz" are snappy compressed.
func WriteMatrix(path string, rows [][]float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var (
		dst  io.Writer = f
		sz   *snappy.Writer
		cols int
	)
	if strings.HasSuffix(path, CompressedSuffix) {
		sz = snappy.NewBufferedWriter(f)
		dst = sz
	}
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	cw := csv.NewWriter(dst)
	header := make([]string, cols)
	for i := range header {
		header[i] = "s" + strconv.Itoa(i)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	fields := make([]string, cols)
	for n, row := range rows {
		if len(row) != cols {
			return fault.Input("dataset: row %d has %d columns, want %d", n, len(row), cols)
		}
		for i, v := range row {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if sz != nil {
		return sz.Close()
	}
	return nil
}
