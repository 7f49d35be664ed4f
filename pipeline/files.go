package pipeline

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Report file names written next to the configured outputs.
const (
	DescribeFile      = "describe.csv"
	SignalStatsFile   = "signal_stats.csv"
	SpectralStatsFile = "spectral_stats.csv"
)

func writeCSV[T any](path string, rows []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "pipeline: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return errors.Wrapf(gocsv.Marshal(&rows, f), "pipeline: write %s", path)
}

// readCSV reads rows written by writeCSV.
func readCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: open %s", path)
	}
	defer f.Close()

	var rows []T
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "pipeline: parse %s", path)
	}
	return rows, nil
}

// fileSize returns the size of path, or 0 when it cannot be read.
func fileSize(path string) uint64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(st.Size())
}
