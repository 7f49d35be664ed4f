package model

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/validation"
)

// Hyperparameter names as used by the search space and the exported
// parameters file.
const (
	ParamConvFilters    = "conv_filters"
	ParamKernelSize     = "kernel_size"
	ParamRecurrentUnits = "num_units_1"
	ParamDenseUnits     = "dense_units_1"
	ParamDropoutRate    = "dropout_rate"
	ParamL2Reg          = "l2_reg"
	ParamLearningRate   = "learning_rate"
)

// Config is one hyperparameter configuration of the classifier.
type Config struct {
	ConvFilters    int     `json:"conv_filters" csv:"conv_filters" validate:"gte=1"`
	KernelSize     int     `json:"kernel_size" csv:"kernel_size" validate:"gte=1"`
	RecurrentUnits int     `json:"num_units_1" csv:"num_units_1" validate:"gte=1"`
	DenseUnits     int     `json:"dense_units_1" csv:"dense_units_1" validate:"gte=1"`
	DropoutRate    float64 `json:"dropout_rate" csv:"dropout_rate" validate:"gte=0,lt=1"`
	L2Reg          float64 `json:"l2_reg" csv:"l2_reg" validate:"gte=0"`
	LearningRate   float64 `json:"learning_rate" csv:"learning_rate" validate:"gt=0"`
}

// Validate checks every field range.
func (c Config) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		return errors.Wrapf(fault.ErrConfiguration, "model: %v", err)
	}
	return nil
}

// FromParams builds a Config from named sampled values. Integer fields
// must hold integral values and every field must be present.
func FromParams(p map[string]float64) (Config, error) {
	var c Config
	ints := []struct {
		name string
		dst  *int
	}{
		{ParamConvFilters, &c.ConvFilters},
		{ParamKernelSize, &c.KernelSize},
		{ParamRecurrentUnits, &c.RecurrentUnits},
		{ParamDenseUnits, &c.DenseUnits},
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{ParamDropoutRate, &c.DropoutRate},
		{ParamL2Reg, &c.L2Reg},
		{ParamLearningRate, &c.LearningRate},
	}

	var missing []string
	for _, f := range ints {
		v, ok := p[f.name]
		if !ok {
			missing = append(missing, f.name)
			continue
		}
		if v != float64(int(v)) {
			return Config{}, fault.Configuration("model: %s must be integral: %g", f.name, v)
		}
		*f.dst = int(v)
	}
	for _, f := range floats {
		v, ok := p[f.name]
		if !ok {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fault.Configuration("model: missing parameters %v", missing)
	}

	return c, c.Validate()
}

// Params returns the configuration as named values.
func (c Config) Params() map[string]float64 {
	return map[string]float64{
		ParamConvFilters:    float64(c.ConvFilters),
		ParamKernelSize:     float64(c.KernelSize),
		ParamRecurrentUnits: float64(c.RecurrentUnits),
		ParamDenseUnits:     float64(c.DenseUnits),
		ParamDropoutRate:    c.DropoutRate,
		ParamL2Reg:          c.L2Reg,
		ParamLearningRate:   c.LearningRate,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("filters=%d kernel=%d lstm=%d dense=%d dropout=%.3f l2=%.2e lr=%.2e",
		c.ConvFilters, c.KernelSize, c.RecurrentUnits, c.DenseUnits, c.DropoutRate, c.L2Reg, c.LearningRate)
}
