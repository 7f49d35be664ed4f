package model

import "github.com/cwbudde/algo-anomaly/search"

// SearchSpace returns the hyperparameter ranges for inputs with the given
// window count. Kernel sizes run from 1 to the largest size that keeps
// every stage non-empty, capped at maxKernel. When no size fits the range
// is {1} and every trial fails the shape check.
func SearchSpace(windows, maxKernel int) *search.Space {
	return search.NewSpace().
		Int(ParamConvFilters, 32, 128, 16).
		Int(ParamKernelSize, 1, max(1, min(MaxKernelSize(windows), maxKernel)), 1).
		Int(ParamDenseUnits, 32, 64, 16).
		Int(ParamRecurrentUnits, 16, 64, 16).
		Float(ParamDropoutRate, 0.3, 0.5).
		LogFloat(ParamL2Reg, 1e-6, 1e-2).
		LogFloat(ParamLearningRate, 1e-5, 1e-2)
}
