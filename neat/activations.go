package neat

import (
	"fmt"
	"math"
)

// ActivationType defines the type for activation functions. Every
// registered function maps onto [0, 1] so that creature decisions can be
// thresholded at 0.5 regardless of which one is configured.
type ActivationType func(x, steepness float64) float64

// DefaultSigmoidSteepness is the canonical k in 1 / (1 + e^(-k*x)).
const DefaultSigmoidSteepness = 4.9

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"gaussian": Gaussian,
	"hat":      Hat,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the logistic function with steepness k.
func Sigmoid(x, k float64) float64 {
	// Clamp the exponent; math.Exp overflows to +Inf past ~709.
	z := math.Max(-60.0, math.Min(60.0, k*x))
	return 1.0 / (1.0 + math.Exp(-z))
}

// Gaussian activation, peak 1 at x = 0.
func Gaussian(x, k float64) float64 {
	z := math.Max(-3.4, math.Min(3.4, x))
	return math.Exp(-k * z * z)
}

// Hat activation: triangular peak at 0, zero outside [-1/k, 1/k].
func Hat(x, k float64) float64 {
	return math.Max(0.0, 1-math.Abs(k*x))
}
