package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckFeatures validates a feature map before it reaches any model state.
// Empty keys and non-finite values are rejected with an InvalidInputError.
// When several features are invalid the lexicographically smallest key is
// reported so the error is stable across runs.
func CheckFeatures(operation string, x map[string]float64) error {
	var (
		badKey   string
		badValue float64
		reason   string
		found    bool
	)
	for k, v := range x {
		var r string
		switch {
		case k == "":
			r = "feature name must not be empty"
		case math.IsNaN(v):
			r = "value is NaN"
		case math.IsInf(v, 0):
			r = "value is infinite"
		default:
			continue
		}
		if !found || k < badKey {
			badKey, badValue, reason, found = k, v, r, true
		}
	}
	if !found {
		return nil
	}
	if badKey == "" {
		return NewInvalidInputError(operation, "", badValue, reason)
	}
	return NewInvalidInputError(operation, badKey, badValue, reason)
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
