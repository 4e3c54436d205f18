package losses

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossEntropy_Gradient(t *testing.T) {
	ce := NewCrossEntropy[string]()

	tests := []struct {
		name  string
		yTrue string
		yPred map[string]float64
		want  map[string]float64
	}{
		{
			name:  "known label",
			yTrue: "b",
			yPred: map[string]float64{"a": 0.25, "b": 0.75},
			want:  map[string]float64{"a": 0.25, "b": -0.25},
		},
		{
			name:  "new label",
			yTrue: "c",
			yPred: map[string]float64{"a": 0.5, "b": 0.5},
			want:  map[string]float64{"a": 0.5, "b": 0.5, "c": -1},
		},
		{
			name:  "empty prediction",
			yTrue: "a",
			yPred: map[string]float64{},
			want:  map[string]float64{"a": -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ce.Gradient(tt.yTrue, tt.yPred))
		})
	}
}

func TestCrossEntropy_Loss(t *testing.T) {
	ce := NewCrossEntropy[int]()

	assert.InDelta(t, -math.Log(0.8), ce.Loss(1, map[int]float64{0: 0.2, 1: 0.8}), 1e-12)
	assert.True(t, ce.Loss(2, map[int]float64{0: 1}) > 30, "absent label is clipped, not infinite")
	assert.False(t, math.IsInf(ce.Loss(0, map[int]float64{0: 0}), 1))
}
