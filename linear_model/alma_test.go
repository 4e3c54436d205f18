package linear_model

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// TestALMA_FirstUpdate follows one margin violation by hand:
// dot=0 < 0.1*B, eta=C, w[a]=√2 then projected to 1, k=2.
func TestALMA_FirstUpdate(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)

	require.NoError(t, a.LearnOne(model.Features{"a": 1}, true))

	assert.InDelta(t, 1.0, a.Weights().Get("a"), 1e-12)
	assert.Equal(t, 2, a.K())
	assert.Equal(t, int64(1), a.NSamples())
}

func TestALMA_NegativeLabel(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)

	require.NoError(t, a.LearnOne(model.Features{"a": 1}, false))

	assert.InDelta(t, -1.0, a.Weights().Get("a"), 1e-12)
	y, ok := a.PredictOne(model.Features{"a": 1})
	assert.True(t, ok)
	assert.False(t, y)
}

func TestALMA_SatisfiedMarginIsNoop(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)
	x := model.Features{"a": 1}
	require.NoError(t, a.LearnOne(x, true))

	before := a.Weights().ToMap()
	k := a.K()

	// y·dot = 1 >= 0.1·B/√2
	require.NoError(t, a.LearnOne(x, true))

	assert.Equal(t, before, a.Weights().ToMap())
	assert.Equal(t, k, a.K())
	assert.Equal(t, int64(2), a.NSamples())
}

func TestALMA_NormBound(t *testing.T) {
	tests := []struct {
		name       string
		projection Projection
		coverAll   bool
	}{
		{"project all, sparse examples", ProjectAll, false},
		{"project touched, examples cover w", ProjectTouched, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []float64{1.5, 2, 3} {
				a, err := NewALMAClassifier(WithALMAP(p), WithALMAProjection(tt.projection))
				require.NoError(t, err)
				rng := rand.New(rand.NewSource(1))
				keys := []string{"a", "b", "c", "d", "e"}

				for step := 0; step < 300; step++ {
					x := model.Features{}
					for _, key := range keys {
						if tt.coverAll || rng.Float64() < 0.4 {
							x[key] = rng.NormFloat64() * 3
						}
					}
					k := a.K()
					require.NoError(t, a.LearnOne(x, rng.Float64() < 0.5))
					if a.K() > k {
						assert.LessOrEqual(t, a.Weights().Norm(p), 1+1e-9, "p=%v step=%d", p, step)
					}
				}
			}
		})
	}
}

func TestALMA_ProjectTouchedOnlyDividesExampleKeys(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)
	require.NoError(t, a.LearnOne(model.Features{"a": 1}, true))
	require.NoError(t, a.LearnOne(model.Features{"b": 1}, false))

	// w[a] は2回目の例に含まれないので割られない
	assert.InDelta(t, 1.0, a.Weights().Get("a"), 1e-12)

	eta := math.Sqrt2 / math.Sqrt(2)
	norm := math.Hypot(1, eta)
	assert.InDelta(t, -eta/norm, a.Weights().Get("b"), 1e-12)
	assert.Equal(t, 3, a.K())
}

func TestALMA_ProjectAllDividesEveryKey(t *testing.T) {
	a, err := NewALMAClassifier(WithALMAProjection(ProjectAll))
	require.NoError(t, err)
	require.NoError(t, a.LearnOne(model.Features{"a": 1}, true))
	require.NoError(t, a.LearnOne(model.Features{"b": 1}, false))

	norm := math.Hypot(1, 1)
	assert.InDelta(t, 1/norm, a.Weights().Get("a"), 1e-12)
	assert.InDelta(t, -1/norm, a.Weights().Get("b"), 1e-12)
	assert.InDelta(t, 1.0, a.Weights().Norm(2), 1e-12)
}

func TestALMA_PredictProbaOne(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)

	proba := a.PredictProbaOne(model.Features{"a": 1})
	assert.Equal(t, map[bool]float64{false: 0.5, true: 0.5}, proba)

	require.NoError(t, a.LearnOne(model.Features{"a": 1}, true))
	proba = a.PredictProbaOne(model.Features{"a": 2})
	assert.InDelta(t, 1/(1+math.Exp(-2)), proba[true], 1e-12)
	assert.InDelta(t, 1.0, proba[true]+proba[false], 1e-12)
	assert.Equal(t, 1, a.Weights().Len(), "prediction must not insert keys")
}

func TestALMA_InvalidInputLeavesStateUnchanged(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)
	require.NoError(t, a.LearnOne(model.Features{"a": 1}, true))

	for _, x := range []model.Features{
		{"a": -1, "b": math.NaN()},
		{"a": -1, "b": math.Inf(1)},
		{"": 1},
	} {
		err := a.LearnOne(x, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))

		var inputErr *errors.InvalidInputError
		assert.True(t, errors.As(err, &inputErr))
	}
	assert.Equal(t, map[string]float64{"a": 1}, a.Weights().ToMap())
	assert.Equal(t, 2, a.K())
	assert.Equal(t, int64(1), a.NSamples())
}

func TestALMA_OverflowIsReported(t *testing.T) {
	a, err := NewALMAClassifier(WithALMAC(1e300))
	require.NoError(t, err)

	err = a.LearnOne(model.Features{"a": 1e300}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNumericalInstability))
	assert.Equal(t, 0, a.Weights().Len())
	assert.Equal(t, 1, a.K())
}

func TestALMA_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  ALMAOption
	}{
		{"p below one", WithALMAP(0.5)},
		{"p infinite", WithALMAP(math.Inf(1))},
		{"alpha zero", WithALMAAlpha(0)},
		{"alpha above one", WithALMAAlpha(1.5)},
		{"B zero", WithALMAB(0)},
		{"C negative", WithALMAC(-1)},
		{"unknown projection", WithALMAProjection(Projection(7))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewALMAClassifier(tt.opt)
			assert.Nil(t, a)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

			var vErr *errors.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}

	_, err := NewALMAClassifier(WithALMAP(1), WithALMAAlpha(1))
	assert.NoError(t, err)
}

func TestALMA_LearnsSeparableStream(t *testing.T) {
	a, err := NewALMAClassifier()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))

	mistakes := 0
	for i := 0; i < 2000; i++ {
		x := model.Features{"x": rng.Float64()*2 - 1, "y": rng.Float64()*2 - 1}
		label := x["x"]+x["y"] > 0
		if i >= 1000 {
			if pred, _ := a.PredictOne(x); pred != label {
				mistakes++
			}
		}
		require.NoError(t, a.LearnOne(x, label))
	}
	assert.Less(t, mistakes, 100)
}

func ExampleALMAClassifier() {
	a, _ := NewALMAClassifier()
	_ = a.LearnOne(model.Features{"a": 1}, true)

	fmt.Printf("w[a]=%.4f k=%d\n", a.Weights().Get("a"), a.K())
	// Output: w[a]=1.0000 k=2
}
