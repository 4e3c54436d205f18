package evaluate

import (
	"context"
	"io"
	"math/rand"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/drift"
	"github.com/YuminosukeSato/streamlin/linear_model"
	"github.com/YuminosukeSato/streamlin/metrics"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
	"github.com/YuminosukeSato/streamlin/pkg/log"
	"github.com/YuminosukeSato/streamlin/preprocessing"
)

func stream[L comparable](examples []model.Example[L]) <-chan model.Example[L] {
	ch := make(chan model.Example[L], len(examples))
	for _, ex := range examples {
		ch <- ex
	}
	close(ch)
	return ch
}

func separable(n int, seed int64) []model.Example[bool] {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Example[bool], n)
	for i := range out {
		x := model.Features{"x": rng.Float64()*2 - 1, "y": rng.Float64()*2 - 1}
		out[i] = model.Example[bool]{X: x, Y: x["x"]+x["y"] > 0}
	}
	return out
}

// alwaysTrue predicts true and can be told to fail or panic while learning.
type alwaysTrue struct {
	learned int
	failAt  int
	panicAt int
}

func (a *alwaysTrue) LearnOne(_ model.Features, _ bool) error {
	a.learned++
	if a.learned == a.failAt {
		return errors.NewInvalidInputError("alwaysTrue.LearnOne", "", a.learned, "rejected")
	}
	if a.learned == a.panicAt {
		panic("boom")
	}
	return nil
}

func (a *alwaysTrue) PredictOne(model.Features) (bool, bool) { return true, true }

func (a *alwaysTrue) PredictProbaOne(model.Features) map[bool]float64 {
	return map[bool]float64{true: 1, false: 0}
}

func quietLogger() log.Logger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}

func TestProgressiveValScore_ALMA(t *testing.T) {
	alma, err := linear_model.NewALMAClassifier()
	require.NoError(t, err)
	collector := NewCollector("alma")
	logger, _ := log.NewTestLogger(log.LevelInfo)

	acc := metrics.NewAccuracy[bool]()
	report, err := ProgressiveValScore[bool](context.Background(), alma, stream(separable(1000, 1)),
		[]metrics.Metric[bool]{acc, metrics.NewLogLoss[bool]()},
		WithLogger(logger),
		WithModelName("ALMAClassifier"),
		WithCurveEvery(100),
		WithPrintEvery(250),
		WithCollector(collector),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), report.Samples)
	assert.Equal(t, int64(1000), report.Scored)
	assert.Greater(t, acc.Get(), 0.9)
	assert.InDelta(t, acc.Get(), 1-float64(report.Mistakes)/1000, 1e-12)
	assert.Equal(t, int64(1000), report.Confusion.N())
	require.Equal(t, 10, report.Curve.Len())
	assert.Equal(t, int64(100), report.Curve.Points[0].Step)
	assert.Equal(t, "Accuracy", report.Curve.Metric)
	assert.Equal(t, acc.Get(), report.Curve.Points[9].Value)

	assert.Equal(t, 1000.0, testutil.ToFloat64(collector.Samples))
	assert.Equal(t, float64(report.Mistakes), testutil.ToFloat64(collector.Mistakes))
	assert.InDelta(t, acc.Get(), testutil.ToFloat64(collector.Metric.WithLabelValues("Accuracy")), 1e-12)
	assert.Equal(t, 1, testutil.CollectAndCount(collector.LearnDuration))

	assert.True(t, logger.ContainsMessage("progressive validation finished"))
	assert.True(t, logger.ContainsField(log.SamplesKey, 1000.0))
	assert.True(t, logger.ContainsField(log.SamplesKey, 250.0))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "ALMAClassifier"))
	assert.True(t, strings.HasPrefix(report.String(), "[1000] Accuracy: "))
}

func TestProgressiveValScore_SoftmaxSkipsFirstPrediction(t *testing.T) {
	s, err := linear_model.NewSoftmaxRegression[string]()
	require.NoError(t, err)
	collector := NewCollector("softmax")

	examples := []model.Example[string]{
		{X: model.Features{"a": 1}, Y: "cat"},
		{X: model.Features{"b": 1}, Y: "dog"},
		{X: model.Features{"a": 1}, Y: "cat"},
		{X: model.Features{"b": 1}, Y: "dog"},
	}
	report, err := ProgressiveValScore[string](context.Background(), s, stream(examples),
		[]metrics.Metric[string]{metrics.NewAccuracy[string]()},
		WithLogger(quietLogger()), WithCollector(collector))
	require.NoError(t, err)

	assert.Equal(t, int64(4), report.Samples)
	assert.Equal(t, int64(3), report.Scored, "no label is known before the first example")
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Classes))
	assert.ElementsMatch(t, []string{"cat", "dog"}, report.Confusion.Classes())
}

func TestProgressiveValScore_DriftRaisesWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	var examples []model.Example[bool]
	for i := 0; i < 200; i++ {
		examples = append(examples, model.Example[bool]{X: model.Features{"a": 1}, Y: i%10 != 9})
	}
	for i := 0; i < 100; i++ {
		examples = append(examples, model.Example[bool]{X: model.Features{"a": 1}, Y: false})
	}

	ddm, err := drift.NewDDM()
	require.NoError(t, err)
	logger, _ := log.NewTestLogger(log.LevelWarn)
	collector := NewCollector("always-true")

	report, err := ProgressiveValScore[bool](context.Background(), &alwaysTrue{}, stream(examples),
		[]metrics.Metric[bool]{metrics.NewAccuracy[bool]()},
		WithLogger(logger), WithDriftDetector(ddm), WithCollector(collector))
	require.NoError(t, err)

	assert.Equal(t, []int64{208}, report.Drifts)
	assert.Positive(t, report.Warnings)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Drifts))
	require.Len(t, warnings, 1)

	var dw *errors.ModelDriftWarning
	require.True(t, errors.As(warnings[0], &dw))
	assert.Equal(t, "DDM", dw.Detector)
	assert.Equal(t, int64(208), dw.Sample)
	assert.True(t, logger.ContainsMessage("concept drift detected"))
	assert.Contains(t, report.String(), "(drifts: 1)")
}

func TestProgressiveValScore_StopsOnLearnError(t *testing.T) {
	m := &alwaysTrue{failAt: 2}
	report, err := ProgressiveValScore[bool](context.Background(), m, stream(separable(5, 2)), nil,
		WithLogger(quietLogger()))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "sample 2")
	assert.Equal(t, int64(1), report.Samples)
}

func TestProgressiveValScore_RecoversPanic(t *testing.T) {
	m := &alwaysTrue{panicAt: 3}
	report, err := ProgressiveValScore[bool](context.Background(), m, stream(separable(5, 2)), nil,
		WithLogger(quietLogger()))

	require.Error(t, err)
	var pErr *errors.PanicError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "boom", pErr.PanicValue)
	assert.Equal(t, int64(2), report.Samples)
}

func TestProgressiveValScore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := ProgressiveValScore[bool](ctx, &alwaysTrue{}, make(chan model.Example[bool]), nil,
		WithLogger(quietLogger()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), report.Samples)
}

func TestProgressiveValScore_WithTransformer(t *testing.T) {
	alma, err := linear_model.NewALMAClassifier()
	require.NoError(t, err)
	scaler := preprocessing.NewStandardScalerDefault()

	examples := separable(200, 4)
	for i := range examples {
		examples[i].X["x"] = examples[i].X["x"]*1000 + 500
	}
	report, err := ProgressiveValScore[bool](context.Background(), alma, stream(examples),
		[]metrics.Metric[bool]{metrics.NewAccuracy[bool]()},
		WithLogger(quietLogger()), WithTransformer(scaler))
	require.NoError(t, err)

	assert.Equal(t, int64(200), report.Samples)
	assert.Equal(t, int64(200), scaler.Count("x"))
	assert.InDelta(t, 500, scaler.Mean()["x"], 200)
}

func TestProgressiveValScore_Validation(t *testing.T) {
	_, err := ProgressiveValScore[bool](context.Background(), &alwaysTrue{}, stream[bool](nil), nil,
		WithPrintEvery(-1))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestCurve_SavePlot(t *testing.T) {
	c := &Curve{Metric: "Accuracy"}
	assert.Error(t, c.SavePlot(filepath.Join(t.TempDir(), "empty.png")))

	for i := int64(1); i <= 10; i++ {
		c.Add(i*100, 0.5+float64(i)/40, 0)
	}
	for _, name := range []string{"curve.png", "curve.svg"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, c.SavePlot(path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := c.SavePlot(filepath.Join(t.TempDir(), "curve.txt"))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.Samples.Add(3)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `streamlin_samples_total{model="test"} 3`)
	assert.Contains(t, string(body), "go_goroutines")
}
