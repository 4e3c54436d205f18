package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/streamlin/drift"
	"github.com/YuminosukeSato/streamlin/linear_model"
	"github.com/YuminosukeSato/streamlin/optim"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
	"github.com/YuminosukeSato/streamlin/pkg/log"
	"github.com/YuminosukeSato/streamlin/preprocessing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamlin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "alma", conf.Model.Kind)
	assert.Equal(t, "none", conf.Model.Scale)
	assert.Equal(t, 2.0, conf.Model.ALMA.P)
	assert.Equal(t, "touched", conf.Model.ALMA.Projection)
	assert.Equal(t, "sgd", conf.Model.Softmax.Optimizer.Kind)
	assert.Equal(t, int64(1000), conf.Eval.PrintEvery)
	assert.Equal(t, "none", conf.Eval.Drift)
	assert.Equal(t, "-", conf.Input.Path)
	assert.Empty(t, conf.Metrics.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
model:
  kind: softmax
  softmax:
    l2: 0.01
    optimizer:
      kind: adagrad
      lr: 0.5
eval:
  drift: ddm
  curve_every: 50
`)
	t.Setenv("STREAMLIN_EVAL_DRIFT", "adwin")
	t.Setenv("STREAMLIN_METRICS_ADDR", ":9090")

	conf, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "softmax", conf.Model.Kind)
	assert.Equal(t, 0.01, conf.Model.Softmax.L2)
	assert.Equal(t, "adagrad", conf.Model.Softmax.Optimizer.Kind)
	assert.Equal(t, 0.5, conf.Model.Softmax.Optimizer.LR)
	assert.Equal(t, 1e-8, conf.Model.Softmax.Optimizer.Eps, "unset keys keep defaults")
	assert.Equal(t, int64(50), conf.Eval.CurveEvery)
	assert.Equal(t, "adwin", conf.Eval.Drift, "environment overrides the file")
	assert.Equal(t, ":9090", conf.Metrics.Addr)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("STREAMLIN_MODEL_KIND", "alma")

	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(fs, v))
	require.NoError(t, fs.Parse([]string{"--model=softmax", "--print-every=10", "--lr=0.2"}))

	conf, err := Load("", v)
	require.NoError(t, err)
	assert.Equal(t, "softmax", conf.Model.Kind)
	assert.Equal(t, int64(10), conf.Eval.PrintEvery)
	assert.Equal(t, 0.2, conf.Model.Softmax.Optimizer.LR)
	assert.Equal(t, "info", fs.Lookup("log-level").DefValue)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		param string
	}{
		{"unknown model", "STREAMLIN_MODEL_KIND", "tree", "Config.Model.Kind"},
		{"alma p below one", "STREAMLIN_MODEL_ALMA_P", "0.5", "Config.Model.ALMA.P"},
		{"alma alpha above one", "STREAMLIN_MODEL_ALMA_ALPHA", "1.5", "Config.Model.ALMA.Alpha"},
		{"negative lr", "STREAMLIN_MODEL_SOFTMAX_OPTIMIZER_LR", "-1", "Config.Model.Softmax.Optimizer.LR"},
		{"unknown drift", "STREAMLIN_EVAL_DRIFT", "page-hinkley", "Config.Eval.Drift"},
		{"negative print", "STREAMLIN_EVAL_PRINT_EVERY", "-5", "Config.Eval.PrintEvery"},
		{"unknown level", "STREAMLIN_LOG_LEVEL", "trace", "Config.Log.Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load("", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestNewOptimizer(t *testing.T) {
	conf, err := Load("", nil)
	require.NoError(t, err)
	c := conf.Model.Softmax.Optimizer

	opt, err := NewOptimizer(c)
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD{}, opt)

	c.Kind = "adagrad"
	opt, err = NewOptimizer(c)
	require.NoError(t, err)
	assert.IsType(t, &optim.AdaGrad{}, opt)

	c.Kind = "ftrl"
	opt, err = NewOptimizer(c)
	require.NoError(t, err)
	assert.IsType(t, &optim.FTRLProximal{}, opt)

	c.Kind = "adam"
	_, err = NewOptimizer(c)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestNewModels(t *testing.T) {
	conf, err := Load("", nil)
	require.NoError(t, err)

	conf.Model.ALMA.Projection = "all"
	alma, err := NewALMA(conf.Model.ALMA)
	require.NoError(t, err)
	assert.Equal(t, linear_model.ProjectAll, alma.Projection())

	conf.Model.ALMA.Projection = "none"
	_, err = NewALMA(conf.Model.ALMA)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

	conf.Model.Softmax.L2 = 0.1
	softmax, err := NewSoftmax(conf.Model.Softmax)
	require.NoError(t, err)
	assert.Equal(t, 0.1, softmax.L2())
	assert.Empty(t, softmax.Classes())
}

func TestNewTransformerAndDetector(t *testing.T) {
	tr, err := NewTransformer("none")
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = NewTransformer("standard")
	require.NoError(t, err)
	assert.IsType(t, &preprocessing.StandardScaler{}, tr)

	tr, err = NewTransformer("minmax")
	require.NoError(t, err)
	assert.IsType(t, &preprocessing.MinMaxScaler{}, tr)

	d, err := NewDetector("none")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = NewDetector("ddm")
	require.NoError(t, err)
	assert.IsType(t, &drift.DDM{}, d)

	d, err = NewDetector("adwin")
	require.NoError(t, err)
	assert.Equal(t, "ADWIN", d.Name())

	_, err = NewDetector("kswin")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() {
		log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelInfo))
		errors.SetZerologWarnFunc(nil)
	})

	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "zerolog"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger, err = NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Debug("json line")
	assert.Contains(t, buf.String(), `"message":"json line"`)

	_, err = NewLogger(LogConfig{Level: "loud"}, &buf)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}
