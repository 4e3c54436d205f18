// Package config loads streamlin settings from a file, STREAMLIN_ environment
// variables and command-line flags, and builds the configured components.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// EnvPrefix は環境変数の接頭辞 (例: STREAMLIN_MODEL_KIND)
const EnvPrefix = "STREAMLIN"

// Config はアプリケーション全体の設定
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Input   InputConfig   `mapstructure:"input"`
	Model   ModelConfig   `mapstructure:"model"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=zerolog json"`
}

// InputConfig は入力ストリームの設定。Path が空か "-" なら標準入力を読む。
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// ModelConfig は学習するモデルの設定
type ModelConfig struct {
	Kind    string        `mapstructure:"kind" validate:"oneof=alma softmax"`
	Scale   string        `mapstructure:"scale" validate:"oneof=none standard minmax"`
	ALMA    ALMAConfig    `mapstructure:"alma"`
	Softmax SoftmaxConfig `mapstructure:"softmax"`
}

// ALMAConfig は ALMAClassifier のハイパーパラメータ
type ALMAConfig struct {
	P          float64 `mapstructure:"p" validate:"gte=1"`
	Alpha      float64 `mapstructure:"alpha" validate:"gt=0,lte=1"`
	B          float64 `mapstructure:"b" validate:"gt=0"`
	C          float64 `mapstructure:"c" validate:"gt=0"`
	Projection string  `mapstructure:"projection" validate:"oneof=touched all"`
}

// SoftmaxConfig は SoftmaxRegression のハイパーパラメータ
type SoftmaxConfig struct {
	L2        float64         `mapstructure:"l2" validate:"gte=0"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
}

// OptimizerConfig はクラスごとに複製されるオプティマイザの設定
type OptimizerConfig struct {
	Kind  string  `mapstructure:"kind" validate:"oneof=sgd adagrad ftrl"`
	LR    float64 `mapstructure:"lr" validate:"gt=0"`
	Eps   float64 `mapstructure:"eps" validate:"gt=0"`
	Alpha float64 `mapstructure:"alpha" validate:"gt=0"`
	Beta  float64 `mapstructure:"beta" validate:"gte=0"`
	L1    float64 `mapstructure:"l1" validate:"gte=0"`
	L2    float64 `mapstructure:"l2" validate:"gte=0"`
}

// EvalConfig は progressive validation の設定
type EvalConfig struct {
	PrintEvery int64  `mapstructure:"print_every" validate:"gte=0"`
	CurveEvery int64  `mapstructure:"curve_every" validate:"gte=0"`
	PlotPath   string `mapstructure:"plot_path"`
	Drift      string `mapstructure:"drift" validate:"oneof=none ddm adwin"`
}

// MetricsConfig は Prometheus エンドポイントの設定。Addr が空なら起動しない。
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults は v に既定値を登録する。
// AutomaticEnv は既知のキーにしか効かないので、全キーをここで登録する。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "zerolog")
	v.SetDefault("input.path", "-")

	v.SetDefault("model.kind", "alma")
	v.SetDefault("model.scale", "none")
	v.SetDefault("model.alma.p", 2.0)
	v.SetDefault("model.alma.alpha", 0.9)
	v.SetDefault("model.alma.b", 1/0.9)
	v.SetDefault("model.alma.c", 1.4142135623730951)
	v.SetDefault("model.alma.projection", "touched")
	v.SetDefault("model.softmax.l2", 0.0)
	v.SetDefault("model.softmax.optimizer.kind", "sgd")
	v.SetDefault("model.softmax.optimizer.lr", 0.01)
	v.SetDefault("model.softmax.optimizer.eps", 1e-8)
	v.SetDefault("model.softmax.optimizer.alpha", 0.05)
	v.SetDefault("model.softmax.optimizer.beta", 1.0)
	v.SetDefault("model.softmax.optimizer.l1", 0.0)
	v.SetDefault("model.softmax.optimizer.l2", 1.0)

	v.SetDefault("eval.print_every", 1000)
	v.SetDefault("eval.curve_every", 100)
	v.SetDefault("eval.plot_path", "")
	v.SetDefault("eval.drift", "none")

	v.SetDefault("metrics.addr", "")
}

// Load は path の設定ファイル (空なら読まない)、環境変数、v に束縛済みの
// フラグを順に重ねて Config を作り、検証する。v が nil なら新しく作る。
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := Validate(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate は構造体タグの制約を検査する。
// 最初に違反したフィールドを ValidationError として返す。
func Validate(conf *Config) error {
	err := validator.New().Struct(conf)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed on '" + fe.Tag() + "'"
		if fe.Param() != "" {
			reason += " " + fe.Param()
		}
		return errors.NewValidationError(fe.Namespace(), reason, fe.Value())
	}
	return errors.Wrap(err, "validate config")
}
