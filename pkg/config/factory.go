package config

import (
	"io"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/drift"
	"github.com/YuminosukeSato/streamlin/linear_model"
	"github.com/YuminosukeSato/streamlin/optim"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
	"github.com/YuminosukeSato/streamlin/pkg/log"
	"github.com/YuminosukeSato/streamlin/preprocessing"
)

// NewOptimizer は設定からオプティマイザのプロトタイプを作る
func NewOptimizer(c OptimizerConfig) (optim.Optimizer, error) {
	switch c.Kind {
	case "sgd":
		return optim.NewSGD(c.LR)
	case "adagrad":
		return optim.NewAdaGrad(optim.WithAdaGradLR(c.LR), optim.WithAdaGradEps(c.Eps))
	case "ftrl":
		return optim.NewFTRLProximal(
			optim.WithFTRLAlpha(c.Alpha),
			optim.WithFTRLBeta(c.Beta),
			optim.WithFTRLL1(c.L1),
			optim.WithFTRLL2(c.L2),
		)
	default:
		return nil, errors.NewValidationError("optimizer.kind", "unknown optimizer", c.Kind)
	}
}

// NewALMA は設定から ALMAClassifier を作る
func NewALMA(c ALMAConfig) (*linear_model.ALMAClassifier, error) {
	var projection linear_model.Projection
	switch c.Projection {
	case "", "touched":
		projection = linear_model.ProjectTouched
	case "all":
		projection = linear_model.ProjectAll
	default:
		return nil, errors.NewValidationError("alma.projection", "must be touched or all", c.Projection)
	}
	return linear_model.NewALMAClassifier(
		linear_model.WithALMAP(c.P),
		linear_model.WithALMAAlpha(c.Alpha),
		linear_model.WithALMAB(c.B),
		linear_model.WithALMAC(c.C),
		linear_model.WithALMAProjection(projection),
	)
}

// NewSoftmax は設定から文字列ラベルの SoftmaxRegression を作る
func NewSoftmax(c SoftmaxConfig) (*linear_model.SoftmaxRegression[string], error) {
	opt, err := NewOptimizer(c.Optimizer)
	if err != nil {
		return nil, err
	}
	return linear_model.NewSoftmaxRegression[string](
		linear_model.WithSoftmaxOptimizer(opt),
		linear_model.WithSoftmaxL2(c.L2),
	)
}

// NewTransformer は特徴量のスケーリングを作る。"none" なら nil を返す。
func NewTransformer(scale string) (model.Transformer, error) {
	switch scale {
	case "", "none":
		return nil, nil
	case "standard":
		return preprocessing.NewStandardScalerDefault(), nil
	case "minmax":
		return preprocessing.NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewValidationError("model.scale", "unknown scaler", scale)
	}
}

// NewDetector はドリフト検出器を作る。"none" なら nil を返す。
func NewDetector(name string) (drift.Detector, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "ddm":
		return drift.NewDDM()
	case "adwin":
		return drift.NewADWIN()
	default:
		return nil, errors.NewValidationError("eval.drift", "unknown detector", name)
	}
}

// NewLogger は w に書き出すロガーを作り、パッケージ既定のロガーとして設定する。
// zerolog 形式のときは errors.Warn の出力先もこのロガーに切り替える。
func NewLogger(c LogConfig, w io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	switch c.Format {
	case "", "zerolog":
		p := log.NewZerologProvider(w, level)
		log.SetProvider(p)
		if zl, ok := p.GetLogger().(*log.ZerologLogger); ok {
			zl.BridgeWarnings()
		}
		return p.GetLogger(), nil
	case "json":
		return log.SetupLogger(w, level), nil
	default:
		return nil, errors.NewValidationError("log.format", "unknown format", c.Format)
	}
}
