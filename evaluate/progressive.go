// Package evaluate runs progressive validation over a stream of examples:
// every example is first used to test the model and then to train it.
package evaluate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/drift"
	"github.com/YuminosukeSato/streamlin/metrics"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
	"github.com/YuminosukeSato/streamlin/pkg/log"
)

type options struct {
	logger      log.Logger
	modelName   string
	printEvery  int64
	curveEvery  int64
	detector    drift.Detector
	collector   *Collector
	transformer model.Transformer
}

// Option は ProgressiveValScore の設定オプション
type Option func(*options)

// WithLogger は進捗ログの出力先を設定する
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithModelName はログと指標に付けるモデル名を設定する
func WithModelName(name string) Option {
	return func(o *options) {
		o.modelName = name
	}
}

// WithPrintEvery は n サンプルごとに進捗を Info で出力する (0 で無効)
func WithPrintEvery(n int64) Option {
	return func(o *options) {
		o.printEvery = n
	}
}

// WithCurveEvery は n サンプルごとに学習曲線の点を記録する (0 で無効)
func WithCurveEvery(n int64) Option {
	return func(o *options) {
		o.curveEvery = n
	}
}

// WithDriftDetector は予測の正誤を監視するドリフト検出器を設定する
func WithDriftDetector(d drift.Detector) Option {
	return func(o *options) {
		o.detector = d
	}
}

// WithCollector は Prometheus 指標の更新先を設定する
func WithCollector(c *Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

// WithTransformer はモデルの前段に置く特徴量変換を設定する。
// 予測には更新前の統計量を使い、その後で変換器とモデルを順に学習させる。
func WithTransformer(t model.Transformer) Option {
	return func(o *options) {
		o.transformer = t
	}
}

// Report は progressive validation の結果
type Report[L comparable] struct {
	ModelName string
	Samples   int64 // 学習に使ったサンプル数
	Scored    int64 // 予測を評価できたサンプル数
	Mistakes  int64
	Metrics   []metrics.Metric[L]
	Confusion *metrics.ConfusionMatrix[L]
	Curve     *Curve
	Drifts    []int64 // ドリフトを検出したサンプル番号 (1始まり)
	Warnings  int64   // 警告レベルに入ったサンプル数
	Duration  time.Duration
}

// String は指標を1行にまとめる
func (r *Report[L]) String() string {
	parts := make([]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		parts = append(parts, fmt.Sprintf("%s: %.6g", m.Name(), m.Get()))
	}
	s := fmt.Sprintf("[%d] %s", r.Samples, strings.Join(parts, ", "))
	if len(r.Drifts) > 0 {
		s += fmt.Sprintf(" (drifts: %d)", len(r.Drifts))
	}
	return s
}

// ProgressiveValScore は examples を1件ずつ「予測してから学習」し、指標を更新する
//
// examples が閉じられると結果を返す。コンテキストがキャンセルされた場合は
// それまでの結果と ctx.Err() を返す。学習エラーやモデル内部の panic は
// サンプル番号付きのエラーとして返され、評価はそこで止まる。
// 呼び出し側のゴルーチンだけがモデルに触れる。
func ProgressiveValScore[L comparable](
	ctx context.Context,
	m model.Classifier[L],
	examples <-chan model.Example[L],
	ms []metrics.Metric[L],
	opts ...Option,
) (*Report[L], error) {
	o := &options{modelName: fmt.Sprintf("%T", m)}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("evaluate")
	}
	if o.printEvery < 0 || o.curveEvery < 0 {
		return nil, errors.NewValidationError("every", "must be non-negative", fmt.Sprint(o.printEvery, o.curveEvery))
	}

	logger := o.logger.With(log.ModelNameKey, o.modelName, log.OperationKey, log.OperationProgressiveEval)
	report := &Report[L]{
		ModelName: o.modelName,
		Metrics:   ms,
		Confusion: metrics.NewConfusionMatrix[L](),
	}
	if o.curveEvery > 0 && len(ms) > 0 {
		report.Curve = &Curve{Metric: ms[0].Name()}
	}

	e := &evaluator[L]{opts: o, model: m, report: report, logger: logger, start: time.Now()}
	defer func() { report.Duration = time.Since(e.start) }()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("progressive validation cancelled", log.SamplesKey, report.Samples)
			return report, ctx.Err()
		case ex, ok := <-examples:
			if !ok {
				e.logProgress("progressive validation finished")
				return report, nil
			}
			if err := e.step(ex); err != nil {
				logger.Error("progressive validation aborted", err, log.SamplesKey, report.Samples)
				return report, err
			}
		}
	}
}

type evaluator[L comparable] struct {
	opts   *options
	model  model.Classifier[L]
	report *Report[L]
	logger log.Logger
	start  time.Time
}

func (e *evaluator[L]) step(ex model.Example[L]) (err error) {
	defer errors.Recover(&err, "evaluate.step")

	r := e.report
	n := r.Samples + 1

	xPred := ex.X
	if e.opts.transformer != nil {
		if xPred, err = e.opts.transformer.TransformOne(ex.X); err != nil {
			return errors.Wrapf(err, "sample %d", n)
		}
	}

	yPred, ok := e.model.PredictOne(xPred)
	if ok {
		proba := e.model.PredictProbaOne(xPred)
		for _, m := range r.Metrics {
			m.Update(ex.Y, yPred, proba)
		}
		r.Confusion.Update(ex.Y, yPred, proba)
		r.Scored++

		correct := yPred == ex.Y
		if !correct {
			r.Mistakes++
			if e.opts.collector != nil {
				e.opts.collector.Mistakes.Inc()
			}
		}
		e.watchDrift(correct, n)
	}

	xLearn := ex.X
	began := time.Now()
	if e.opts.transformer != nil {
		if err := e.opts.transformer.LearnOne(ex.X); err != nil {
			return errors.Wrapf(err, "sample %d", n)
		}
		if xLearn, err = e.opts.transformer.TransformOne(ex.X); err != nil {
			return errors.Wrapf(err, "sample %d", n)
		}
	}
	if err := e.model.LearnOne(xLearn, ex.Y); err != nil {
		return errors.Wrapf(err, "sample %d", n)
	}
	e.opts.collector.observeLearn(time.Since(began))
	r.Samples = n

	if c := e.opts.collector; c != nil {
		c.Samples.Inc()
		for _, m := range r.Metrics {
			c.Metric.WithLabelValues(m.Name()).Set(m.Get())
		}
		if cl, ok := e.model.(interface{ Classes() []L }); ok {
			c.Classes.Set(float64(len(cl.Classes())))
		}
	}
	if r.Curve != nil && n%e.opts.curveEvery == 0 {
		r.Curve.Add(n, r.Metrics[0].Get(), time.Since(e.start))
	}
	if e.opts.printEvery > 0 && n%e.opts.printEvery == 0 {
		e.logProgress("progressive validation")
	}
	return nil
}

func (e *evaluator[L]) watchDrift(correct bool, n int64) {
	d := e.opts.detector
	if d == nil {
		return
	}
	res := d.Update(correct)
	if res.WarningDetected {
		e.report.Warnings++
		e.logger.Debug("drift warning zone", log.SamplesKey, n, log.DriftWarningKey, true, log.ErrorRateKey, res.ErrorRate)
	}
	if !res.DriftDetected {
		return
	}
	e.report.Drifts = append(e.report.Drifts, n)
	if e.opts.collector != nil {
		e.opts.collector.Drifts.Inc()
	}
	errors.Warn(errors.NewModelDriftWarning(d.Name(), res.Score, res.Threshold, "retrain", n))
	e.logger.Warn("concept drift detected",
		log.SamplesKey, n,
		log.DriftDetectedKey, true,
		log.ErrorRateKey, res.ErrorRate,
	)
}

func (e *evaluator[L]) logProgress(msg string) {
	r := e.report
	elapsed := time.Since(e.start)
	fields := []any{
		log.SamplesKey, r.Samples,
		log.MistakesKey, r.Mistakes,
		log.DurationMsKey, elapsed.Milliseconds(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		fields = append(fields, log.ThroughputKey, float64(r.Samples)/secs)
	}
	for _, m := range r.Metrics {
		switch m.Name() {
		case "Accuracy":
			fields = append(fields, log.AccuracyKey, m.Get())
		case "LogLoss":
			fields = append(fields, log.LogLossKey, m.Get())
		default:
			fields = append(fields, "metrics."+strings.ToLower(m.Name()), m.Get())
		}
	}
	e.logger.Info(msg, fields...)
}
