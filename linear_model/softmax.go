package linear_model

import (
	"math"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/optim"
	"github.com/YuminosukeSato/streamlin/optim/losses"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// classState はラベル1つ分の重みと、それ専用の最適化手法
type classState struct {
	w   *sparse.Vector
	opt optim.Optimizer
}

// SoftmaxRegression は多クラスのソフトマックス回帰
//
// ラベルは学習中に初めて現れた時点で登録され、重みは全て 0、
// 最適化手法はプロトタイプのディープコピーとして作られる。
// ラベル同士が適応的な状態を共有することはない。
type SoftmaxRegression[L comparable] struct {
	model.BaseEstimator

	// ハイパーパラメータ
	prototype optim.Optimizer
	loss      losses.MultiClassLoss[L]
	l2        float64

	// 学習パラメータ（ラベルは初出順）
	labels []L
	states map[L]*classState
}

type softmaxConfig struct {
	optimizer optim.Optimizer
	loss      any
	l2        float64
}

// SoftmaxOption は SoftmaxRegression の設定オプション
type SoftmaxOption func(*softmaxConfig)

// WithSoftmaxOptimizer はラベルごとに複製されるプロトタイプの最適化手法を設定する
func WithSoftmaxOptimizer(o optim.Optimizer) SoftmaxOption {
	return func(c *softmaxConfig) {
		c.optimizer = o
	}
}

// WithSoftmaxLoss は多クラス損失関数を設定する。L はモデルのラベル型と一致しなければならない。
func WithSoftmaxLoss[L comparable](loss losses.MultiClassLoss[L]) SoftmaxOption {
	return func(c *softmaxConfig) {
		c.loss = loss
	}
}

// WithSoftmaxL2 は L2 正則化の強さを設定する
func WithSoftmaxL2(l2 float64) SoftmaxOption {
	return func(c *softmaxConfig) {
		c.l2 = l2
	}
}

// NewSoftmaxRegression は新しい SoftmaxRegression を作成する
// （既定値: SGD(0.01), CrossEntropy, l2=0）
func NewSoftmaxRegression[L comparable](options ...SoftmaxOption) (*SoftmaxRegression[L], error) {
	cfg := &softmaxConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	if cfg.optimizer == nil {
		sgd, err := optim.NewSGD(0.01)
		if err != nil {
			return nil, err
		}
		cfg.optimizer = sgd
	}

	var loss losses.MultiClassLoss[L]
	switch l := cfg.loss.(type) {
	case nil:
		loss = losses.NewCrossEntropy[L]()
	case losses.MultiClassLoss[L]:
		loss = l
	default:
		return nil, errors.NewValidationError("loss", "label type does not match the model", cfg.loss)
	}
	if loss == nil {
		return nil, errors.NewValidationError("loss", "must not be nil", nil)
	}

	if !(cfg.l2 >= 0) || math.IsInf(cfg.l2, 0) {
		return nil, errors.NewValidationError("l2", "must be non-negative and finite", cfg.l2)
	}

	return &SoftmaxRegression[L]{
		prototype: cfg.optimizer.Clone(),
		loss:      loss,
		l2:        cfg.l2,
		states:    make(map[L]*classState),
	}, nil
}

// LearnOne は1サンプルで各ラベルの重みを更新する
//
//  1. 既知のラベル全てについて Prepare を呼ぶ
//  2. p = softmax(w_ℓ·x) を計算する
//  3. δ = loss.Gradient(y, p)
//  4. δ_ℓ != 0 のラベルについて grad[i] = x[i]·δ_ℓ + l2·w_ℓ[i] を作り Apply する
//
// 勾配は全て計算と検証を済ませてから反映する。既知のラベルでも y でもない
// ラベルに対する δ は無視される。
func (s *SoftmaxRegression[L]) LearnOne(x model.Features, y L) error {
	const op = "SoftmaxRegression.LearnOne"
	if err := errors.CheckFeatures(op, x); err != nil {
		return err
	}

	for _, label := range s.labels {
		st := s.states[label]
		st.w = st.opt.Prepare(st.w)
	}

	keys := sparse.SortedKeys(x)
	proba := s.predictProba(x, keys)
	delta := s.loss.Gradient(y, proba)

	order := s.labels
	if _, known := s.states[y]; !known {
		order = append(order[:len(order):len(order)], y)
	}

	type update struct {
		label L
		grad  *sparse.Vector
	}
	updates := make([]update, 0, len(order))
	for _, label := range order {
		d := delta[label]
		if d == 0 {
			continue
		}
		if err := errors.CheckScalar("softmax_loss_gradient", d, s.nIterations()); err != nil {
			return err
		}
		var w *sparse.Vector
		if st, ok := s.states[label]; ok {
			w = st.w
		}
		g := sparse.New()
		for _, i := range keys {
			gi := x[i]*d + s.l2*w.Get(i)
			if err := errors.CheckScalar("softmax_gradient", gi, s.nIterations()); err != nil {
				return err
			}
			g.Set(i, gi)
		}
		updates = append(updates, update{label: label, grad: g})
	}

	for _, u := range updates {
		st := s.state(u.label)
		st.w = st.opt.Apply(st.w, u.grad)
	}
	s.Observe()
	return nil
}

// state はラベルの状態を返す。未登録なら重みと最適化手法をその場で作る。
func (s *SoftmaxRegression[L]) state(label L) *classState {
	if st, ok := s.states[label]; ok {
		return st
	}
	st := &classState{w: sparse.New(), opt: s.prototype.Clone()}
	s.states[label] = st
	s.labels = append(s.labels, label)
	return st
}

func (s *SoftmaxRegression[L]) nIterations() int {
	return int(s.NSamples())
}

// PredictProbaOne は既知のラベルに対するソフトマックス分布を返す。
// ラベルが1つも登録されていなければ空のマップを返す。
func (s *SoftmaxRegression[L]) PredictProbaOne(x model.Features) map[L]float64 {
	return s.predictProba(x, sparse.SortedKeys(x))
}

// predictProba は keys (x のソート済みキー) をラベル間で使い回す
func (s *SoftmaxRegression[L]) predictProba(x model.Features, keys []string) map[L]float64 {
	proba := make(map[L]float64, len(s.labels))
	if len(s.labels) == 0 {
		return proba
	}

	logits := make([]float64, len(s.labels))
	maxLogit := math.Inf(-1)
	for j, label := range s.labels {
		logits[j] = s.states[label].w.DotSorted(keys, x)
		if logits[j] > maxLogit {
			maxLogit = logits[j]
		}
	}
	var total float64
	for j := range logits {
		logits[j] = math.Exp(logits[j] - maxLogit)
		total += logits[j]
	}
	for j, label := range s.labels {
		proba[label] = logits[j] / total
	}
	return proba
}

// PredictOne は確率が最大のラベルを返す。同率の場合は先に登録されたラベル。
func (s *SoftmaxRegression[L]) PredictOne(x model.Features) (L, bool) {
	var best L
	if len(s.labels) == 0 {
		return best, false
	}
	proba := s.PredictProbaOne(x)
	bestP := math.Inf(-1)
	for _, label := range s.labels {
		if p := proba[label]; p > bestP {
			best, bestP = label, p
		}
	}
	return best, true
}

// Classes は登録済みのラベルを初出順で返す
func (s *SoftmaxRegression[L]) Classes() []L {
	out := make([]L, len(s.labels))
	copy(out, s.labels)
	return out
}

// Weights はラベルの重みのコピーを返す
func (s *SoftmaxRegression[L]) Weights(label L) (*sparse.Vector, bool) {
	st, ok := s.states[label]
	if !ok {
		return nil, false
	}
	return st.w.Clone(), true
}

// Optimizer はラベル専用の最適化手法のコピーを返す
func (s *SoftmaxRegression[L]) Optimizer(label L) (optim.Optimizer, bool) {
	st, ok := s.states[label]
	if !ok {
		return nil, false
	}
	return st.opt.Clone(), true
}

// L2 は L2 正則化の強さを返す
func (s *SoftmaxRegression[L]) L2() float64 {
	return s.l2
}

var _ model.Classifier[string] = (*SoftmaxRegression[string])(nil)
