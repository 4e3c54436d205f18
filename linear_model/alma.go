package linear_model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// Projection は ALMA の射影ステップで割る範囲
type Projection int

const (
	// ProjectTouched は今回のサンプルに含まれる特徴量のみを max(1, ‖w‖_p) で割る
	ProjectTouched Projection = iota
	// ProjectAll は w の全ての特徴量を max(1, ‖w‖_p) で割る
	ProjectAll
)

func (p Projection) String() string {
	switch p {
	case ProjectTouched:
		return "touched"
	case ProjectAll:
		return "all"
	default:
		return "unknown"
	}
}

// ALMAClassifier は Approximate Large Margin Algorithm による二値分類器
//
// マージン違反が起きたときだけ重みを更新し、ミス回数 k に応じて
// マージン gamma と学習率 eta を減衰させる。
//
// Gentile (2001) "A new approximate maximal margin classification algorithm"
type ALMAClassifier struct {
	model.BaseEstimator

	// ハイパーパラメータ
	p          float64 // ノルムの次数 (>= 1)
	alpha      float64 // 近似度 (0, 1]
	b          float64 // マージンのスケール
	c          float64 // 学習率のスケール
	projection Projection

	// 学習パラメータ
	w *sparse.Vector
	k int // マージン違反の回数 + 1
}

// ALMAOption は ALMAClassifier の設定オプション
type ALMAOption func(*ALMAClassifier)

// WithALMAP はノルムの次数 p を設定する
func WithALMAP(p float64) ALMAOption {
	return func(a *ALMAClassifier) {
		a.p = p
	}
}

// WithALMAAlpha は近似度 alpha を設定する
func WithALMAAlpha(alpha float64) ALMAOption {
	return func(a *ALMAClassifier) {
		a.alpha = alpha
	}
}

// WithALMAB はマージンのスケール B を設定する
func WithALMAB(b float64) ALMAOption {
	return func(a *ALMAClassifier) {
		a.b = b
	}
}

// WithALMAC は学習率のスケール C を設定する
func WithALMAC(c float64) ALMAOption {
	return func(a *ALMAClassifier) {
		a.c = c
	}
}

// WithALMAProjection は射影ステップの範囲を設定する
func WithALMAProjection(p Projection) ALMAOption {
	return func(a *ALMAClassifier) {
		a.projection = p
	}
}

// NewALMAClassifier は新しい ALMAClassifier を作成する
// （既定値: p=2, alpha=0.9, B=1/0.9, C=√2, ProjectTouched）
func NewALMAClassifier(options ...ALMAOption) (*ALMAClassifier, error) {
	a := &ALMAClassifier{
		p:          2,
		alpha:      0.9,
		b:          1 / 0.9,
		c:          math.Sqrt2,
		projection: ProjectTouched,
		w:          sparse.New(),
		k:          1,
	}
	for _, opt := range options {
		opt(a)
	}

	if !(a.p >= 1) || math.IsInf(a.p, 0) {
		return nil, errors.NewValidationError("p", "must be a finite number >= 1", a.p)
	}
	if !(a.alpha > 0 && a.alpha <= 1) {
		return nil, errors.NewValidationError("alpha", "must be in (0, 1]", a.alpha)
	}
	if !(a.b > 0) || math.IsInf(a.b, 0) {
		return nil, errors.NewValidationError("B", "must be positive and finite", a.b)
	}
	if !(a.c > 0) || math.IsInf(a.c, 0) {
		return nil, errors.NewValidationError("C", "must be positive and finite", a.c)
	}
	if a.projection != ProjectTouched && a.projection != ProjectAll {
		return nil, errors.NewValidationError("projection", "unknown projection", int(a.projection))
	}
	return a, nil
}

// DecisionFunction は生の内積 w·x を返す
func (a *ALMAClassifier) DecisionFunction(x model.Features) float64 {
	return a.w.DotMap(x)
}

// PredictProbaOne はシグモイドで潰した内積を {false, true} の確率として返す
func (a *ALMAClassifier) PredictProbaOne(x model.Features) map[bool]float64 {
	yp := sigmoid(a.DecisionFunction(x))
	return map[bool]float64{false: 1 - yp, true: yp}
}

// PredictOne は確率が 0.5 を超えていれば true を返す。ALMA は常に予測できる。
func (a *ALMAClassifier) PredictOne(x model.Features) (bool, bool) {
	return a.DecisionFunction(x) > 0, true
}

// LearnOne は1サンプルで重みを更新する
//
// y·(w·x) < (1-alpha)·gamma のときだけ更新し k を進める。それ以外は何もしない。
// 更新後の値は全て有限であることを確かめてから反映する。
func (a *ALMAClassifier) LearnOne(x model.Features, y bool) error {
	const op = "ALMAClassifier.LearnOne"
	if err := errors.CheckFeatures(op, x); err != nil {
		return err
	}

	sign := -1.0
	if y {
		sign = 1.0
	}

	kSqrt := math.Sqrt(float64(a.k))
	pSqrt := math.Sqrt(a.p - 1)
	gamma := a.b * pSqrt / kSqrt
	keys := sparse.SortedKeys(x)
	if sign*a.w.DotSorted(keys, x) >= (1-a.alpha)*gamma {
		a.Observe()
		return nil
	}

	eta := a.c / (pSqrt * kSqrt)
	cand := make(map[string]float64, len(keys))
	for _, i := range keys {
		cand[i] = a.w.Get(i) + eta*sign*x[i]
	}

	// 反映後の w と同じ順序で値を並べてノルムを計算する
	values := make([]float64, 0, a.w.Len()+len(keys))
	a.w.Range(func(i string, wi float64) bool {
		if ci, ok := cand[i]; ok {
			wi = ci
		}
		values = append(values, wi)
		return true
	})
	for _, i := range keys {
		if !a.w.Has(i) {
			values = append(values, cand[i])
		}
	}
	norm := floats.Norm(values, a.p)
	scale := math.Max(1, norm)

	for _, i := range keys {
		cand[i] /= scale
		if err := errors.CheckScalar("alma_update", cand[i], a.k); err != nil {
			return err
		}
	}
	if err := errors.CheckScalar("alma_norm", norm, a.k); err != nil {
		return err
	}

	if a.projection == ProjectAll {
		for _, i := range a.w.Keys() {
			if _, ok := cand[i]; !ok {
				a.w.Set(i, a.w.Get(i)/scale)
			}
		}
	}
	for _, i := range keys {
		a.w.Set(i, cand[i])
	}
	a.k++
	a.Observe()
	return nil
}

// K はマージン違反の回数 + 1 を返す
func (a *ALMAClassifier) K() int {
	return a.k
}

// Weights は重みのコピーを返す
func (a *ALMAClassifier) Weights() *sparse.Vector {
	return a.w.Clone()
}

// Projection は射影ステップの範囲を返す
func (a *ALMAClassifier) Projection() Projection {
	return a.projection
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

var _ model.Classifier[bool] = (*ALMAClassifier)(nil)
