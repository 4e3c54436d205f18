package optim

import (
	"math"

	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// FTRLProximal は FTRL-Proximal 最適化手法
//
// 特徴量ごとに双対平均 z と勾配二乗和 n を保持し、重みは更新のたびに
// z, n から遅延的に再構成される。|z[i]| <= l1 の特徴量は直前の値のまま
// 残されるため、L1 正則化による疎性が得られる。
//
// McMahan et al. (2013) "Ad click prediction: a view from the trenches"
type FTRLProximal struct {
	Base
	alpha float64
	beta  float64
	l1    float64
	l2    float64
	z     *sparse.Vector
	n     *sparse.Vector
}

// FTRLOption は FTRLProximal の設定オプション
type FTRLOption func(*FTRLProximal)

// WithFTRLAlpha は学習率スケール alpha を設定する
func WithFTRLAlpha(alpha float64) FTRLOption {
	return func(o *FTRLProximal) {
		o.alpha = alpha
	}
}

// WithFTRLBeta は平滑化項 beta を設定する
func WithFTRLBeta(beta float64) FTRLOption {
	return func(o *FTRLProximal) {
		o.beta = beta
	}
}

// WithFTRLL1 は L1 正則化の強さを設定する
func WithFTRLL1(l1 float64) FTRLOption {
	return func(o *FTRLProximal) {
		o.l1 = l1
	}
}

// WithFTRLL2 は L2 正則化の強さを設定する
func WithFTRLL2(l2 float64) FTRLOption {
	return func(o *FTRLProximal) {
		o.l2 = l2
	}
}

// NewFTRLProximal は新しい FTRLProximal を作成する
// （既定値: alpha=0.05, beta=1, l1=0, l2=1）
func NewFTRLProximal(options ...FTRLOption) (*FTRLProximal, error) {
	o := &FTRLProximal{
		alpha: 0.05,
		beta:  1.0,
		l1:    0.0,
		l2:    1.0,
		z:     sparse.New(),
		n:     sparse.New(),
	}
	for _, opt := range options {
		opt(o)
	}
	if !(o.alpha > 0) {
		return nil, errors.NewValidationError("alpha", "must be positive", o.alpha)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{{"beta", o.beta}, {"l1", o.l1}, {"l2", o.l2}} {
		if !(p.value >= 0) {
			return nil, errors.NewValidationError(p.name, "must be non-negative", p.value)
		}
	}
	return o, nil
}

// Apply runs the two FTRL passes. The first pass materializes every touched
// weight from the state as it stood before this gradient; only then does the
// second pass absorb the gradient into z and n.
func (o *FTRLProximal) Apply(w, g *sparse.Vector) *sparse.Vector {
	g.Range(func(i string, _ float64) bool {
		zi := o.z.Get(i)
		if math.Abs(zi) > o.l1 {
			sign := 1.0
			if zi < 0 {
				sign = -1.0
			}
			w.Set(i, -(zi-sign*o.l1)/((o.beta+math.Sqrt(o.n.Get(i)))/o.alpha+o.l2))
		} else if !w.Has(i) {
			// z, n がキーを持つなら w も持つ
			w.Set(i, 0)
		}
		return true
	})

	g.Range(func(i string, gi float64) bool {
		ni := o.n.Get(i)
		sigma := (math.Sqrt(ni+gi*gi) - math.Sqrt(ni)) / o.alpha
		o.z.Add(i, gi-sigma*w.Get(i))
		o.n.Add(i, gi*gi)
		return true
	})

	o.step()
	return w
}

// Z は双対平均 z のコピーを返す
func (o *FTRLProximal) Z() *sparse.Vector {
	return o.z.Clone()
}

// N は勾配二乗和 n のコピーを返す
func (o *FTRLProximal) N() *sparse.Vector {
	return o.n.Clone()
}

func (o *FTRLProximal) Clone() Optimizer {
	c := *o
	c.z = o.z.Clone()
	c.n = o.n.Clone()
	return &c
}

func (o *FTRLProximal) Name() string { return "FTRLProximal" }
