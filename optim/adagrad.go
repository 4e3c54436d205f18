package optim

import (
	"math"

	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// AdaGrad は特徴量ごとに勾配二乗和で学習率を減衰させる最適化手法
//
//	g2[i] += g[i]^2
//	w[i]  -= lr / sqrt(g2[i] + eps) * g[i]
//
// Duchi, Hazan, Singer (2011) "Adaptive subgradient methods for online
// learning and stochastic optimization"
type AdaGrad struct {
	Base
	lr  float64
	eps float64
	g2  *sparse.Vector
}

// AdaGradOption は AdaGrad の設定オプション
type AdaGradOption func(*AdaGrad)

// WithAdaGradLR は学習率を設定する
func WithAdaGradLR(lr float64) AdaGradOption {
	return func(o *AdaGrad) {
		o.lr = lr
	}
}

// WithAdaGradEps はゼロ除算を防ぐ微小値を設定する
func WithAdaGradEps(eps float64) AdaGradOption {
	return func(o *AdaGrad) {
		o.eps = eps
	}
}

// NewAdaGrad は新しい AdaGrad を作成する（既定値: lr=0.1, eps=1e-8）
func NewAdaGrad(options ...AdaGradOption) (*AdaGrad, error) {
	o := &AdaGrad{
		lr:  0.1,
		eps: 1e-8,
		g2:  sparse.New(),
	}
	for _, opt := range options {
		opt(o)
	}
	if !(o.lr > 0) {
		return nil, errors.NewValidationError("lr", "learning rate must be positive", o.lr)
	}
	if !(o.eps > 0) {
		return nil, errors.NewValidationError("eps", "must be positive", o.eps)
	}
	return o, nil
}

func (o *AdaGrad) Apply(w, g *sparse.Vector) *sparse.Vector {
	g.Range(func(i string, gi float64) bool {
		o.g2.Add(i, gi*gi)
		w.Add(i, -o.lr/math.Sqrt(o.g2.Get(i)+o.eps)*gi)
		return true
	})
	o.step()
	return w
}

// G2 は勾配二乗和のコピーを返す
func (o *AdaGrad) G2() *sparse.Vector {
	return o.g2.Clone()
}

func (o *AdaGrad) Clone() Optimizer {
	c := *o
	c.g2 = o.g2.Clone()
	return &c
}

func (o *AdaGrad) Name() string { return "AdaGrad" }
