// Package optim provides the sequential optimizers used by the linear models.
//
// An Optimizer owns the auxiliary state of exactly one weight vector. Models
// that keep several weight vectors (one per class) hold one independent
// Optimizer per vector, obtained with Clone.
package optim

import (
	"github.com/YuminosukeSato/streamlin/core/sparse"
)

// Optimizer は重みベクトルの更新規則
type Optimizer interface {
	// Prepare は予測の直前に一度呼ばれる。先読み型の最適化手法が
	// 重みを一時的に調整するためのフックで、既定では何もしない。
	Prepare(w *sparse.Vector) *sparse.Vector

	// Apply は勾配 g に従って w をインプレースで更新し、内部状態を進める。
	// g に含まれるキーのみが変更される。
	Apply(w, g *sparse.Vector) *sparse.Vector

	// Clone は内部状態を含む独立したディープコピーを返す
	Clone() Optimizer

	// NIterations は Apply が呼ばれた回数を返す
	NIterations() int

	// Name returns the optimizer's display name.
	Name() string
}

// Base は具体的な最適化手法に埋め込む共通部分
type Base struct {
	nIterations int
}

// Prepare is the identity hook.
func (b *Base) Prepare(w *sparse.Vector) *sparse.Vector {
	return w
}

// NIterations は Apply が呼ばれた回数を返す
func (b *Base) NIterations() int {
	return b.nIterations
}

func (b *Base) step() {
	b.nIterations++
}
