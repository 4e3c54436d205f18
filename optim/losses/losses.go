// Package losses provides the multi-class loss functions consumed by
// SoftmaxRegression.
package losses

import (
	"math"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// MultiClassLoss は多クラス分類の損失関数
type MultiClassLoss[L comparable] interface {
	// Loss は予測分布 yPred に対する損失を返す
	Loss(yTrue L, yPred map[L]float64) float64

	// Gradient は各ラベルのロジットに関する損失の勾配を返す。
	// 返り値のキーは yPred のキーと yTrue の和集合。
	Gradient(yTrue L, yPred map[L]float64) map[L]float64
}

// CrossEntropy は交差エントロピー損失
//
// softmax の出力 p に対し、ロジットに関する勾配は p_ℓ - 1[ℓ == y] になる。
type CrossEntropy[L comparable] struct {
	// Eps clips probabilities away from 0 before taking the log.
	Eps float64
}

// NewCrossEntropy returns a CrossEntropy with eps = 1e-15.
func NewCrossEntropy[L comparable]() *CrossEntropy[L] {
	return &CrossEntropy[L]{Eps: 1e-15}
}

func (c *CrossEntropy[L]) Loss(yTrue L, yPred map[L]float64) float64 {
	eps := c.Eps
	if eps <= 0 {
		eps = 1e-15
	}
	return -math.Log(errors.ClipValue(yPred[yTrue], eps, 1-eps))
}

func (c *CrossEntropy[L]) Gradient(yTrue L, yPred map[L]float64) map[L]float64 {
	grad := make(map[L]float64, len(yPred)+1)
	for label, p := range yPred {
		if label == yTrue {
			grad[label] = p - 1
		} else {
			grad[label] = p
		}
	}
	if _, ok := yPred[yTrue]; !ok {
		grad[yTrue] = -1
	}
	return grad
}
