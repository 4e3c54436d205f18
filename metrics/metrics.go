// Package metrics provides online evaluation metrics that are updated one
// prediction at a time.
package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// Metric はオンラインで更新される評価指標
type Metric[L comparable] interface {
	// Update は1件の予測結果で指標を更新する。
	// proba は予測確率（確率を出さないモデルでは nil でよい）。
	Update(yTrue, yPred L, proba map[L]float64)

	// Get は現在の値を返す
	Get() float64

	// Name は指標の名前を返す
	Name() string

	// BiggerIsBetter は値が大きいほど良い指標かどうか
	BiggerIsBetter() bool
}

// Accuracy は正解率
type Accuracy[L comparable] struct {
	n       int64
	correct int64
}

// NewAccuracy creates an empty Accuracy.
func NewAccuracy[L comparable]() *Accuracy[L] {
	return &Accuracy[L]{}
}

func (a *Accuracy[L]) Update(yTrue, yPred L, _ map[L]float64) {
	a.n++
	if yTrue == yPred {
		a.correct++
	}
}

// Get は正解率を返す。サンプルがなければ 0。
func (a *Accuracy[L]) Get() float64 {
	if a.n == 0 {
		return 0
	}
	return float64(a.correct) / float64(a.n)
}

func (a *Accuracy[L]) Name() string         { return "Accuracy" }
func (a *Accuracy[L]) BiggerIsBetter() bool { return true }

// N は評価したサンプル数を返す
func (a *Accuracy[L]) N() int64 { return a.n }

func (a *Accuracy[L]) String() string {
	return fmt.Sprintf("Accuracy: %.2f%%", a.Get()*100)
}

// LogLoss は平均対数損失
//
// 正解ラベルの予測確率を [eps, 1-eps] に切り詰めてから対数を取る。
type LogLoss[L comparable] struct {
	eps float64
	n   int64
	sum float64
}

// NewLogLoss creates an empty LogLoss with eps = 1e-15.
func NewLogLoss[L comparable]() *LogLoss[L] {
	return &LogLoss[L]{eps: 1e-15}
}

func (l *LogLoss[L]) Update(yTrue, _ L, proba map[L]float64) {
	p := errors.ClipValue(proba[yTrue], l.eps, 1-l.eps)
	l.sum += -math.Log(p)
	l.n++
}

func (l *LogLoss[L]) Get() float64 {
	if l.n == 0 {
		return 0
	}
	return l.sum / float64(l.n)
}

func (l *LogLoss[L]) Name() string         { return "LogLoss" }
func (l *LogLoss[L]) BiggerIsBetter() bool { return false }

func (l *LogLoss[L]) String() string {
	return fmt.Sprintf("LogLoss: %.6f", l.Get())
}

// ConfusionMatrix は混同行列。ラベルは初出順に並ぶ。
type ConfusionMatrix[L comparable] struct {
	labels []L
	seen   map[L]struct{}
	counts map[L]map[L]int64
	n      int64
}

// NewConfusionMatrix creates an empty ConfusionMatrix.
func NewConfusionMatrix[L comparable]() *ConfusionMatrix[L] {
	return &ConfusionMatrix[L]{
		seen:   make(map[L]struct{}),
		counts: make(map[L]map[L]int64),
	}
}

func (c *ConfusionMatrix[L]) observe(label L) {
	if _, ok := c.seen[label]; !ok {
		c.seen[label] = struct{}{}
		c.labels = append(c.labels, label)
	}
}

// Update は (正解, 予測) の組を1件数える
func (c *ConfusionMatrix[L]) Update(yTrue, yPred L, _ map[L]float64) {
	c.observe(yTrue)
	c.observe(yPred)
	row, ok := c.counts[yTrue]
	if !ok {
		row = make(map[L]int64)
		c.counts[yTrue] = row
	}
	row[yPred]++
	c.n++
}

// Count は正解 yTrue を yPred と予測した件数を返す
func (c *ConfusionMatrix[L]) Count(yTrue, yPred L) int64 {
	return c.counts[yTrue][yPred]
}

// Classes は観測したラベルを初出順に返す
func (c *ConfusionMatrix[L]) Classes() []L {
	out := make([]L, len(c.labels))
	copy(out, c.labels)
	return out
}

// N は数えた件数の合計を返す
func (c *ConfusionMatrix[L]) N() int64 { return c.n }

// Get は対角成分の割合（正解率）を返す
func (c *ConfusionMatrix[L]) Get() float64 {
	if c.n == 0 {
		return 0
	}
	var diag int64
	for _, l := range c.labels {
		diag += c.counts[l][l]
	}
	return float64(diag) / float64(c.n)
}

// MacroF1 はラベルごとの F1 の平均を返す
func (c *ConfusionMatrix[L]) MacroF1() float64 {
	if len(c.labels) == 0 {
		return 0
	}
	var total float64
	for _, l := range c.labels {
		tp := float64(c.counts[l][l])
		var predicted, actual float64
		for _, other := range c.labels {
			predicted += float64(c.counts[other][l])
			actual += float64(c.counts[l][other])
		}
		if predicted+actual > 0 {
			total += 2 * tp / (predicted + actual)
		}
	}
	return total / float64(len(c.labels))
}

func (c *ConfusionMatrix[L]) Name() string         { return "ConfusionMatrix" }
func (c *ConfusionMatrix[L]) BiggerIsBetter() bool { return true }

// String renders the matrix with true labels as rows.
func (c *ConfusionMatrix[L]) String() string {
	names := make([]string, len(c.labels))
	width := len("true\\pred")
	for i, l := range c.labels {
		names[i] = fmt.Sprint(l)
		width = max(width, len(names[i]))
	}
	for _, row := range c.counts {
		for _, v := range row {
			width = max(width, len(fmt.Sprint(v)))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s", width, "true\\pred")
	for _, n := range names {
		fmt.Fprintf(&b, " %*s", width, n)
	}
	b.WriteByte('\n')
	for i, yt := range c.labels {
		fmt.Fprintf(&b, "%*s", width, names[i])
		for _, yp := range c.labels {
			fmt.Fprintf(&b, " %*d", width, c.counts[yt][yp])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	_ Metric[string] = (*Accuracy[string])(nil)
	_ Metric[string] = (*LogLoss[string])(nil)
	_ Metric[string] = (*ConfusionMatrix[string])(nil)
)
