package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// StandardScaler はオンラインの標準化スケーラー
//
// 特徴量ごとに Welford 法で平均と分散（母分散）を逐次更新し、
// (x - mean) / std に変換する。分散が 0 の特徴量は 0 に変換される。
// 変換はサンプルに含まれる特徴量だけを対象とする。
type StandardScaler struct {
	model.BaseEstimator

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	counts *sparse.Vector
	means  *sparse.Vector
	m2     *sparse.Vector
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	_ = scaler.LearnOne(x)
//	xt, err := scaler.TransformOne(x)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
		counts:   sparse.New(),
		means:    sparse.New(),
		m2:       sparse.New(),
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// LearnOne は1サンプルで各特徴量の平均と分散を更新する
func (s *StandardScaler) LearnOne(x model.Features) error {
	if err := errors.CheckFeatures("StandardScaler.LearnOne", x); err != nil {
		return err
	}
	for _, i := range sparse.SortedKeys(x) {
		xi := x[i]
		s.counts.Add(i, 1)
		n := s.counts.Get(i)
		delta := xi - s.means.Get(i)
		s.means.Add(i, delta/n)
		s.m2.Add(i, delta*(xi-s.means.Get(i)))
	}
	s.Observe()
	return nil
}

// TransformOne は現在の統計量でサンプルを標準化する
func (s *StandardScaler) TransformOne(x model.Features) (model.Features, error) {
	if err := errors.CheckFeatures("StandardScaler.TransformOne", x); err != nil {
		return nil, err
	}
	out := make(model.Features, len(x))
	for i, xi := range x {
		v := xi
		if s.WithMean {
			v -= s.means.Get(i)
		}
		if s.WithStd {
			std := math.Sqrt(s.variance(i))
			if std == 0 {
				v = 0
			} else {
				v /= std
			}
		}
		out[i] = v
	}
	return out, nil
}

func (s *StandardScaler) variance(i string) float64 {
	n := s.counts.Get(i)
	if n == 0 {
		return 0
	}
	return s.m2.Get(i) / n
}

// Mean は各特徴量の平均のコピーを返す
func (s *StandardScaler) Mean() map[string]float64 {
	return s.means.ToMap()
}

// Var は各特徴量の母分散を返す
func (s *StandardScaler) Var() map[string]float64 {
	out := make(map[string]float64, s.counts.Len())
	s.counts.Range(func(i string, _ float64) bool {
		out[i] = s.variance(i)
		return true
	})
	return out
}

// Count は特徴量ごとの観測回数を返す
func (s *StandardScaler) Count(feature string) int64 {
	return int64(s.counts.Get(feature))
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.counts.Len())
}

// MinMaxScaler はオンラインの Min-Max スケーラー
// これまでに観測した最小値・最大値で指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	dataMin *sparse.Vector
	dataMax *sparse.Vector
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) (*MinMaxScaler, error) {
	if !(featureRange[0] < featureRange[1]) {
		return nil, errors.NewValidationError("feature_range", "min must be smaller than max", featureRange)
	}
	return &MinMaxScaler{
		FeatureRange: featureRange,
		dataMin:      sparse.New(),
		dataMax:      sparse.New(),
	}, nil
}

// NewMinMaxScalerDefault はデフォルト設定([0, 1])でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	m, _ := NewMinMaxScaler([2]float64{0, 1})
	return m
}

// LearnOne は各特徴量の最小値・最大値を更新する
func (m *MinMaxScaler) LearnOne(x model.Features) error {
	if err := errors.CheckFeatures("MinMaxScaler.LearnOne", x); err != nil {
		return err
	}
	for _, i := range sparse.SortedKeys(x) {
		xi := x[i]
		if lo, ok := m.dataMin.Lookup(i); !ok || xi < lo {
			m.dataMin.Set(i, xi)
		}
		if hi, ok := m.dataMax.Lookup(i); !ok || xi > hi {
			m.dataMax.Set(i, xi)
		}
	}
	m.Observe()
	return nil
}

// TransformOne は観測済みの範囲でサンプルをスケーリングする
// 範囲の幅が 0 の特徴量（未観測を含む）は FeatureRange の下限に変換される
func (m *MinMaxScaler) TransformOne(x model.Features) (model.Features, error) {
	if err := errors.CheckFeatures("MinMaxScaler.TransformOne", x); err != nil {
		return nil, err
	}
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	out := make(model.Features, len(x))
	for i, xi := range x {
		dmin, dmax := m.dataMin.Get(i), m.dataMax.Get(i)
		if dmax-dmin == 0 {
			out[i] = lo
			continue
		}
		out[i] = lo + (xi-dmin)/(dmax-dmin)*(hi-lo)
	}
	return out, nil
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g])", m.FeatureRange[0], m.FeatureRange[1])
}

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)
