package evaluate

import (
	"context"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/core/parallel"
	"github.com/YuminosukeSato/streamlin/metrics"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// Candidate は Compare で比較する1つのモデル
type Candidate[L comparable] struct {
	Name    string
	Model   model.Classifier[L]
	Metrics []metrics.Metric[L]
}

// Compare は同じサンプル列で複数のモデルを並行に progressive validation する
//
// 各モデルとその指標は専用の1つのゴルーチンだけが触る。examples の特徴量は
// 全モデルで共有されるので、モデルは入力を書き換えてはならない。
// 状態を持つオプション (ドリフト検出器、Collector、変換器) は共有できないため
// ValidationError になる。結果は candidates と同じ順序で返す。
func Compare[L comparable](
	ctx context.Context,
	examples []model.Example[L],
	candidates []Candidate[L],
	parallelism int,
	opts ...Option,
) ([]*Report[L], error) {
	probe := &options{}
	for _, opt := range opts {
		opt(probe)
	}
	if probe.detector != nil || probe.collector != nil || probe.transformer != nil {
		return nil, errors.NewValidationError("opts", "stateful options cannot be shared between candidates", nil)
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Name]; dup {
			return nil, errors.NewValidationError("name", "candidate names must be unique", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	reports := make([]*Report[L], len(candidates))
	err := parallel.ForEach(ctx, len(candidates), parallelism, func(ctx context.Context, i int) error {
		c := candidates[i]
		ch := make(chan model.Example[L], len(examples))
		for _, ex := range examples {
			ch <- ex
		}
		close(ch)

		withName := append(opts[:len(opts):len(opts)], WithModelName(c.Name))
		r, err := ProgressiveValScore(ctx, c.Model, ch, c.Metrics, withName...)
		reports[i] = r
		if err != nil {
			return errors.Wrapf(err, "candidate %s", c.Name)
		}
		return nil
	})
	return reports, err
}
