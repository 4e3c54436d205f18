package model

import (
	"context"
)

// Prediction は PredictStream の出力要素
type Prediction[L comparable] struct {
	X     Features
	Y     L
	OK    bool
	Proba map[L]float64
}

// FitStream はチャネルから受け取ったサンプルでモデルを逐次学習する
//
// コンテキストがキャンセルされるかチャネルが閉じられるまで学習を続ける。
// キャンセルはサンプル間でのみ確認される。最初の学習エラーで停止する。
func FitStream[L comparable](ctx context.Context, m Learner[L], dataChan <-chan Example[L]) (int64, error) {
	var n int64
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case ex, ok := <-dataChan:
			if !ok {
				return n, nil
			}
			if err := m.LearnOne(ex.X, ex.Y); err != nil {
				return n, err
			}
			n++
		}
	}
}

// PredictStream は入力ストリームに対してリアルタイムに予測を行う
//
// 入力チャネルが閉じられるかコンテキストがキャンセルされると出力チャネルは閉じられる。
// モデルは呼び出し側のゴルーチンとは別の1つのゴルーチンからのみ参照されるため、
// 実行中に同じモデルで LearnOne を呼んではならない。
func PredictStream[L comparable](ctx context.Context, m Classifier[L], inputChan <-chan Features) <-chan Prediction[L] {
	out := make(chan Prediction[L])
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case x, ok := <-inputChan:
				if !ok {
					return
				}
				y, found := m.PredictOne(x)
				p := Prediction[L]{X: x, Y: y, OK: found, Proba: m.PredictProbaOne(x)}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
