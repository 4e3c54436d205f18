package model

// BaseEstimator は全てのオンラインモデルの基底となる構造体
//
// 学習済みサンプル数を数える。並行アクセスは想定しない。
type BaseEstimator struct {
	nSamples int64
}

// IsFitted は1サンプル以上学習したかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.nSamples > 0
}

// Observe は学習済みサンプル数を1つ進める
func (e *BaseEstimator) Observe() {
	e.nSamples++
}

// NSamples は学習済みサンプル数を返す
func (e *BaseEstimator) NSamples() int64 {
	return e.nSamples
}

// Reset はサンプル数を初期状態に戻す
func (e *BaseEstimator) Reset() {
	e.nSamples = 0
}
