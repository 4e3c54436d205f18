// Package model defines the per-example contracts shared by every online
// estimator in streamlin.
package model

// Features は1サンプル分の疎な特徴量（特徴量名 -> 値）
//
// 存在しない特徴量は 0 として扱われる。
type Features map[string]float64

// Example は特徴量とラベルの組
type Example[L comparable] struct {
	X Features
	Y L
}

// Learner は1サンプルずつ学習するモデルのインターフェース
type Learner[L comparable] interface {
	// LearnOne は1サンプルでモデルを更新する。状態を変更する唯一の入口で、
	// エラー時には状態は一切変更されない。
	LearnOne(x Features, y L) error
}

// Predictor は1サンプルずつ予測するモデルのインターフェース
type Predictor[L comparable] interface {
	// PredictOne は最も確率の高いラベルを返す。
	// まだ何も学習していない場合は ok = false。
	PredictOne(x Features) (y L, ok bool)
}

// Classifier は確率を出力できるオンライン分類器
type Classifier[L comparable] interface {
	Learner[L]
	Predictor[L]

	// PredictProbaOne はラベルごとの確率を返す。値の総和は 1。
	PredictProbaOne(x Features) map[L]float64
}
