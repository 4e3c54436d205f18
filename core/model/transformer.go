package model

// Transformer は特徴量をオンラインで変換するインターフェース
type Transformer interface {
	// LearnOne は変換に必要な統計量を1サンプルで更新する
	LearnOne(x Features) error

	// TransformOne は現在の統計量で1サンプルを変換する
	TransformOne(x Features) (Features, error)
}
