// Package drift provides concept drift detectors that watch the stream of
// prediction outcomes produced by progressive validation.
package drift

// Result は1回の更新後の検出結果
type Result struct {
	WarningDetected bool    // 警告レベルを超えたか
	DriftDetected   bool    // ドリフトレベルを超えたか
	ErrorRate       float64 // 現在のエラー率
	Score           float64 // 検出器固有のスコア
	Threshold       float64 // ドリフトと判定する閾値
}

// Detector はドリフト検出器の共通インターフェース
type Detector interface {
	// Update は予測が正しかったかどうかで検出器を更新する
	Update(correct bool) Result

	// Reset は検出器を初期状態に戻す
	Reset()

	// Name は検出器の名前を返す
	Name() string
}
