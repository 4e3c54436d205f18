package drift

import (
	"math"
	"sync"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// ADWIN (Adaptive Windowing) はアダプティブウィンドウによるドリフト検出
// A. Bifet, R. Gavalda (2007) "Learning from time-changing data with adaptive windowing"
//
// 予測の誤り (誤り=1, 正解=0) を指数ヒストグラムに蓄える。大きさ 2^i の
// バケットは行 i に最大 maxBuckets 個まで置かれ、あふれた行は古い 2 個を
// 併合して次の行へ送る。古い部分と新しい部分の平均の差がホフディング境界を
// 超えた場合にだけ古いバケットを捨てる。
type ADWIN struct {
	// ハイパーパラメータ
	delta        float64 // 信頼度パラメータ（小さいほど鈍感）
	maxBuckets   int     // 1 行あたりの最大バケット数
	clock        int     // 何回の更新ごとに検定するか
	minWindow    int     // 検定を始める最小サンプル数
	minSubWindow int     // 分割した各部分の最小サンプル数

	// データ構造
	rows      []bucketRow // rows[i] は大きさ 2^i のバケット
	totalSum  float64
	width     int
	ticks     int
	numDrifts int

	mu sync.RWMutex
}

// bucketRow は同じ大きさのバケットの和を古い順に持つ
type bucketRow struct {
	sums []float64
}

// ADWINOption はADWINの設定オプション
type ADWINOption func(*ADWIN)

// WithADWINDelta は信頼度パラメータを設定
func WithADWINDelta(delta float64) ADWINOption {
	return func(adwin *ADWIN) {
		adwin.delta = delta
	}
}

// WithADWINMaxBuckets は 1 行あたりの最大バケット数を設定
func WithADWINMaxBuckets(max int) ADWINOption {
	return func(adwin *ADWIN) {
		adwin.maxBuckets = max
	}
}

// WithADWINClock は検定の間隔（更新回数）を設定
func WithADWINClock(clock int) ADWINOption {
	return func(adwin *ADWIN) {
		adwin.clock = clock
	}
}

// NewADWIN は新しいADWINを作成（既定値: delta=0.002, 1 行 5 バケット, clock=32）
func NewADWIN(options ...ADWINOption) (*ADWIN, error) {
	adwin := &ADWIN{
		delta:        0.002,
		maxBuckets:   5,
		clock:        32,
		minWindow:    10,
		minSubWindow: 5,
	}
	for _, opt := range options {
		opt(adwin)
	}
	if !(adwin.delta > 0 && adwin.delta < 1) {
		return nil, errors.NewValidationError("delta", "must be in (0, 1)", adwin.delta)
	}
	if adwin.maxBuckets < 2 {
		return nil, errors.NewValidationError("max_buckets", "must be at least 2", adwin.maxBuckets)
	}
	if adwin.clock < 1 {
		return nil, errors.NewValidationError("clock", "must be at least 1", adwin.clock)
	}
	return adwin, nil
}

// Add は新しい値でADWINを更新し、ウィンドウが縮んだかどうかを返す
func (adwin *ADWIN) Add(value float64) bool {
	adwin.mu.Lock()
	defer adwin.mu.Unlock()

	adwin.insert(value)
	adwin.ticks++
	if adwin.ticks%adwin.clock != 0 {
		return false
	}
	return adwin.detectDrift()
}

// Update は予測結果でADWINを更新する
func (adwin *ADWIN) Update(correct bool) Result {
	value := 1.0
	if correct {
		value = 0
	}
	drift := adwin.Add(value)

	adwin.mu.RLock()
	defer adwin.mu.RUnlock()
	return Result{
		DriftDetected:   drift,
		WarningDetected: drift,
		ErrorRate:       adwin.mean(),
		Score:           adwin.mean(),
		Threshold:       adwin.delta,
	}
}

// insert は大きさ 1 のバケットを追加してから行ごとに圧縮する
func (adwin *ADWIN) insert(value float64) {
	if len(adwin.rows) == 0 {
		adwin.rows = append(adwin.rows, bucketRow{})
	}
	adwin.rows[0].sums = append(adwin.rows[0].sums, value)
	adwin.totalSum += value
	adwin.width++

	for i := 0; i < len(adwin.rows); i++ {
		row := adwin.rows[i].sums
		if len(row) <= adwin.maxBuckets {
			break
		}
		merged := row[0] + row[1]
		adwin.rows[i].sums = append(row[:0], row[2:]...)
		if i+1 == len(adwin.rows) {
			adwin.rows = append(adwin.rows, bucketRow{})
		}
		adwin.rows[i+1].sums = append(adwin.rows[i+1].sums, merged)
	}
}

// detectDrift は有意な分割点が無くなるまで最古のバケットを捨てる
func (adwin *ADWIN) detectDrift() bool {
	shrunk := false
	for adwin.width >= adwin.minWindow && adwin.hasCut() {
		adwin.dropOldest()
		shrunk = true
	}
	if shrunk {
		adwin.numDrifts++
	}
	return shrunk
}

// hasCut はバケット境界を古い順に分割点として検定する
func (adwin *ADWIN) hasCut() bool {
	sum0, n0 := 0.0, 0
	for i := len(adwin.rows) - 1; i >= 0; i-- {
		size := 1 << i
		for _, s := range adwin.rows[i].sums {
			sum0 += s
			n0 += size
			n1 := adwin.width - n0
			if n1 < adwin.minSubWindow {
				return false
			}
			if n0 < adwin.minSubWindow {
				continue
			}
			mean0 := sum0 / float64(n0)
			mean1 := (adwin.totalSum - sum0) / float64(n1)
			if math.Abs(mean0-mean1) > adwin.hoeffdingBound(n0, n1) {
				return true
			}
		}
	}
	return false
}

func (adwin *ADWIN) hoeffdingBound(n0, n1 int) float64 {
	m := 1.0/float64(n0) + 1.0/float64(n1)
	return math.Sqrt(0.5 * m * math.Log(4.0/adwin.delta))
}

// dropOldest は最も大きい行の先頭バケットを捨てる
func (adwin *ADWIN) dropOldest() {
	last := len(adwin.rows) - 1
	row := adwin.rows[last].sums
	adwin.totalSum -= row[0]
	adwin.width -= 1 << last
	adwin.rows[last].sums = row[1:]

	for len(adwin.rows) > 0 && len(adwin.rows[len(adwin.rows)-1].sums) == 0 {
		adwin.rows = adwin.rows[:len(adwin.rows)-1]
	}
}

func (adwin *ADWIN) mean() float64 {
	if adwin.width == 0 {
		return 0
	}
	return adwin.totalSum / float64(adwin.width)
}

// Mean は現在のウィンドウの平均を返す
func (adwin *ADWIN) Mean() float64 {
	adwin.mu.RLock()
	defer adwin.mu.RUnlock()
	return adwin.mean()
}

// Width は現在のウィンドウ幅を返す
func (adwin *ADWIN) Width() int {
	adwin.mu.RLock()
	defer adwin.mu.RUnlock()
	return adwin.width
}

// NumBuckets は保持しているバケットの総数を返す
func (adwin *ADWIN) NumBuckets() int {
	adwin.mu.RLock()
	defer adwin.mu.RUnlock()
	n := 0
	for _, row := range adwin.rows {
		n += len(row.sums)
	}
	return n
}

// NumDrifts は検出したドリフトの累計を返す
func (adwin *ADWIN) NumDrifts() int {
	adwin.mu.RLock()
	defer adwin.mu.RUnlock()
	return adwin.numDrifts
}

// Reset はADWINをリセット
func (adwin *ADWIN) Reset() {
	adwin.mu.Lock()
	defer adwin.mu.Unlock()

	adwin.rows = nil
	adwin.totalSum = 0
	adwin.width = 0
	adwin.ticks = 0
	adwin.numDrifts = 0
}

// Name returns "ADWIN".
func (adwin *ADWIN) Name() string { return "ADWIN" }

var _ Detector = (*ADWIN)(nil)
