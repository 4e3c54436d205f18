package drift

import (
	"math"
	"sync"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// DDM (Drift Detection Method) is a concept drift detection method
// Proposed in J. Gama, P. Medas, G. Castillo, P. Rodrigues (2004)
// "Learning with Drift Detection"
//
// The error rate p and its standard deviation s are tracked over the
// outcome stream. The minimum of p+s is kept as the reference; warning and
// drift fire when p+s exceeds p_min + level*s_min.
type DDM struct {
	// Hyperparameters
	minNumInstances int     // Minimum number of instances
	warningLevel    float64 // Warning level
	outControlLevel float64 // Out of control level

	// Statistics
	numInstances int     // Number of instances
	numErrors    int     // Number of errors
	errorRate    float64 // Error rate
	stdDev       float64 // Standard deviation

	// Reference values (minimum values since the last reset)
	minErrorRate float64
	minStdDev    float64

	// State
	warningDetected bool
	driftDetected   bool
	numDrifts       int

	mu sync.RWMutex
}

// DDMOption is a DDM configuration option
type DDMOption func(*DDM)

// WithDDMMinNumInstances sets the minimum number of samples
func WithDDMMinNumInstances(n int) DDMOption {
	return func(ddm *DDM) {
		ddm.minNumInstances = n
	}
}

// WithDDMWarningLevel sets the warning level
func WithDDMWarningLevel(level float64) DDMOption {
	return func(ddm *DDM) {
		ddm.warningLevel = level
	}
}

// WithDDMOutControlLevel sets the out-of-control level
func WithDDMOutControlLevel(level float64) DDMOption {
	return func(ddm *DDM) {
		ddm.outControlLevel = level
	}
}

// NewDDM creates a new DDM instance (defaults: 30 instances, μ+2σ, μ+3σ)
func NewDDM(options ...DDMOption) (*DDM, error) {
	ddm := &DDM{
		minNumInstances: 30,
		warningLevel:    2.0,
		outControlLevel: 3.0,
		minErrorRate:    math.Inf(1),
		minStdDev:       math.Inf(1),
	}
	for _, opt := range options {
		opt(ddm)
	}

	if ddm.minNumInstances < 1 {
		return nil, errors.NewValidationError("min_num_instances", "must be at least 1", ddm.minNumInstances)
	}
	if !(ddm.warningLevel > 0) {
		return nil, errors.NewValidationError("warning_level", "must be positive", ddm.warningLevel)
	}
	if !(ddm.outControlLevel > ddm.warningLevel) {
		return nil, errors.NewValidationError("out_control_level", "must be greater than warning_level", ddm.outControlLevel)
	}
	return ddm, nil
}

// Update updates the detector with one prediction outcome.
// After a drift the statistics restart from zero.
func (ddm *DDM) Update(correct bool) Result {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()

	ddm.numInstances++
	if !correct {
		ddm.numErrors++
	}

	ddm.errorRate = float64(ddm.numErrors) / float64(ddm.numInstances)
	ddm.stdDev = math.Sqrt(ddm.errorRate * (1.0 - ddm.errorRate) / float64(ddm.numInstances))
	result := Result{ErrorRate: ddm.errorRate, Score: ddm.errorRate + ddm.stdDev}

	// Do not detect if minimum sample size is not reached
	if ddm.numInstances < ddm.minNumInstances {
		ddm.warningDetected, ddm.driftDetected = false, false
		result.Threshold = math.Inf(1)
		return result
	}

	// 基準値の更新（最小エラー率とその時の標準偏差）
	if result.Score < ddm.minErrorRate+ddm.minStdDev {
		ddm.minErrorRate = ddm.errorRate
		ddm.minStdDev = ddm.stdDev
	}

	warningThreshold := ddm.minErrorRate + ddm.warningLevel*ddm.minStdDev
	driftThreshold := ddm.minErrorRate + ddm.outControlLevel*ddm.minStdDev
	result.Threshold = driftThreshold

	ddm.warningDetected = result.Score > warningThreshold
	result.WarningDetected = ddm.warningDetected

	if result.Score > driftThreshold {
		result.DriftDetected = true
		ddm.numDrifts++
		// ドリフト検出時はリセット
		ddm.resetStatistics()
		ddm.driftDetected = true
		return result
	}
	ddm.driftDetected = false
	return result
}

// Reset はドリフト検出器をリセット
func (ddm *DDM) Reset() {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()
	ddm.resetStatistics()
	ddm.driftDetected = false
	ddm.numDrifts = 0
}

func (ddm *DDM) resetStatistics() {
	ddm.numInstances = 0
	ddm.numErrors = 0
	ddm.errorRate = 0
	ddm.stdDev = 0
	ddm.minErrorRate = math.Inf(1)
	ddm.minStdDev = math.Inf(1)
	ddm.warningDetected = false
}

// Name returns "DDM".
func (ddm *DDM) Name() string { return "DDM" }

// Statistics は現在の統計情報を返す
func (ddm *DDM) Statistics() DDMStatistics {
	ddm.mu.RLock()
	defer ddm.mu.RUnlock()

	return DDMStatistics{
		NumInstances:    ddm.numInstances,
		NumErrors:       ddm.numErrors,
		ErrorRate:       ddm.errorRate,
		StdDev:          ddm.stdDev,
		MinErrorRate:    ddm.minErrorRate,
		MinStdDev:       ddm.minStdDev,
		WarningDetected: ddm.warningDetected,
		DriftDetected:   ddm.driftDetected,
		NumDrifts:       ddm.numDrifts,
	}
}

// DDMStatistics はDDMの統計情報
type DDMStatistics struct {
	NumInstances    int     // サンプル数
	NumErrors       int     // エラー数
	ErrorRate       float64 // エラー率
	StdDev          float64 // 標準偏差
	MinErrorRate    float64 // 最小エラー率
	MinStdDev       float64 // 最小標準偏差
	WarningDetected bool    // 警告検出フラグ
	DriftDetected   bool    // 直前の更新でドリフトを検出したか
	NumDrifts       int     // 検出したドリフトの累計
}

var _ Detector = (*DDM)(nil)
