package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// outcomes returns a stream with a 10% error rate for the first stable
// samples followed by errors only.
func outcomes(stable, broken int) []bool {
	out := make([]bool, 0, stable+broken)
	for i := 0; i < stable; i++ {
		out = append(out, i%10 != 9)
	}
	for i := 0; i < broken; i++ {
		out = append(out, false)
	}
	return out
}

func TestDDM_DetectsAbruptChange(t *testing.T) {
	ddm, err := NewDDM()
	require.NoError(t, err)

	firstWarning, firstDrift := -1, -1
	for i, correct := range outcomes(200, 100) {
		r := ddm.Update(correct)
		if i < 200 {
			require.False(t, r.WarningDetected, "no warning expected in the stable phase (i=%d)", i)
			require.False(t, r.DriftDetected)
		}
		if r.WarningDetected && firstWarning < 0 {
			firstWarning = i
		}
		if r.DriftDetected && firstDrift < 0 {
			firstDrift = i
			assert.Greater(t, r.Score, r.Threshold)
		}
	}

	require.GreaterOrEqual(t, firstWarning, 200)
	assert.Equal(t, 207, firstDrift)
	assert.Less(t, firstWarning, firstDrift, "warning must precede drift")
	assert.Equal(t, 1, ddm.Statistics().NumDrifts)
}

func TestDDM_WarmUp(t *testing.T) {
	ddm, err := NewDDM(WithDDMMinNumInstances(5))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		r := ddm.Update(false)
		assert.False(t, r.DriftDetected)
		assert.True(t, math.IsInf(r.Threshold, 1))
		assert.Equal(t, 1.0, r.ErrorRate)
	}
	assert.Equal(t, 4, ddm.Statistics().NumInstances)
}

func TestDDM_ResetAfterDrift(t *testing.T) {
	ddm, err := NewDDM()
	require.NoError(t, err)
	for _, correct := range outcomes(200, 8) {
		ddm.Update(correct)
	}

	stats := ddm.Statistics()
	assert.True(t, stats.DriftDetected)
	assert.Equal(t, 0, stats.NumInstances)
	assert.True(t, math.IsInf(stats.MinErrorRate, 1))

	ddm.Reset()
	assert.Equal(t, 0, ddm.Statistics().NumDrifts)
	assert.False(t, ddm.Statistics().DriftDetected)
}

func TestDDM_Validation(t *testing.T) {
	_, err := NewDDM(WithDDMMinNumInstances(0))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

	_, err = NewDDM(WithDDMWarningLevel(3), WithDDMOutControlLevel(2))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestADWIN_ShrinksWindowOnChange(t *testing.T) {
	adwin, err := NewADWIN()
	require.NoError(t, err)

	drifts := 0
	for i, correct := range outcomes(500, 200) {
		r := adwin.Update(correct)
		if i < 500 {
			require.False(t, r.DriftDetected, "unexpected drift at %d", i)
		}
		if r.DriftDetected {
			drifts++
		}
	}

	assert.GreaterOrEqual(t, drifts, 1)
	assert.Equal(t, drifts, adwin.NumDrifts())
	assert.Less(t, adwin.Width(), 700)
	assert.Greater(t, adwin.Mean(), 0.9, "window must only hold recent errors")
}

func TestADWIN_StableStreamKeepsGrowing(t *testing.T) {
	adwin, err := NewADWIN()
	require.NoError(t, err)
	for _, correct := range outcomes(300, 0) {
		adwin.Update(correct)
	}
	assert.Equal(t, 300, adwin.Width())
	assert.InDelta(t, 0.1, adwin.Mean(), 1e-12)

	adwin.Reset()
	assert.Equal(t, 0, adwin.Width())
	assert.Equal(t, "ADWIN", adwin.Name())
}

func TestADWIN_LongStationaryStreamIsNotTruncated(t *testing.T) {
	adwin, err := NewADWIN()
	require.NoError(t, err)
	for _, correct := range outcomes(5000, 0) {
		r := adwin.Update(correct)
		require.False(t, r.DriftDetected)
	}

	assert.Equal(t, 5000, adwin.Width())
	assert.Equal(t, 0, adwin.NumDrifts())
	assert.InDelta(t, 0.1, adwin.Mean(), 1e-12)

	// 1 行 5 バケット、行数は log2(5000) 程度
	require.LessOrEqual(t, len(adwin.rows), 13)
	for i, row := range adwin.rows {
		assert.LessOrEqual(t, len(row.sums), 5, "row %d", i)
	}
	assert.Less(t, adwin.NumBuckets(), 65)

	width := 0
	for i, row := range adwin.rows {
		width += len(row.sums) << i
	}
	assert.Equal(t, adwin.Width(), width, "bucket sizes add up to the window")
}

func TestADWIN_Validation(t *testing.T) {
	_, err := NewADWIN(WithADWINDelta(0))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

	_, err = NewADWIN(WithADWINMaxBuckets(1))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

	_, err = NewADWIN(WithADWINClock(0))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}
