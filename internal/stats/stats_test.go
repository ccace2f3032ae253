package stats

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-payout/internal/game/slot"
)

func TestProportionCI(t *testing.T) {
	testCases := []struct {
		name string
		k, n int
	}{
		{"零命中", 0, 100},
		{"全命中", 100, 100},
		{"四分之一", 250, 1000},
		{"小样本", 1, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			est := ProportionCI(tc.k, tc.n, 0.95)
			assert.InDelta(t, float64(tc.k)/float64(tc.n), est.Hat, 1e-12)
			assert.True(t, est.CI.Contains(est.Hat), "%+v", est)
			assert.GreaterOrEqual(t, est.CI.Lo, 0.0)
			assert.LessOrEqual(t, est.CI.Hi, 1.0)
		})
	}

	zero := ProportionCI(0, 100, 0.95)
	assert.Equal(t, 0.0, zero.CI.Lo)
	// 0/100 的上界约为 3.6%
	assert.InDelta(t, 0.0362, zero.CI.Hi, 0.001)

	full := ProportionCI(100, 100, 0.95)
	assert.Equal(t, 1.0, full.CI.Hi)

	assert.Equal(t, Estimate{}, ProportionCI(0, 0, 0.95))
}

func TestProportionCI_NarrowsWithSamples(t *testing.T) {
	small := ProportionCI(25, 100, 0.95)
	large := ProportionCI(2500, 10000, 0.95)
	assert.Less(t, large.CI.Width(), small.CI.Width())
}

func TestMeanCI(t *testing.T) {
	data := []float64{0, 0, 0, 1.5, 0, 0, 3, 0}
	est, std := MeanCI(data, 0.95)
	assert.InDelta(t, 4.5/8, est.Hat, 1e-12)
	assert.Greater(t, std, 0.0)
	assert.True(t, est.CI.Contains(est.Hat))
	assert.InDelta(t, est.Hat-est.CI.Lo, est.CI.Hi-est.Hat, 1e-12)

	single, std1 := MeanCI([]float64{2}, 0.95)
	assert.Equal(t, CI{Lo: 2, Hi: 2}, single.CI)
	assert.Zero(t, std1)

	empty, _ := MeanCI(nil, 0.95)
	assert.Equal(t, Estimate{}, empty)
}

func TestRequiredSpins(t *testing.T) {
	// z(0.95)≈1.96，std 2，半宽 0.01 → (1.96*2/0.01)^2 ≈ 153664
	n := RequiredSpins(2, 0.01, 0.95)
	assert.InDelta(t, 153664, n, 100)
	assert.Zero(t, RequiredSpins(0, 0.01, 0.95))
}

func TestAnalyze_DefaultPaytable(t *testing.T) {
	pt, err := slot.NewPaytable(slot.DefaultPaytableConfig())
	require.NoError(t, err)
	engine := slot.NewEngine(pt, slot.WithRandom(slot.NewSeededRandomGenerator(99)))

	res, err := slot.Simulate(context.Background(), engine, 5000, decimal.NewFromInt(1), nil)
	require.NoError(t, err)

	rep := Analyze(res, 0)
	assert.Equal(t, DefaultConfidence, rep.Confidence)
	assert.Equal(t, 5000, rep.Spins)
	assert.InDelta(t, res.RTP, rep.RTP.Hat, 1e-9)
	assert.InDelta(t, res.HitRate(), rep.HitRate.Hat, 1e-12)
	assert.Contains(t, rep.TierRates, "loss")
	assert.GreaterOrEqual(t, rep.MaxReturn, rep.P99Return)
	assert.Greater(t, rep.StdDev, 0.0)
}

func TestAnalyze_Empty(t *testing.T) {
	rep := Analyze(&slot.SimulationResult{ExpectedRTP: 0.45}, 0.9)
	assert.Equal(t, 0.9, rep.Confidence)
	assert.Zero(t, rep.RTP.Hat)
	assert.False(t, rep.WithinCI())
}

func TestMomentCI_MatchesMeanCI(t *testing.T) {
	data := []float64{0, 0, 2, 0, 0.5, 0, 0, 1}
	want, std := MeanCI(data, 0.9)
	got := MomentCI(want.Hat, std, len(data), 0.9)
	assert.InDelta(t, want.CI.Lo, got.CI.Lo, 1e-12)
	assert.InDelta(t, want.CI.Hi, got.CI.Hi, 1e-12)

	assert.Equal(t, Estimate{}, MomentCI(1, 1, 0, 0.9))
	assert.Equal(t, CI{Lo: 3, Hi: 3}, MomentCI(3, 0, 10, 0.9).CI)
}

func TestAnalyze_UsesExactMomentsBeyondSamples(t *testing.T) {
	// 样本只保留了一部分，区间和最大值仍以累计矩为准
	res := &slot.SimulationResult{
		Spins:        1000,
		Hits:         250,
		ReturnMean:   0.45,
		ReturnStdDev: 1.2,
		MaxReturn:    65,
		Returns:      []float64{0, 0, 1.5, 0},
	}
	rep := Analyze(res, 0.95)
	assert.InDelta(t, 0.45, rep.RTP.Hat, 1e-12)
	assert.Equal(t, 1.2, rep.StdDev)
	assert.Equal(t, 65.0, rep.MaxReturn)
	assert.LessOrEqual(t, rep.P99Return, 1.5)
	assert.InDelta(t, rep.RTP.Hat-rep.RTP.CI.Lo, 1.96*1.2/math.Sqrt(1000), 1e-3)
}
