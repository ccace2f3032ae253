// Package stats 对模拟结果做区间估计：RTP 用均值的正态近似，
// 中奖率和各档位命中率用 Clopper-Pearson 精确区间。
package stats

import (
	"math"
	"sort"

	"github.com/wfunc/slot-payout/internal/game/slot"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence 默认置信水平
const DefaultConfidence = 0.95

// CI 置信区间
type CI struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains 区间是否包含 x
func (c CI) Contains(x float64) bool {
	return x >= c.Lo && x <= c.Hi
}

// Width 区间宽度
func (c CI) Width() float64 {
	return c.Hi - c.Lo
}

// Estimate 点估计和置信区间
type Estimate struct {
	Hat float64 `json:"hat"`
	CI  CI      `json:"ci"`
}

// Report 模拟报告
type Report struct {
	Spins       int                 `json:"spins"`
	Confidence  float64             `json:"confidence"`
	ExpectedRTP float64             `json:"expected_rtp"`
	RTP         Estimate            `json:"rtp"`
	StdDev      float64             `json:"std_dev"` // 单次回报率标准差（波动性）
	HitRate     Estimate            `json:"hit_rate"`
	TierRates   map[string]Estimate `json:"tier_rates"`
	P99Return   float64             `json:"p99_return"`
	MaxReturn   float64             `json:"max_return"`
}

// WithinCI 期望RTP是否落在观测RTP的置信区间内
func (r *Report) WithinCI() bool {
	return r.RTP.CI.Contains(r.ExpectedRTP)
}

// Analyze 由模拟结果生成报告，confidence 不在 (0,1) 时使用默认值
func Analyze(res *slot.SimulationResult, confidence float64) *Report {
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}
	rep := &Report{
		Spins:       res.Spins,
		Confidence:  confidence,
		ExpectedRTP: res.ExpectedRTP,
		TierRates:   make(map[string]Estimate, len(res.TierHits)),
	}
	if res.Spins == 0 {
		return rep
	}

	rep.RTP = MomentCI(res.ReturnMean, res.ReturnStdDev, res.Spins, confidence)
	rep.StdDev = res.ReturnStdDev
	rep.HitRate = ProportionCI(res.Hits, res.Spins, confidence)
	for tier, hits := range res.TierHits {
		rep.TierRates[tier] = ProportionCI(hits, res.Spins, confidence)
	}

	rep.MaxReturn = res.MaxReturn
	if len(res.Returns) > 0 {
		sorted := append([]float64(nil), res.Returns...)
		sort.Float64s(sorted)
		rep.P99Return = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	}
	return rep
}

// MeanCI 样本均值的正态近似区间，同时返回样本标准差
func MeanCI(data []float64, confidence float64) (Estimate, float64) {
	n := len(data)
	if n == 0 {
		return Estimate{}, 0
	}
	mean, std := stat.MeanStdDev(data, nil)
	if n == 1 || math.IsNaN(std) {
		std = 0
	}
	return MomentCI(mean, std, n, confidence), std
}

// MomentCI 由均值、样本标准差和样本量给出正态近似区间
func MomentCI(mean, std float64, n int, confidence float64) Estimate {
	if n <= 0 {
		return Estimate{}
	}
	if n == 1 || std <= 0 {
		return Estimate{Hat: mean, CI: CI{Lo: mean, Hi: mean}}
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	half := z * std / math.Sqrt(float64(n))
	return Estimate{Hat: mean, CI: CI{Lo: mean - half, Hi: mean + half}}
}

// ProportionCI k/n 的 Clopper-Pearson 区间
func ProportionCI(k, n int, confidence float64) Estimate {
	if n <= 0 {
		return Estimate{}
	}
	if k < 0 {
		k = 0
	}
	if k > n {
		k = n
	}
	alpha := 1 - confidence
	est := Estimate{Hat: float64(k) / float64(n)}

	if k == 0 {
		est.CI.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		est.CI.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		est.CI.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		est.CI.Hi = b.Quantile(1 - alpha/2)
	}
	return est
}

// RequiredSpins 在给定波动性下使RTP区间半宽不超过 margin 所需的旋转次数
func RequiredSpins(stdDev, margin, confidence float64) int {
	if margin <= 0 || stdDev <= 0 {
		return 0
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	return int(math.Ceil(math.Pow(z*stdDev/margin, 2)))
}
