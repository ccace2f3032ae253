package slot

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// MaxReturnSamples 保留的单次回报率样本上限，超出后按蓄水池抽样替换
const MaxReturnSamples = 1 << 20

// SimulationResult 批量模拟结果
type SimulationResult struct {
	Spins       int             `json:"spins"`
	TotalBet    decimal.Decimal `json:"total_bet"`
	TotalPayout decimal.Decimal `json:"total_payout"`
	RTP         float64         `json:"rtp"`
	ExpectedRTP float64         `json:"expected_rtp"`
	Hits        int             `json:"hits"`
	Fallbacks   int             `json:"fallbacks"`
	TierHits    map[string]int  `json:"tier_hits"`
	MaxPayout   decimal.Decimal `json:"max_payout"`

	// 单次回报率（赔付/下注）的精确矩，逐次累计
	ReturnMean   float64   `json:"return_mean"`
	ReturnStdDev float64   `json:"return_std_dev"`
	MaxReturn    float64   `json:"max_return"`
	Returns      []float64 `json:"-"` // 回报率样本，最多 MaxReturnSamples 个，用于分位数

	m2        float64
	sampleCap int
	sampler   RandomGenerator
}

// HitRate 中奖率
func (r *SimulationResult) HitRate() float64 {
	if r.Spins == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Spins)
}

// Simulate 连续旋转 n 次并汇总，progress 在每次旋转后调用（可为nil）
// ctx 取消时返回已完成部分的结果和 ctx.Err()。
func Simulate(ctx context.Context, e *Engine, n int, bet decimal.Decimal, progress func(done int)) (*SimulationResult, error) {
	res := &SimulationResult{
		TotalBet:    decimal.Zero,
		TotalPayout: decimal.Zero,
		MaxPayout:   decimal.Zero,
		TierHits:    make(map[string]int),
		Returns:     make([]float64, 0, min(max(n, 0), MaxReturnSamples)),
		sampleCap:   MaxReturnSamples,
		sampler:     NewSeededRandomGenerator(uint64(n)),
	}
	if pt := e.Paytable(); pt != nil {
		res.ExpectedRTP = pt.ExpectedRTP()
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			res.finish()
			return res, err
		}
		o, err := e.Spin(SpinRequest{Bet: bet})
		if err != nil {
			return nil, err
		}
		res.Spins++
		res.TotalBet = res.TotalBet.Add(o.Bet)
		res.TotalPayout = res.TotalPayout.Add(o.Payout)
		res.TierHits[o.Tier.String()]++
		res.observe(o.Payout.Div(o.Bet).InexactFloat64())
		if o.IsWin() {
			res.Hits++
		}
		if o.Fallback {
			res.Fallbacks++
		}
		if o.Payout.GreaterThan(res.MaxPayout) {
			res.MaxPayout = o.Payout
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	res.finish()
	return res, nil
}

// observe 在 Spins 自增之后调用
func (r *SimulationResult) observe(x float64) {
	n := float64(r.Spins)
	delta := x - r.ReturnMean
	r.ReturnMean += delta / n
	r.m2 += delta * (x - r.ReturnMean)
	if r.Spins == 1 || x > r.MaxReturn {
		r.MaxReturn = x
	}

	if len(r.Returns) < r.sampleCap {
		r.Returns = append(r.Returns, x)
		return
	}
	if j := r.sampler.NextInt(0, r.Spins); j < r.sampleCap {
		r.Returns[j] = x
	}
}

func (r *SimulationResult) finish() {
	if r.TotalBet.IsPositive() {
		r.RTP = r.TotalPayout.Div(r.TotalBet).InexactFloat64()
	}
	if r.Spins > 1 {
		r.ReturnStdDev = math.Sqrt(r.m2 / float64(r.Spins-1))
	}
}
