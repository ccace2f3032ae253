package slot

import (
	"fmt"
	"math"
	"strings"
)

// Tier 赔付档位，按价值从低到高排列
type Tier int

const (
	TierLoss    Tier = iota // 未中奖
	TierSmall               // 小奖
	TierMedium              // 中奖
	TierLarge               // 大奖
	TierHuge                // 巨奖
	TierJackpot             // 头奖
)

var tierNames = [...]string{"loss", "small", "medium", "large", "huge", "jackpot"}

// AllTiers 所有档位，固定顺序
var AllTiers = []Tier{TierLoss, TierSmall, TierMedium, TierLarge, TierHuge, TierJackpot}

// String 档位名称
func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText 以名称序列化
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 从名称反序列化
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier 解析档位名称
func ParseTier(name string) (Tier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return TierLoss, fmt.Errorf("%w: unknown tier %q", ErrInvalidTierTable, name)
}

// TierSpec 单个档位的配置
type TierSpec struct {
	Tier          Tier
	Probability   float64     // 选中概率
	MinMultiplier float64     // 最小倍率
	MaxMultiplier float64     // 最大倍率
	Pool          SymbolClass // 中奖符号所属价值池
	MatchCount    int         // 中奖符号放置数量，头奖忽略
}

// RepresentativeMultiplier 代表倍率（区间中点）
func (s TierSpec) RepresentativeMultiplier() float64 {
	return (s.MinMultiplier + s.MaxMultiplier) / 2
}

// TierTable 档位表，按声明顺序遍历
type TierTable []TierSpec

// DetermineOutcome 按概率随机选择档位
func (t TierTable) DetermineOutcome(rng RandomGenerator) Tier {
	tier, _ := t.selectTier(rng.Next())
	return tier
}

// selectTier 累加概率，返回第一个累计值大于 draw 的档位
// 浮点误差导致未覆盖时返回 TierLoss 和 false。
func (t TierTable) selectTier(draw float64) (Tier, bool) {
	cumulative := 0.0
	for _, spec := range t {
		cumulative += spec.Probability
		if draw < cumulative {
			return spec.Tier, true
		}
	}
	return TierLoss, false
}

// Spec 获取档位配置
func (t TierTable) Spec(tier Tier) (TierSpec, bool) {
	for _, spec := range t {
		if spec.Tier == tier {
			return spec, true
		}
	}
	return TierSpec{}, false
}

// ExpectedRTP 期望返还率 Σ(概率 × 代表倍率)
func (t TierTable) ExpectedRTP() float64 {
	rtp := 0.0
	for _, spec := range t {
		rtp += spec.Probability * spec.RepresentativeMultiplier()
	}
	return rtp
}

// TotalProbability 概率之和
func (t TierTable) TotalProbability() float64 {
	sum := 0.0
	for _, spec := range t {
		sum += spec.Probability
	}
	return sum
}

// HitRate 中奖档位概率之和
func (t TierTable) HitRate() float64 {
	sum := 0.0
	for _, spec := range t {
		if spec.Tier != TierLoss {
			sum += spec.Probability
		}
	}
	return sum
}

// Multiplier 在档位倍率区间内随机取值，保留两位小数
func (t TierTable) Multiplier(tier Tier, rng RandomGenerator) float64 {
	spec, ok := t.Spec(tier)
	if !ok {
		return 0
	}
	if spec.MaxMultiplier <= spec.MinMultiplier {
		return spec.MinMultiplier
	}
	m := spec.MinMultiplier + rng.Next()*(spec.MaxMultiplier-spec.MinMultiplier)
	m = math.Round(m*100) / 100
	return math.Max(spec.MinMultiplier, math.Min(spec.MaxMultiplier, m))
}

// validate 检查档位表
func (t TierTable) validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidTierTable)
	}
	seen := make(map[Tier]bool, len(t))
	for _, spec := range t {
		if seen[spec.Tier] {
			return fmt.Errorf("%w: duplicate tier %s", ErrInvalidTierTable, spec.Tier)
		}
		seen[spec.Tier] = true
		if spec.Probability < 0 || spec.Probability > 1 {
			return fmt.Errorf("%w: tier %s probability %v out of [0,1]", ErrInvalidTierTable, spec.Tier, spec.Probability)
		}
		if spec.MinMultiplier < 0 || spec.MaxMultiplier < spec.MinMultiplier {
			return fmt.Errorf("%w: tier %s multiplier range [%v,%v]", ErrInvalidTierTable, spec.Tier, spec.MinMultiplier, spec.MaxMultiplier)
		}
		if spec.Tier == TierLoss && spec.MaxMultiplier != 0 {
			return fmt.Errorf("%w: loss tier must not pay", ErrInvalidTierTable)
		}
		if spec.Tier != TierLoss && spec.Tier != TierJackpot && spec.MatchCount <= 0 {
			return fmt.Errorf("%w: tier %s match count must be positive", ErrInvalidTierTable, spec.Tier)
		}
	}
	if !seen[TierLoss] {
		return fmt.Errorf("%w: loss tier missing", ErrInvalidTierTable)
	}
	if sum := t.TotalProbability(); math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %v", ErrInvalidTierTable, sum)
	}
	return nil
}

const probabilityTolerance = 1e-6
