package slot

import "github.com/shopspring/decimal"

// CheckRewards 按声明顺序检查所有规则，返回金额最高的一条
//
// 只有严格更高的金额才替换当前最佳，平局保留先声明的规则。
// 选出后重新检查一次，命中位置以这次结果为准。没有规则满足时返回nil。
func CheckRewards(eq *Equivalence, rules []*RewardRule, grid Grid, bet decimal.Decimal, tierMultiplier float64) *RewardMatch {
	var (
		best      *RewardRule
		bestValue decimal.Decimal
	)
	for _, rule := range rules {
		if _, ok := rule.Check(eq, grid); !ok {
			continue
		}
		value := rule.Value(bet, tierMultiplier)
		if best == nil || value.GreaterThan(bestValue) {
			best = rule
			bestValue = value
		}
	}
	if best == nil {
		return nil
	}

	positions, ok := best.Check(eq, grid)
	if !ok {
		return nil
	}
	return &RewardMatch{
		Rule:      best,
		Value:     bestValue,
		Positions: positions,
	}
}

// anyRuleApplies 是否有任意规则满足
func anyRuleApplies(eq *Equivalence, rules []*RewardRule, grid Grid) bool {
	for _, rule := range rules {
		if _, ok := rule.Check(eq, grid); ok {
			return true
		}
	}
	return false
}
