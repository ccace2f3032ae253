package slot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RewardKind 奖励规则类型
type RewardKind int

const (
	RewardRow     RewardKind = iota // 行内计数
	RewardExact                     // 逐位精确匹配
	RewardPattern                   // 几何图案
)

var rewardKindNames = [...]string{"row", "exact", "pattern"}

// String 类型名称
func (k RewardKind) String() string {
	if k >= 0 && int(k) < len(rewardKindNames) {
		return rewardKindNames[k]
	}
	return fmt.Sprintf("reward(%d)", int(k))
}

// ParseRewardKind 解析规则类型
func ParseRewardKind(name string) (RewardKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range rewardKindNames {
		if n == name {
			return RewardKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown reward kind %q", ErrInvalidConfig, name)
}

// RewardRule 奖励规则，构建后不可变
type RewardRule struct {
	Name       string
	Kind       RewardKind
	Symbol     *Symbol     // row: 目标符号; pattern: 可选的要求符号
	Count      int         // row: 需要的数量
	Sequence   []*Symbol   // exact: 逐位要求
	Pattern    PatternKind // pattern: 图案
	Multiplier float64     // > 0 时覆盖档位倍率
	Commands   []string    // 交给经济系统执行，不在此解释
}

// Check 检查规则是否满足，返回命中位置
func (r *RewardRule) Check(eq *Equivalence, grid Grid) ([]Position, bool) {
	switch r.Kind {
	case RewardRow:
		return r.checkRow(eq, grid)
	case RewardExact:
		return r.checkExact(eq, grid)
	case RewardPattern:
		if !MatchPattern(eq, grid, r.Pattern, r.Symbol) {
			return nil, false
		}
		return PositionsFor(r.Pattern, grid.Rows(), grid.Reels()), true
	}
	return nil, false
}

func (r *RewardRule) checkRow(eq *Equivalence, grid Grid) ([]Position, bool) {
	row := grid.MiddleRow()
	if r.Symbol == nil || r.Count <= 0 || eq.CountMatches(r.Symbol, row) < r.Count {
		return nil, false
	}
	mid := grid.MiddleRowIndex()
	positions := make([]Position, 0, len(row))
	for c, s := range row {
		if eq.Matches(r.Symbol, s) {
			positions = append(positions, Position{Reel: c, Row: mid})
		}
	}
	return positions, true
}

func (r *RewardRule) checkExact(eq *Equivalence, grid Grid) ([]Position, bool) {
	row := grid.MiddleRow()
	if len(r.Sequence) == 0 || len(r.Sequence) > len(row) {
		return nil, false
	}
	mid := grid.MiddleRowIndex()
	positions := make([]Position, len(r.Sequence))
	for i, want := range r.Sequence {
		if !eq.Matches(want, row[i]) {
			return nil, false
		}
		positions[i] = Position{Reel: i, Row: mid}
	}
	return positions, true
}

// Value 计算奖励金额
func (r *RewardRule) Value(bet decimal.Decimal, tierMultiplier float64) decimal.Decimal {
	m := tierMultiplier
	if r.Multiplier > 0 {
		m = r.Multiplier
	}
	switch r.Kind {
	case RewardRow, RewardExact, RewardPattern:
		return bet.Mul(decimal.NewFromFloat(m)).Round(2)
	}
	return decimal.Zero
}

// RewardMatch 选中的奖励
type RewardMatch struct {
	Rule      *RewardRule
	Value     decimal.Decimal
	Positions []Position
}
