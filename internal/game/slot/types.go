package slot

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Position 符号位置
type Position struct {
	Reel int `json:"reel"` // 卷轴索引 (0-based)，即列
	Row  int `json:"row"`  // 行索引 (0-based)
}

// Grid 符号网格，按 [row][reel] 索引，nil 表示空格
type Grid [][]*Symbol

// NewGrid 创建空网格
func NewGrid(rows, reels int) Grid {
	if rows <= 0 || reels <= 0 {
		return Grid{}
	}
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]*Symbol, reels)
	}
	return g
}

// Rows 行数
func (g Grid) Rows() int {
	return len(g)
}

// Reels 卷轴数
func (g Grid) Reels() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// MiddleRowIndex 中间行索引
func (g Grid) MiddleRowIndex() int {
	return len(g) / 2
}

// MiddleRow 返回中间行，一维玩法的结果就是这一行
func (g Grid) MiddleRow() []*Symbol {
	if len(g) == 0 {
		return nil
	}
	return g[g.MiddleRowIndex()]
}

// At 获取指定位置的符号，越界返回nil
func (g Grid) At(p Position) *Symbol {
	if p.Row < 0 || p.Row >= len(g) {
		return nil
	}
	if p.Reel < 0 || p.Reel >= len(g[p.Row]) {
		return nil
	}
	return g[p.Row][p.Reel]
}

// Clone 深拷贝行切片（符号本身不可变，共享即可）
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for r := range g {
		out[r] = append([]*Symbol(nil), g[r]...)
	}
	return out
}

// IDs 转换为符号ID矩阵，空格为空字符串
func (g Grid) IDs() [][]string {
	out := make([][]string, len(g))
	for r, row := range g {
		out[r] = make([]string, len(row))
		for c, s := range row {
			if s != nil {
				out[r][c] = s.ID
			}
		}
	}
	return out
}

// String 以文本形式输出网格，便于日志和调试
func (g Grid) String() string {
	var b strings.Builder
	for r, row := range g {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, s := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			if s == nil {
				b.WriteString("-")
				continue
			}
			b.WriteString(s.ID)
		}
	}
	return b.String()
}

// SpinRequest 旋转请求
type SpinRequest struct {
	Bet   decimal.Decimal // 下注金额，必须为正
	Rows  int             // 行数，0 使用赔付表配置
	Reels int             // 卷轴数，0 使用赔付表配置
	Tier  *Tier           // 强制档位（回放/测试用），nil 表示随机
}

// SpinOutcome 旋转结果
type SpinOutcome struct {
	ID         string          `json:"id"`         // 结果ID
	Paytable   string          `json:"paytable"`   // 赔付表名称
	Tier       Tier            `json:"tier"`       // 选中的档位
	Multiplier float64         `json:"multiplier"` // 档位倍率
	Bet        decimal.Decimal `json:"bet"`        // 下注金额
	Grid       Grid            `json:"-"`          // 最终符号网格
	Result     []*Symbol       `json:"-"`          // 中间行（一维结果）
	Reward     *RewardMatch    `json:"reward,omitempty"`
	Payout     decimal.Decimal `json:"payout"`   // 赔付金额，未中奖为0
	Attempts   int             `json:"attempts"` // 生成尝试次数
	Fallback   bool            `json:"fallback"` // 是否使用了兜底生成
	Timestamp  time.Time       `json:"timestamp"`
}

// IsWin 是否中奖
func (o *SpinOutcome) IsWin() bool {
	return o.Reward != nil && o.Payout.IsPositive()
}

// MatchedPositions 中奖位置，供表现层高亮
func (o *SpinOutcome) MatchedPositions() []Position {
	if o.Reward == nil {
		return nil
	}
	return o.Reward.Positions
}

// ToJSON 转换为JSON map
func (o *SpinOutcome) ToJSON() map[string]interface{} {
	m := map[string]interface{}{
		"id":         o.ID,
		"paytable":   o.Paytable,
		"tier":       o.Tier.String(),
		"multiplier": o.Multiplier,
		"bet":        o.Bet.String(),
		"grid":       o.Grid.IDs(),
		"payout":     o.Payout.String(),
		"attempts":   o.Attempts,
		"fallback":   o.Fallback,
		"timestamp":  o.Timestamp,
	}
	if o.Reward != nil {
		m["reward"] = map[string]interface{}{
			"rule":      o.Reward.Rule.Name,
			"kind":      o.Reward.Rule.Kind.String(),
			"value":     o.Reward.Value.String(),
			"positions": o.Reward.Positions,
			"commands":  o.Reward.Rule.Commands,
		}
	}
	return m
}

// RandomGenerator 随机数生成器接口，实现必须并发安全
type RandomGenerator interface {
	// Next 生成 [0,1) 的随机数
	Next() float64

	// NextInt 生成 [min,max) 范围内的随机整数
	NextInt(min, max int) int
}

// Statistics 统计数据
type Statistics struct {
	TotalSpins  int64            `json:"total_spins"`  // 总旋转次数
	TotalBet    decimal.Decimal  `json:"total_bet"`    // 总下注
	TotalPayout decimal.Decimal  `json:"total_payout"` // 总赔付
	CurrentRTP  float64          `json:"current_rtp"`  // 当前RTP
	TierHits    map[string]int64 `json:"tier_hits"`    // 各档位命中次数
	RewardHits  int64            `json:"reward_hits"`  // 中奖次数
	Fallbacks   int64            `json:"fallbacks"`    // 兜底生成次数
	Reloads     int64            `json:"reloads"`      // 赔付表重载次数
	LastUpdate  time.Time        `json:"last_update"`  // 最后更新时间
}
