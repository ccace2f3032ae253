package slot

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidBet       = errors.New("无效的下注金额")
	ErrInvalidConfig    = errors.New("无效的配置")
	ErrInvalidTierTable = errors.New("无效的档位表")
	ErrInvalidWeight    = errors.New("无效的符号权重")
	ErrUnknownPattern   = errors.New("未知的图案")
	ErrUnknownSymbol    = errors.New("未知的符号")
	ErrEmptyRegistry    = errors.New("符号表为空")
	ErrLossRejected     = errors.New("未中奖结果校验失败")
	ErrWinRejected      = errors.New("中奖结果触发额外奖励")
)

// Engine 赔付引擎
//
// 赔付表以不可变快照保存，Reload 原子替换；每次旋转开始时取一次快照，
// 旋转过程中不加锁。
type Engine struct {
	paytable atomic.Pointer[Paytable]
	rng      RandomGenerator
	logger   *zap.Logger

	mu    sync.Mutex
	stats Statistics
}

// Option 引擎选项
type Option func(*Engine)

// WithRandom 设置随机数生成器
func WithRandom(rng RandomGenerator) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine 创建引擎，pt 可以为nil（此时所有旋转返回空网格）
func NewEngine(pt *Paytable, opts ...Option) *Engine {
	e := &Engine{
		rng:    NewCryptoRandomGenerator(),
		logger: zap.NewNop(),
		stats:  newStatistics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if pt != nil {
		e.paytable.Store(pt)
	}
	return e
}

func newStatistics() Statistics {
	return Statistics{
		TotalBet:    decimal.Zero,
		TotalPayout: decimal.Zero,
		TierHits:    make(map[string]int64),
		LastUpdate:  time.Now(),
	}
}

// Reload 替换赔付表，进行中的旋转继续使用旧快照
func (e *Engine) Reload(pt *Paytable) {
	old := e.paytable.Swap(pt)
	e.mu.Lock()
	e.stats.Reloads++
	e.mu.Unlock()

	fields := []zap.Field{zap.String("paytable", paytableName(pt))}
	if old != nil {
		fields = append(fields, zap.String("previous", old.Name))
	}
	e.logger.Info("赔付表已重载", fields...)
}

// Paytable 当前赔付表快照
func (e *Engine) Paytable() *Paytable {
	return e.paytable.Load()
}

// Spin 执行一次旋转，只有下注金额非正时返回错误
func (e *Engine) Spin(req SpinRequest) (*SpinOutcome, error) {
	if !req.Bet.IsPositive() {
		return nil, ErrInvalidBet
	}

	pt := e.paytable.Load()
	rows, reels := req.Rows, req.Reels
	if pt != nil {
		if rows <= 0 {
			rows = pt.Rows
		}
		if reels <= 0 {
			reels = pt.Reels
		}
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if reels <= 0 {
		reels = DefaultReels
	}

	outcome := &SpinOutcome{
		ID:        uuid.New().String(),
		Tier:      TierLoss,
		Bet:       req.Bet,
		Payout:    decimal.Zero,
		Timestamp: time.Now(),
	}

	if pt == nil || pt.registry.Len() == 0 {
		outcome.Grid = NewGrid(rows, reels)
		outcome.Result = outcome.Grid.MiddleRow()
		e.record(outcome)
		return outcome, nil
	}
	outcome.Paytable = pt.Name

	tier := e.selectTier(pt, req.Tier)
	outcome.Tier = tier
	outcome.Multiplier = pt.tiers.Multiplier(tier, e.rng)

	gen := synthesizer{pt: pt, rng: e.rng}.generate(tier, rows, reels)
	if gen.fallback {
		e.logger.Warn("结果重试次数耗尽，使用兜底排列",
			zap.String("paytable", pt.Name),
			zap.String("tier", tier.String()),
			zap.Int("attempts", gen.attempts),
			zap.Int("rows", rows),
			zap.Int("reels", reels),
		)
	}
	outcome.Grid = gen.grid
	outcome.Result = gen.grid.MiddleRow()
	outcome.Attempts = gen.attempts
	outcome.Fallback = gen.fallback

	// 未中奖档位不结算
	if tier != TierLoss {
		if reward := pt.CheckRewards(gen.grid, req.Bet, outcome.Multiplier); reward != nil {
			outcome.Reward = reward
			outcome.Payout = reward.Value
		}
	}

	e.record(outcome)
	return outcome, nil
}

func (e *Engine) selectTier(pt *Paytable, forced *Tier) Tier {
	if forced != nil {
		return *forced
	}
	draw := e.rng.Next()
	tier, ok := pt.tiers.selectTier(draw)
	if !ok {
		e.logger.Debug("档位概率未覆盖随机数，按未中奖处理",
			zap.Float64("draw", draw),
			zap.Float64("total_probability", pt.tiers.TotalProbability()),
		)
	}
	return tier
}

// GenerateSymbols 按档位生成一维结果
func (e *Engine) GenerateSymbols(tier Tier, reels int) []*Symbol {
	pt := e.paytable.Load()
	if pt == nil {
		return make([]*Symbol, reels)
	}
	return synthesizer{pt: pt, rng: e.rng}.GenerateSymbols(tier, reels)
}

// GenerateGrid 按档位生成二维网格
func (e *Engine) GenerateGrid(tier Tier, rows, reels int) Grid {
	pt := e.paytable.Load()
	if pt == nil {
		return NewGrid(rows, reels)
	}
	return synthesizer{pt: pt, rng: e.rng}.generate(tier, rows, reels).grid
}

func (e *Engine) record(o *SpinOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.TotalSpins++
	e.stats.TotalBet = e.stats.TotalBet.Add(o.Bet)
	e.stats.TotalPayout = e.stats.TotalPayout.Add(o.Payout)
	e.stats.TierHits[o.Tier.String()]++
	if o.IsWin() {
		e.stats.RewardHits++
	}
	if o.Fallback {
		e.stats.Fallbacks++
	}
	if e.stats.TotalBet.IsPositive() {
		e.stats.CurrentRTP = e.stats.TotalPayout.Div(e.stats.TotalBet).InexactFloat64()
	}
	e.stats.LastUpdate = time.Now()
}

// Statistics 获取统计数据副本
func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.stats
	out.TierHits = make(map[string]int64, len(e.stats.TierHits))
	for k, v := range e.stats.TierHits {
		out.TierHits[k] = v
	}
	return out
}

// ResetStatistics 重置统计数据
func (e *Engine) ResetStatistics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	reloads := e.stats.Reloads
	e.stats = newStatistics()
	e.stats.Reloads = reloads
}

func paytableName(pt *Paytable) string {
	if pt == nil {
		return ""
	}
	return pt.Name
}
