package slot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Paytable 构建完成的赔付表快照，构建后只读，可被多个旋转并发使用
type Paytable struct {
	Name            string
	Rows            int
	Reels           int
	TargetRTP       float64
	LossMatchLimit  int
	MaxLossAttempts int
	StrictPools     bool

	symbols  []*Symbol
	byID     map[string]*Symbol
	eq       *Equivalence
	registry *WeightedRegistry                 // 全部符号
	winners  *WeightedRegistry                 // 非百搭符号，中奖符号兜底池
	pools    map[SymbolClass]*WeightedRegistry // 按价值分类的中奖符号池
	tiers    TierTable
	rules    []*RewardRule
	fallback []*Symbol
	jackpot  *Symbol
	config   *PaytableConfig
}

// NewPaytable 校验配置并构建赔付表，所有配置错误在此返回
func NewPaytable(cfg *PaytableConfig) (*Paytable, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil paytable config", ErrInvalidConfig)
	}
	pt := &Paytable{
		Name:            cfg.Name,
		Rows:            orDefault(cfg.Rows, DefaultRows),
		Reels:           orDefault(cfg.Reels, DefaultReels),
		TargetRTP:       cfg.TargetRTP,
		LossMatchLimit:  orDefault(cfg.LossMatchLimit, DefaultLossMatchLimit),
		MaxLossAttempts: orDefault(cfg.MaxLossAttempts, DefaultMaxLossAttempts),
		StrictPools:     cfg.StrictPools,
		byID:            make(map[string]*Symbol),
		eq:              NewEquivalence(),
		registry:        NewWeightedRegistry(),
		pools:           make(map[SymbolClass]*WeightedRegistry),
		config:          cfg,
	}
	if pt.Name == "" {
		pt.Name = "default"
	}
	if pt.Rows < 0 || pt.Reels < 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, pt.Rows, pt.Reels)
	}
	if pt.LossMatchLimit < 2 {
		return nil, fmt.Errorf("%w: loss_match_limit must be at least 2", ErrInvalidConfig)
	}

	if err := pt.buildSymbols(cfg.Symbols); err != nil {
		return nil, err
	}
	if err := pt.buildTiers(cfg.Tiers); err != nil {
		return nil, err
	}
	if err := pt.buildRewards(cfg.Rewards); err != nil {
		return nil, err
	}
	if err := pt.buildFallback(cfg.FallbackSymbols); err != nil {
		return nil, err
	}
	return pt, nil
}

func (pt *Paytable) buildSymbols(cfgs []SymbolConfig) error {
	if len(cfgs) == 0 {
		return ErrEmptyRegistry
	}
	wild := make([]*Symbol, 0)
	for _, sc := range cfgs {
		id := strings.TrimSpace(sc.ID)
		if id == "" {
			return fmt.Errorf("%w: symbol without id", ErrInvalidConfig)
		}
		if _, dup := pt.byID[id]; dup {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidConfig, id)
		}
		if sc.Weight <= 0 {
			return fmt.Errorf("%w: symbol %q weight %d", ErrInvalidWeight, id, sc.Weight)
		}
		class, err := ParseSymbolClass(sc.Class)
		if err != nil {
			return err
		}
		name := sc.Name
		if name == "" {
			name = id
		}
		s := &Symbol{ID: id, Name: name, Weight: sc.Weight, Class: class}
		pt.symbols = append(pt.symbols, s)
		pt.byID[id] = s
		pt.registry.AddElement(s, s.Weight)
		if sc.Wildcard {
			wild = append(wild, s)
		}
	}

	for _, sc := range cfgs {
		for _, eqID := range sc.Equivalents {
			if _, ok := pt.byID[eqID]; !ok {
				return fmt.Errorf("%w: %q listed as equivalent of %q", ErrUnknownSymbol, eqID, sc.ID)
			}
			pt.eq.Accept(strings.TrimSpace(sc.ID), eqID)
		}
	}
	isWild := make(map[string]bool, len(wild))
	for _, w := range wild {
		isWild[w.ID] = true
	}
	for _, s := range pt.symbols {
		if isWild[s.ID] {
			continue
		}
		for _, w := range wild {
			pt.eq.Accept(s.ID, w.ID)
		}
	}

	pt.winners = pt.registry.Filter(func(s *Symbol) bool { return !pt.eq.IsWildcard(s) })
	for _, class := range []SymbolClass{ClassLow, ClassMid, ClassHigh, ClassJackpot} {
		c := class
		pt.pools[c] = pt.winners.Filter(func(s *Symbol) bool { return s.Class == c })
	}
	if pt.winners.Len() == 0 {
		return fmt.Errorf("%w: every symbol is a wildcard", ErrInvalidConfig)
	}
	pt.jackpot = pickJackpotSymbol(pt.winners.Symbols())
	return nil
}

// pickJackpotSymbol 第一个头奖分类符号；没有时取最高分类中权重最低的符号
func pickJackpotSymbol(candidates []*Symbol) *Symbol {
	var best *Symbol
	for _, s := range candidates {
		if s.Class == ClassJackpot {
			return s
		}
		if best == nil || s.Class > best.Class || (s.Class == best.Class && s.Weight < best.Weight) {
			best = s
		}
	}
	return best
}

func (pt *Paytable) buildTiers(cfgs []TierConfig) error {
	table := make(TierTable, 0, len(cfgs))
	for _, tc := range cfgs {
		tier, err := ParseTier(tc.Tier)
		if err != nil {
			return err
		}
		spec := TierSpec{
			Tier:          tier,
			Probability:   tc.Probability,
			MinMultiplier: tc.MinMultiplier,
			MaxMultiplier: tc.MaxMultiplier,
			MatchCount:    tc.MatchCount,
		}
		if tier != TierLoss && tier != TierJackpot {
			if spec.MatchCount == 0 {
				spec.MatchCount = DefaultMatchCount
			}
			if spec.MatchCount > pt.Reels {
				return fmt.Errorf("%w: tier %s match count %d exceeds %d reels", ErrInvalidTierTable, tier, spec.MatchCount, pt.Reels)
			}
		}
		if tc.Pool != "" {
			if spec.Pool, err = ParseSymbolClass(tc.Pool); err != nil {
				return err
			}
		} else {
			spec.Pool = defaultPool(tier)
		}
		if pt.StrictPools && tier != TierLoss && tier != TierJackpot && pt.pools[spec.Pool].Len() == 0 {
			return fmt.Errorf("%w: tier %s pool %s is empty", ErrInvalidConfig, tier, spec.Pool)
		}
		table = append(table, spec)
	}
	if err := table.validate(); err != nil {
		return err
	}
	pt.tiers = table
	return nil
}

func defaultPool(t Tier) SymbolClass {
	switch t {
	case TierMedium:
		return ClassMid
	case TierLarge, TierHuge:
		return ClassHigh
	case TierJackpot:
		return ClassJackpot
	}
	return ClassLow
}

func (pt *Paytable) buildRewards(cfgs []RewardConfig) error {
	for i, rc := range cfgs {
		kind, err := ParseRewardKind(rc.Kind)
		if err != nil {
			return err
		}
		rule := &RewardRule{
			Name:       rc.Name,
			Kind:       kind,
			Count:      rc.Count,
			Multiplier: rc.Multiplier,
			Commands:   append([]string(nil), rc.Commands...),
		}
		if rule.Name == "" {
			rule.Name = fmt.Sprintf("%s_%d", kind, i+1)
		}
		if rc.Multiplier < 0 {
			return fmt.Errorf("%w: reward %q negative multiplier", ErrInvalidConfig, rule.Name)
		}
		if rc.Symbol != "" {
			s, ok := pt.byID[rc.Symbol]
			if !ok {
				return fmt.Errorf("%w: %q in reward %q", ErrUnknownSymbol, rc.Symbol, rule.Name)
			}
			rule.Symbol = s
		}

		switch kind {
		case RewardRow:
			if rule.Symbol == nil || rule.Count <= 0 {
				return fmt.Errorf("%w: row reward %q needs symbol and positive count", ErrInvalidConfig, rule.Name)
			}
		case RewardExact:
			if len(rc.Sequence) == 0 {
				return fmt.Errorf("%w: exact reward %q has empty sequence", ErrInvalidConfig, rule.Name)
			}
			for _, id := range rc.Sequence {
				s, ok := pt.byID[id]
				if !ok {
					return fmt.Errorf("%w: %q in reward %q", ErrUnknownSymbol, id, rule.Name)
				}
				rule.Sequence = append(rule.Sequence, s)
			}
		case RewardPattern:
			if rule.Pattern, err = ParsePatternKind(rc.Pattern); err != nil {
				return fmt.Errorf("reward %q: %w", rule.Name, err)
			}
		}
		pt.rules = append(pt.rules, rule)
	}
	return nil
}

func (pt *Paytable) buildFallback(ids []string) error {
	if len(ids) == 0 {
		pt.fallback = pt.winners.Symbols()
		return nil
	}
	for _, id := range ids {
		s, ok := pt.byID[id]
		if !ok {
			return fmt.Errorf("%w: %q in fallback_symbols", ErrUnknownSymbol, id)
		}
		pt.fallback = append(pt.fallback, s)
	}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Symbols 按声明顺序返回符号
func (pt *Paytable) Symbols() []*Symbol {
	return append([]*Symbol(nil), pt.symbols...)
}

// Symbol 按ID查找符号
func (pt *Paytable) Symbol(id string) (*Symbol, bool) {
	s, ok := pt.byID[id]
	return s, ok
}

// Equivalence 等价关系
func (pt *Paytable) Equivalence() *Equivalence {
	return pt.eq
}

// Registry 全部符号的加权注册表
func (pt *Paytable) Registry() *WeightedRegistry {
	return pt.registry
}

// Tiers 档位表
func (pt *Paytable) Tiers() TierTable {
	return append(TierTable(nil), pt.tiers...)
}

// Rules 奖励规则，按声明顺序
func (pt *Paytable) Rules() []*RewardRule {
	return append([]*RewardRule(nil), pt.rules...)
}

// JackpotSymbol 头奖符号
func (pt *Paytable) JackpotSymbol() *Symbol {
	return pt.jackpot
}

// Config 构建时使用的配置
func (pt *Paytable) Config() *PaytableConfig {
	return pt.config
}

// ExpectedRTP 档位表的期望返还率
func (pt *Paytable) ExpectedRTP() float64 {
	return pt.tiers.ExpectedRTP()
}

// CheckRewards 在本赔付表的规则上选择最佳奖励
func (pt *Paytable) CheckRewards(grid Grid, bet decimal.Decimal, tierMultiplier float64) *RewardMatch {
	return CheckRewards(pt.eq, pt.rules, grid, bet, tierMultiplier)
}
