package slot

// synthesizer 按档位生成符号网格
type synthesizer struct {
	pt  *Paytable
	rng RandomGenerator
}

// generation 生成结果
type generation struct {
	grid     Grid
	attempts int
	fallback bool
}

// generate 生成网格；校验失败时重试，超过上限后使用兜底排列
//
// 中奖档位耗尽重试次数时同样退回兜底排列，结果按未中奖结算。
func (s synthesizer) generate(tier Tier, rows, reels int) generation {
	limit := s.pt.MaxLossAttempts
	if limit <= 0 {
		limit = DefaultMaxLossAttempts
	}
	for attempt := 1; attempt <= limit; attempt++ {
		grid, err := s.attempt(tier, rows, reels)
		if err == nil {
			return generation{grid: grid, attempts: attempt}
		}
	}
	return generation{grid: s.fallbackGrid(rows, reels), attempts: limit, fallback: true}
}

// attempt 单次生成
// 未中奖档位不满足约束时返回 ErrLossRejected，中奖档位触发额外奖励时返回 ErrWinRejected。
func (s synthesizer) attempt(tier Tier, rows, reels int) (Grid, error) {
	grid := NewGrid(rows, reels)
	mid := grid.MiddleRowIndex()
	for r := range grid {
		if r == mid {
			grid[r] = s.tierRow(tier, reels)
			continue
		}
		grid[r] = s.lossRow(reels, nil)
	}
	if tier == TierLoss {
		if !s.isSafeLoss(grid) {
			return nil, ErrLossRejected
		}
		return grid, nil
	}
	if !s.isSafeWin(tier, grid) {
		return nil, ErrWinRejected
	}
	return grid, nil
}

// GenerateSymbols 生成一维结果
func (s synthesizer) GenerateSymbols(tier Tier, reels int) []*Symbol {
	return s.generate(tier, 1, reels).grid.MiddleRow()
}

// tierRow 生成承载档位结果的一行
func (s synthesizer) tierRow(tier Tier, reels int) []*Symbol {
	switch tier {
	case TierLoss:
		return s.lossRow(reels, nil)
	case TierJackpot:
		row := make([]*Symbol, reels)
		for i := range row {
			row[i] = s.pt.jackpot
		}
		return row
	case TierSmall, TierMedium, TierLarge, TierHuge:
		return s.winRow(tier, reels)
	}
	return s.lossRow(reels, nil)
}

// winRow 中奖符号放在 MatchCount 个随机位置，其余位置填充不会形成其他奖励的符号
func (s synthesizer) winRow(tier Tier, reels int) []*Symbol {
	spec, ok := s.pt.tiers.Spec(tier)
	if !ok {
		return s.lossRow(reels, nil)
	}
	winner := s.pickWinner(spec.Pool)
	if winner == nil {
		return s.lossRow(reels, nil)
	}

	count := spec.MatchCount
	if count > reels {
		count = reels
	}
	order := make([]int, reels)
	for i := range order {
		order[i] = i
	}
	shuffleInts(s.rng, order)

	row := make([]*Symbol, reels)
	for _, i := range order[:count] {
		row[i] = winner
	}
	for _, i := range order[count:] {
		row[i] = s.pickFiller(row, winner)
	}
	return row
}

// pickWinner 从价值池抽取中奖符号，池为空时退回全部非百搭符号
func (s synthesizer) pickWinner(pool SymbolClass) *Symbol {
	if w := s.pt.pools[pool].RandomElement(s.rng); w != nil {
		return w
	}
	if s.pt.StrictPools {
		return nil
	}
	return s.pt.winners.RandomElement(s.rng)
}

// lossRow 逐个位置加权抽取，保证任何符号的匹配数都低于上限
func (s synthesizer) lossRow(reels int, exclude *Symbol) []*Symbol {
	row := make([]*Symbol, reels)
	for i := range row {
		row[i] = s.pickFiller(row, exclude)
	}
	return row
}

// pickFiller 在不让任何符号达到上限的候选中加权抽取
// 没有候选时退回当前使用最少的符号。
func (s synthesizer) pickFiller(row []*Symbol, exclude *Symbol) *Symbol {
	candidates := s.pt.registry.Filter(func(c *Symbol) bool {
		return s.allowed(c, row, exclude)
	})
	if c := candidates.RandomElement(s.rng); c != nil {
		return c
	}
	return s.leastUsed(row, exclude)
}

// allowed 放入 c 后，所有会被 c 满足的符号（百搭重复计数）仍低于上限
func (s synthesizer) allowed(c *Symbol, row []*Symbol, exclude *Symbol) bool {
	eq := s.pt.eq
	if exclude != nil && eq.Matches(exclude, c) {
		return false
	}
	for _, y := range s.pt.symbols {
		if exclude != nil && y.ID == exclude.ID {
			continue
		}
		if eq.Matches(y, c) && eq.CountMatches(y, row)+1 >= s.pt.LossMatchLimit {
			return false
		}
	}
	return true
}

func (s synthesizer) leastUsed(row []*Symbol, exclude *Symbol) *Symbol {
	var (
		best  *Symbol
		usage int
	)
	for _, c := range s.pt.symbols {
		if exclude != nil && s.pt.eq.Matches(exclude, c) {
			continue
		}
		n := 0
		for _, x := range row {
			if x != nil && x.ID == c.ID {
				n++
			}
		}
		if best == nil || n < usage {
			best, usage = c, n
		}
	}
	if best == nil {
		return s.pt.registry.RandomElement(s.rng)
	}
	return best
}

// isSafeLoss 每行每个符号的匹配数（含百搭）都低于上限，且没有任何奖励规则满足
func (s synthesizer) isSafeLoss(grid Grid) bool {
	for _, row := range grid {
		for _, y := range s.pt.symbols {
			if s.pt.eq.CountMatches(y, row) >= s.pt.LossMatchLimit {
				return false
			}
		}
	}
	return !anyRuleApplies(s.pt.eq, s.pt.rules, grid)
}

// isSafeWin 中奖档位的网格只能在中间行命中规则，且规则自带倍率不超过档位上限
func (s synthesizer) isSafeWin(tier Tier, grid Grid) bool {
	limit := 0.0
	if spec, ok := s.pt.tiers.Spec(tier); ok {
		limit = spec.MaxMultiplier
	}
	mid := grid.MiddleRowIndex()
	for _, rule := range s.pt.rules {
		positions, ok := rule.Check(s.pt.eq, grid)
		if !ok {
			continue
		}
		if rule.Multiplier > limit {
			return false
		}
		for _, p := range positions {
			if p.Row != mid {
				return false
			}
		}
	}
	return true
}

// fallbackGrid 确定性兜底排列
//
// 第 r 行从第 r*k 个兜底符号开始轮转，依次尝试每个步长 k，返回第一个通过未中奖校验的排列。
// 都不通过时返回空网格，空位不参与任何匹配。
func (s synthesizer) fallbackGrid(rows, reels int) Grid {
	n := len(s.pt.fallback)
	for k := 0; k < n; k++ {
		grid := NewGrid(rows, reels)
		for r := range grid {
			for c := range grid[r] {
				grid[r][c] = s.pt.fallback[(c+r*k)%n]
			}
		}
		if s.isSafeLoss(grid) {
			return grid
		}
	}
	return NewGrid(rows, reels)
}
