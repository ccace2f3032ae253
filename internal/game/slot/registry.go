package slot

import "sort"

// WeightedRegistry 加权符号注册表
//
// 按注册顺序保存累计权重边界，抽样时取严格大于随机数的最小边界，O(log n)。
type WeightedRegistry struct {
	bounds  []int     // 累计权重边界，严格递增
	symbols []*Symbol // 与 bounds 一一对应
	total   int
}

// NewWeightedRegistry 创建加权注册表
func NewWeightedRegistry() *WeightedRegistry {
	return &WeightedRegistry{}
}

// AddElement 注册符号，weight <= 0 时忽略
func (r *WeightedRegistry) AddElement(s *Symbol, weight int) {
	if s == nil || weight <= 0 {
		return
	}
	r.total += weight
	r.bounds = append(r.bounds, r.total)
	r.symbols = append(r.symbols, s)
}

// RandomElement 加权随机抽取，注册表为空或总权重 <= 0 时返回nil
func (r *WeightedRegistry) RandomElement(rng RandomGenerator) *Symbol {
	if r == nil || len(r.symbols) == 0 || r.total <= 0 {
		return nil
	}
	draw := rng.NextInt(0, r.total)
	return r.lookup(draw)
}

// lookup 查找严格大于 draw 的最小累计边界
func (r *WeightedRegistry) lookup(draw int) *Symbol {
	i := sort.Search(len(r.bounds), func(i int) bool {
		return r.bounds[i] > draw
	})
	if i >= len(r.symbols) {
		return nil
	}
	return r.symbols[i]
}

// Clear 清空注册表
func (r *WeightedRegistry) Clear() {
	r.bounds = nil
	r.symbols = nil
	r.total = 0
}

// TotalWeight 总权重
func (r *WeightedRegistry) TotalWeight() int {
	if r == nil {
		return 0
	}
	return r.total
}

// Len 注册的符号数
func (r *WeightedRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.symbols)
}

// Symbols 按注册顺序返回符号
func (r *WeightedRegistry) Symbols() []*Symbol {
	if r == nil {
		return nil
	}
	return append([]*Symbol(nil), r.symbols...)
}

// Filter 返回只包含满足条件的符号的新注册表，权重保持不变
func (r *WeightedRegistry) Filter(keep func(*Symbol) bool) *WeightedRegistry {
	out := NewWeightedRegistry()
	if r == nil {
		return out
	}
	prev := 0
	for i, s := range r.symbols {
		w := r.bounds[i] - prev
		prev = r.bounds[i]
		if keep(s) {
			out.AddElement(s, w)
		}
	}
	return out
}
