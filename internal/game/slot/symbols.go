package slot

import (
	"fmt"
	"sort"
	"strings"
)

// SymbolClass 符号价值分类
type SymbolClass int

const (
	ClassLow     SymbolClass = iota // 低价值
	ClassMid                        // 中价值
	ClassHigh                       // 高价值
	ClassJackpot                    // 头奖符号
)

var symbolClassNames = map[SymbolClass]string{
	ClassLow:     "low",
	ClassMid:     "mid",
	ClassHigh:    "high",
	ClassJackpot: "jackpot",
}

// String 分类名称
func (c SymbolClass) String() string {
	if name, ok := symbolClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// ParseSymbolClass 解析分类名称，空字符串视为 low
func ParseSymbolClass(name string) (SymbolClass, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ClassLow, nil
	}
	for c, n := range symbolClassNames {
		if n == name {
			return c, nil
		}
	}
	return ClassLow, fmt.Errorf("%w: unknown symbol class %q", ErrInvalidConfig, name)
}

// Symbol 游戏符号，构建后不可变，按ID判等
type Symbol struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Weight int         `json:"weight"`
	Class  SymbolClass `json:"class"`
}

// String 返回符号ID
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.ID
}

// Equivalence 符号等价关系（单向）
//
// accepted[X] 记录在要求 X 的位置上还可以接受哪些符号。
// 百搭 W 注册为 X 的等价符号后，Matches(X, W) 为真，Matches(W, X) 不为真。
type Equivalence struct {
	accepted map[string]map[string]struct{}
	wild     map[string]struct{}
}

// NewEquivalence 创建等价关系
func NewEquivalence() *Equivalence {
	return &Equivalence{
		accepted: make(map[string]map[string]struct{}),
		wild:     make(map[string]struct{}),
	}
}

// Accept 注册 "在要求 required 的位置接受 accepted"
// 只在构建赔付表时调用，之后只读。
func (e *Equivalence) Accept(required, accepted string) {
	if required == accepted {
		return
	}
	set, ok := e.accepted[required]
	if !ok {
		set = make(map[string]struct{})
		e.accepted[required] = set
	}
	set[accepted] = struct{}{}
	e.wild[accepted] = struct{}{}
}

// Matches 判断实际符号 actual 能否满足对 required 的要求
func (e *Equivalence) Matches(required, actual *Symbol) bool {
	if required == nil || actual == nil {
		return false
	}
	if required.ID == actual.ID {
		return true
	}
	if e == nil {
		return false
	}
	_, ok := e.accepted[required.ID][actual.ID]
	return ok
}

// MatchesAll 所有符号都满足要求
func (e *Equivalence) MatchesAll(required *Symbol, actual []*Symbol) bool {
	for _, s := range actual {
		if !e.Matches(required, s) {
			return false
		}
	}
	return true
}

// CountMatches 统计满足要求的符号数（百搭也计入）
func (e *Equivalence) CountMatches(required *Symbol, actual []*Symbol) int {
	n := 0
	for _, s := range actual {
		if e.Matches(required, s) {
			n++
		}
	}
	return n
}

// IsWildcard 该符号是否被注册为其他符号的等价符号
func (e *Equivalence) IsWildcard(s *Symbol) bool {
	if e == nil || s == nil {
		return false
	}
	_, ok := e.wild[s.ID]
	return ok
}

// AcceptedFor 返回 required 可接受的等价符号ID（不含自身）
func (e *Equivalence) AcceptedFor(required string) []string {
	set := e.accepted[required]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
