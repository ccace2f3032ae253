package slot

// 生成参数默认值
const (
	DefaultRows            = 3
	DefaultReels           = 5
	DefaultLossMatchLimit  = 3
	DefaultMaxLossAttempts = 100
	DefaultMatchCount      = 3
)

// PaytableConfig 赔付表配置（YAML / viper 均可解码）
type PaytableConfig struct {
	Name            string         `yaml:"name" mapstructure:"name" json:"name"`
	Rows            int            `yaml:"rows" mapstructure:"rows" json:"rows"`
	Reels           int            `yaml:"reels" mapstructure:"reels" json:"reels"`
	TargetRTP       float64        `yaml:"target_rtp" mapstructure:"target_rtp" json:"target_rtp"`
	LossMatchLimit  int            `yaml:"loss_match_limit" mapstructure:"loss_match_limit" json:"loss_match_limit"`
	MaxLossAttempts int            `yaml:"max_loss_attempts" mapstructure:"max_loss_attempts" json:"max_loss_attempts"`
	StrictPools     bool           `yaml:"strict_pools" mapstructure:"strict_pools" json:"strict_pools"`
	FallbackSymbols []string       `yaml:"fallback_symbols" mapstructure:"fallback_symbols" json:"fallback_symbols,omitempty"`
	Symbols         []SymbolConfig `yaml:"symbols" mapstructure:"symbols" json:"symbols"`
	Tiers           []TierConfig   `yaml:"tiers" mapstructure:"tiers" json:"tiers"`
	Rewards         []RewardConfig `yaml:"rewards" mapstructure:"rewards" json:"rewards"`
}

// SymbolConfig 符号配置
type SymbolConfig struct {
	ID          string   `yaml:"id" mapstructure:"id" json:"id"`
	Name        string   `yaml:"name" mapstructure:"name" json:"name,omitempty"`
	Weight      int      `yaml:"weight" mapstructure:"weight" json:"weight"`
	Class       string   `yaml:"class" mapstructure:"class" json:"class,omitempty"`
	Equivalents []string `yaml:"equivalents" mapstructure:"equivalents" json:"equivalents,omitempty"` // 在要求本符号的位置还接受哪些符号
	Wildcard    bool     `yaml:"wildcard" mapstructure:"wildcard" json:"wildcard,omitempty"`          // 百搭：自动注册为所有非百搭符号的等价符号
}

// TierConfig 档位配置
type TierConfig struct {
	Tier          string  `yaml:"tier" mapstructure:"tier" json:"tier"`
	Probability   float64 `yaml:"probability" mapstructure:"probability" json:"probability"`
	MinMultiplier float64 `yaml:"min_multiplier" mapstructure:"min_multiplier" json:"min_multiplier"`
	MaxMultiplier float64 `yaml:"max_multiplier" mapstructure:"max_multiplier" json:"max_multiplier"`
	Pool          string  `yaml:"pool" mapstructure:"pool" json:"pool,omitempty"`
	MatchCount    int     `yaml:"match_count" mapstructure:"match_count" json:"match_count,omitempty"`
}

// RewardConfig 奖励规则配置
type RewardConfig struct {
	Name       string   `yaml:"name" mapstructure:"name" json:"name"`
	Kind       string   `yaml:"kind" mapstructure:"kind" json:"kind"`
	Symbol     string   `yaml:"symbol" mapstructure:"symbol" json:"symbol,omitempty"`
	Count      int      `yaml:"count" mapstructure:"count" json:"count,omitempty"`
	Sequence   []string `yaml:"sequence" mapstructure:"sequence" json:"sequence,omitempty"`
	Pattern    string   `yaml:"pattern" mapstructure:"pattern" json:"pattern,omitempty"`
	Multiplier float64  `yaml:"multiplier" mapstructure:"multiplier" json:"multiplier,omitempty"`
	Commands   []string `yaml:"commands" mapstructure:"commands" json:"commands,omitempty"`
}

// DefaultPaytableConfig 获取默认配置（经典水果机，3×5，目标RTP 45%）
//
// 各档位代表倍率 × 概率之和正好等于 0.45。
func DefaultPaytableConfig() *PaytableConfig {
	return &PaytableConfig{
		Name:            "classic_fruit",
		Rows:            DefaultRows,
		Reels:           DefaultReels,
		TargetRTP:       0.45,
		LossMatchLimit:  DefaultLossMatchLimit,
		MaxLossAttempts: DefaultMaxLossAttempts,

		Symbols: []SymbolConfig{
			{ID: "cherry", Name: "樱桃", Weight: 30, Class: "low"},
			{ID: "lemon", Name: "柠檬", Weight: 28, Class: "low"},
			{ID: "orange", Name: "橙子", Weight: 26, Class: "low"},
			{ID: "plum", Name: "李子", Weight: 20, Class: "mid"},
			{ID: "grape", Name: "葡萄", Weight: 18, Class: "mid"},
			{ID: "watermelon", Name: "西瓜", Weight: 10, Class: "high"},
			{ID: "bar", Name: "BAR", Weight: 8, Class: "high"},
			{ID: "seven", Name: "七", Weight: 4, Class: "jackpot"},
			{ID: "wild", Name: "百搭", Weight: 3, Class: "high", Wildcard: true},
		},

		Tiers: []TierConfig{
			{Tier: "loss", Probability: 0.75},
			{Tier: "small", Probability: 0.16, MinMultiplier: 1.0, MaxMultiplier: 1.5, Pool: "low", MatchCount: 3},
			{Tier: "medium", Probability: 0.06, MinMultiplier: 1.5, MaxMultiplier: 2.5, Pool: "mid", MatchCount: 3},
			{Tier: "large", Probability: 0.025, MinMultiplier: 2.5, MaxMultiplier: 3.5, Pool: "high", MatchCount: 4},
			{Tier: "huge", Probability: 0.0045, MinMultiplier: 4, MaxMultiplier: 6, Pool: "high", MatchCount: 5},
			{Tier: "jackpot", Probability: 0.0005, MinMultiplier: 65, MaxMultiplier: 65, Pool: "jackpot"},
		},

		Rewards: []RewardConfig{
			{Name: "cherry_3", Kind: "row", Symbol: "cherry", Count: 3},
			{Name: "lemon_3", Kind: "row", Symbol: "lemon", Count: 3},
			{Name: "orange_3", Kind: "row", Symbol: "orange", Count: 3},
			{Name: "plum_3", Kind: "row", Symbol: "plum", Count: 3},
			{Name: "grape_3", Kind: "row", Symbol: "grape", Count: 3},
			{Name: "watermelon_4", Kind: "row", Symbol: "watermelon", Count: 4},
			{Name: "bar_4", Kind: "row", Symbol: "bar", Count: 4},
			{Name: "watermelon_5", Kind: "row", Symbol: "watermelon", Count: 5},
			{Name: "bar_5", Kind: "row", Symbol: "bar", Count: 5},
			{Name: "triple_bar", Kind: "exact", Sequence: []string{"bar", "bar", "bar"}},
			{Name: "seven_5", Kind: "row", Symbol: "seven", Count: 5, Commands: []string{"broadcast jackpot {player} {value}"}},
			{Name: "seven_line", Kind: "pattern", Pattern: "horizontal_middle", Symbol: "seven"},
		},
	}
}
