package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-payout/internal/game/slot"
)

// JSONData 用于存储JSON格式的数据
type JSONData map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONData) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalColumn(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	return unmarshalColumn(value, j)
}

// GridData 符号网格，按行保存符号ID
type GridData [][]string

// Value 实现 driver.Valuer 接口
func (g GridData) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	return marshalColumn(g)
}

// Scan 实现 sql.Scanner 接口
func (g *GridData) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}
	return unmarshalColumn(value, g)
}

// PositionData 中奖位置列表
type PositionData []slot.Position

// Value 实现 driver.Valuer 接口
func (p PositionData) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return marshalColumn(p)
}

// Scan 实现 sql.Scanner 接口
func (p *PositionData) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	return unmarshalColumn(value, p)
}

func marshalColumn(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalColumn(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// SpinRecord 旋转审计记录表
type SpinRecord struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SpinID     string          `gorm:"uniqueIndex;size:36;not null" json:"spin_id"`
	Paytable   string          `gorm:"size:100;index" json:"paytable"`
	Tier       string          `gorm:"size:20;index;not null" json:"tier"`
	Bet        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"bet"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"payout"`
	Rows       int             `json:"rows"`
	Reels      int             `json:"reels"`
	Grid       GridData        `gorm:"type:text" json:"grid"`
	RewardRule string          `gorm:"size:100;index" json:"reward_rule,omitempty"`
	Positions  PositionData    `gorm:"type:text" json:"positions,omitempty"`
	Commands   JSONData        `gorm:"type:text" json:"commands,omitempty"`
	Attempts   int             `json:"attempts"`
	Fallback   bool            `gorm:"default:false" json:"fallback"`
	SpunAt     time.Time       `gorm:"index;not null" json:"spun_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName 表名
func (SpinRecord) TableName() string {
	return "spin_records"
}

// IsWin 是否中奖
func (r *SpinRecord) IsWin() bool {
	return r.Payout.IsPositive()
}

// NewSpinRecord 由旋转结果生成审计记录
func NewSpinRecord(o *slot.SpinOutcome) *SpinRecord {
	rec := &SpinRecord{
		SpinID:     o.ID,
		Paytable:   o.Paytable,
		Tier:       o.Tier.String(),
		Bet:        o.Bet,
		Multiplier: o.Multiplier,
		Payout:     o.Payout,
		Rows:       o.Grid.Rows(),
		Reels:      o.Grid.Reels(),
		Grid:       GridData(o.Grid.IDs()),
		Attempts:   o.Attempts,
		Fallback:   o.Fallback,
		SpunAt:     o.Timestamp,
	}
	if o.Reward != nil {
		rec.RewardRule = o.Reward.Rule.Name
		rec.Positions = PositionData(o.Reward.Positions)
		if len(o.Reward.Rule.Commands) > 0 {
			rec.Commands = JSONData{"commands": o.Reward.Rule.Commands}
		}
	}
	return rec
}

// SpinStatistics 审计记录聚合统计
type SpinStatistics struct {
	TotalSpins  int64            `json:"total_spins"`
	TotalBet    decimal.Decimal  `json:"total_bet"`
	TotalPayout decimal.Decimal  `json:"total_payout"`
	Wins        int64            `json:"wins"`
	Fallbacks   int64            `json:"fallbacks"`
	RTP         float64          `json:"rtp"`
	TierHits    map[string]int64 `json:"tier_hits"`
}
