package websocket

import (
	"time"

	"github.com/wfunc/slot-payout/internal/game/slot"
)

// SpinEvent 推送给表现层的旋转结果，表现层据此播放动画并高亮中奖位置
type SpinEvent struct {
	SpinID     string          `json:"spin_id"`
	Paytable   string          `json:"paytable"`
	Tier       string          `json:"tier"`
	Bet        string          `json:"bet"`
	Multiplier float64         `json:"multiplier"`
	Payout     string          `json:"payout"`
	Grid       [][]string      `json:"grid"`
	Result     []string        `json:"result"`
	Win        bool            `json:"win"`
	Reward     string          `json:"reward,omitempty"`
	Positions  []slot.Position `json:"positions,omitempty"`
	Commands   []string        `json:"commands,omitempty"`
	SpunAt     time.Time       `json:"spun_at"`
}

// NewSpinEvent 由旋转结果生成推送事件
func NewSpinEvent(o *slot.SpinOutcome) *SpinEvent {
	ev := &SpinEvent{
		SpinID:     o.ID,
		Paytable:   o.Paytable,
		Tier:       o.Tier.String(),
		Bet:        o.Bet.StringFixed(2),
		Multiplier: o.Multiplier,
		Payout:     o.Payout.StringFixed(2),
		Grid:       o.Grid.IDs(),
		Win:        o.IsWin(),
		SpunAt:     o.Timestamp,
	}
	for _, s := range o.Result {
		if s == nil {
			ev.Result = append(ev.Result, "")
			continue
		}
		ev.Result = append(ev.Result, s.ID)
	}
	if o.Reward != nil {
		ev.Reward = o.Reward.Rule.Name
		ev.Positions = o.Reward.Positions
		ev.Commands = o.Reward.Rule.Commands
	}
	return ev
}
