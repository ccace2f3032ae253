package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/models"
	"github.com/wfunc/slot-payout/internal/repository"
)

// SpinService 旋转服务接口
type SpinService interface {
	// 旋转
	Spin(ctx context.Context, req *SpinRequest) (*slot.SpinOutcome, error)

	// 赔付表
	Paytable() (*slot.Paytable, error)
	Reload(pt *slot.Paytable)

	// 审计记录
	GetSpin(ctx context.Context, spinID string) (*models.SpinRecord, error)
	ListSpins(ctx context.Context, filter repository.SpinFilter, page, pageSize int) ([]*models.SpinRecord, *repository.Pagination, error)

	// 统计
	Statistics(ctx context.Context) (*Statistics, error)
}

// Publisher 旋转结果推送目标，*websocket.Hub 实现了该接口
type Publisher interface {
	PublishSpin(o *slot.SpinOutcome)
	PublishReload(pt *slot.Paytable)
}

// SpinRequest 旋转请求
type SpinRequest struct {
	Bet   decimal.Decimal `json:"bet"`
	Rows  int             `json:"rows,omitempty"`
	Reels int             `json:"reels,omitempty"`
	Tier  string          `json:"tier,omitempty"` // 强制档位，仅在允许时生效
}

// Statistics 统计信息
type Statistics struct {
	Paytable    string                 `json:"paytable"`
	ExpectedRTP float64                `json:"expected_rtp"`
	Engine      slot.Statistics        `json:"engine"`
	Ledger      *models.SpinStatistics `json:"ledger,omitempty"`
}
