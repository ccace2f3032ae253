package service

import (
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 网格尺寸上限
const (
	MaxRows  = 9
	MaxReels = 9
)

// Config 服务配置
type Config struct {
	MinBet          decimal.Decimal
	MaxBet          decimal.Decimal // 为0表示不限
	AuditEnabled    bool
	AllowForcedTier bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MinBet:       decimal.NewFromInt(1),
		MaxBet:       decimal.NewFromInt(10000),
		AuditEnabled: true,
	}
}

// ConfigFrom 由应用配置生成服务配置
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		MinBet:          decimal.NewFromFloat(cfg.Engine.MinBet),
		MaxBet:          decimal.NewFromFloat(cfg.Engine.MaxBet),
		AuditEnabled:    cfg.Audit.Enabled,
		AllowForcedTier: cfg.Server.Mode != "release",
	}
}

// Services 服务集合
type Services struct {
	Spin SpinService
}

// NewServices 创建服务集合，db 为nil时不写审计记录
func NewServices(engine *slot.Engine, db *gorm.DB, publisher Publisher, cfg *Config, log *zap.Logger) *Services {
	var spinRepo repository.SpinRepository
	if db != nil {
		spinRepo = repository.NewSpinRepository(db)
	}
	return &Services{
		Spin: NewSpinService(engine, spinRepo, publisher, cfg, log),
	}
}
