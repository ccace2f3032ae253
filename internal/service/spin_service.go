package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/slot-payout/internal/errors"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/logger"
	"github.com/wfunc/slot-payout/internal/models"
	"github.com/wfunc/slot-payout/internal/repository"
	"go.uber.org/zap"
)

// spinService 旋转服务实现
type spinService struct {
	engine    *slot.Engine
	spinRepo  repository.SpinRepository
	publisher Publisher
	cfg       *Config
	log       *zap.Logger
}

// NewSpinService 创建旋转服务，spinRepo 和 publisher 可以为nil
func NewSpinService(engine *slot.Engine, spinRepo repository.SpinRepository, publisher Publisher, cfg *Config, log *zap.Logger) SpinService {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &spinService{
		engine:    engine,
		spinRepo:  spinRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Spin 校验请求、执行旋转、写审计记录并推送结果
func (s *spinService) Spin(ctx context.Context, req *SpinRequest) (*slot.SpinOutcome, error) {
	if s.engine == nil || s.engine.Paytable() == nil {
		return nil, apperrors.New(apperrors.ErrEngineNotReady)
	}
	engineReq, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.Spin(engineReq)
	if err != nil {
		if errors.Is(err, slot.ErrInvalidBet) {
			return nil, apperrors.Wrap(err, apperrors.ErrInvalidBet)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrSpinFailed)
	}

	logger.LogSpin(outcome.ID, outcome.Tier.String(), outcome.Bet.String(), outcome.Payout.String(), outcome.Attempts, outcome.Fallback)
	s.audit(ctx, outcome)
	if s.publisher != nil {
		s.publisher.PublishSpin(outcome)
	}
	return outcome, nil
}

// validate 检查下注金额、网格尺寸和强制档位
func (s *spinService) validate(req *SpinRequest) (slot.SpinRequest, error) {
	if req == nil || !req.Bet.IsPositive() {
		return slot.SpinRequest{}, apperrors.New(apperrors.ErrInvalidBet, "下注金额必须大于0")
	}
	if req.Bet.LessThan(s.cfg.MinBet) || (s.cfg.MaxBet.IsPositive() && req.Bet.GreaterThan(s.cfg.MaxBet)) {
		return slot.SpinRequest{}, apperrors.Newf(apperrors.ErrBetOutOfRange,
			"bet %s not in [%s, %s]", req.Bet, s.cfg.MinBet, s.cfg.MaxBet)
	}
	if !req.Bet.Equal(req.Bet.Round(2)) {
		return slot.SpinRequest{}, apperrors.New(apperrors.ErrInvalidBet, "下注金额最多两位小数")
	}
	if req.Rows < 0 || req.Rows > MaxRows || req.Reels < 0 || req.Reels > MaxReels {
		return slot.SpinRequest{}, apperrors.Newf(apperrors.ErrInvalidGridSize, "%dx%d", req.Rows, req.Reels)
	}

	out := slot.SpinRequest{Bet: req.Bet, Rows: req.Rows, Reels: req.Reels}
	if req.Tier != "" {
		if !s.cfg.AllowForcedTier {
			return slot.SpinRequest{}, apperrors.New(apperrors.ErrInvalidParam, "当前模式不允许指定档位")
		}
		tier, err := slot.ParseTier(req.Tier)
		if err != nil {
			return slot.SpinRequest{}, apperrors.Wrap(err, apperrors.ErrInvalidTier)
		}
		out.Tier = &tier
	}
	return out, nil
}

// audit 写审计记录，失败只记录日志
func (s *spinService) audit(ctx context.Context, outcome *slot.SpinOutcome) {
	if !s.cfg.AuditEnabled || s.spinRepo == nil {
		return
	}
	start := time.Now()
	err := s.spinRepo.Create(context.WithoutCancel(ctx), models.NewSpinRecord(outcome))
	logger.LogDatabaseOperation("insert", "spin_records", time.Since(start), err)
	if err != nil {
		s.log.Error("写入审计记录失败",
			zap.String("spin_id", outcome.ID),
			zap.Error(err))
	}
}

// Paytable 当前赔付表
func (s *spinService) Paytable() (*slot.Paytable, error) {
	if s.engine == nil || s.engine.Paytable() == nil {
		return nil, apperrors.New(apperrors.ErrEngineNotReady)
	}
	return s.engine.Paytable(), nil
}

// Reload 替换赔付表并通知表现层
func (s *spinService) Reload(pt *slot.Paytable) {
	if s.engine == nil || pt == nil {
		return
	}
	s.engine.Reload(pt)
	if s.publisher != nil {
		s.publisher.PublishReload(pt)
	}
}

// GetSpin 查询单条审计记录
func (s *spinService) GetSpin(ctx context.Context, spinID string) (*models.SpinRecord, error) {
	if err := s.requireLedger(); err != nil {
		return nil, err
	}
	if spinID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "spin_id不能为空")
	}
	rec, err := s.spinRepo.FindBySpinID(ctx, spinID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "spin "+spinID)
		}
		s.log.Error("查询审计记录失败", zap.String("spin_id", spinID), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return rec, nil
}

// ListSpins 分页查询审计记录
func (s *spinService) ListSpins(ctx context.Context, filter repository.SpinFilter, page, pageSize int) ([]*models.SpinRecord, *repository.Pagination, error) {
	if err := s.requireLedger(); err != nil {
		return nil, nil, err
	}
	if filter.Tier != "" {
		if _, err := slot.ParseTier(filter.Tier); err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.ErrInvalidTier)
		}
	}
	p := repository.NewPagination(page, pageSize)
	records, err := s.spinRepo.List(ctx, filter, p)
	if err != nil {
		s.log.Error("查询审计记录失败", zap.Error(err))
		return nil, nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return records, p, nil
}

// Statistics 引擎统计，审计开启时附带审计库统计
func (s *spinService) Statistics(ctx context.Context) (*Statistics, error) {
	pt, err := s.Paytable()
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		Paytable:    pt.Name,
		ExpectedRTP: pt.ExpectedRTP(),
		Engine:      s.engine.Statistics(),
	}
	if s.requireLedger() == nil {
		ledger, err := s.spinRepo.GetStatistics(ctx, repository.SpinFilter{Paytable: pt.Name})
		if err != nil {
			s.log.Warn("统计审计记录失败", zap.Error(err))
		} else {
			stats.Ledger = ledger
		}
	}
	return stats, nil
}

func (s *spinService) requireLedger() error {
	if !s.cfg.AuditEnabled || s.spinRepo == nil {
		return apperrors.New(apperrors.ErrNotImplemented, "审计记录未启用")
	}
	return nil
}
