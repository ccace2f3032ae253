package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/wfunc/slot-payout/internal/errors"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/repository"
)

// recordingPublisher 记录推送内容
type recordingPublisher struct {
	mu      sync.Mutex
	spins   []*slot.SpinOutcome
	reloads []string
}

func (p *recordingPublisher) PublishSpin(o *slot.SpinOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spins = append(p.spins, o)
}

func (p *recordingPublisher) PublishReload(pt *slot.Paytable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads = append(p.reloads, pt.Name)
}

// SpinServiceTestSuite 旋转服务测试套件
type SpinServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	engine    *slot.Engine
	publisher *recordingPublisher
	service   SpinService
}

func (suite *SpinServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	// 每个测试创建新的内存数据库
	suite.db = repository.SetupTestDB(suite.T())

	pt, err := slot.NewPaytable(slot.DefaultPaytableConfig())
	suite.Require().NoError(err)
	suite.engine = slot.NewEngine(pt, slot.WithRandom(slot.NewSeededRandomGenerator(11)))
	suite.publisher = &recordingPublisher{}

	cfg := DefaultConfig()
	cfg.AllowForcedTier = true
	suite.service = NewServices(suite.engine, suite.db, suite.publisher, cfg, zap.NewNop()).Spin
}

func (suite *SpinServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *SpinServiceTestSuite) TestSpin_RecordsAndPublishes() {
	out, err := suite.service.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(100), Tier: "small"})
	suite.Require().NoError(err)
	suite.Equal(slot.TierSmall, out.Tier)
	suite.True(out.Payout.Equal(decimal.NewFromInt(100).Mul(decimal.NewFromFloat(out.Multiplier)).Round(2)))
	suite.GreaterOrEqual(len(out.MatchedPositions()), 3)

	suite.Require().Len(suite.publisher.spins, 1)
	suite.Equal(out.ID, suite.publisher.spins[0].ID)

	rec, err := suite.service.GetSpin(suite.ctx, out.ID)
	suite.Require().NoError(err)
	suite.Equal("small", rec.Tier)
	suite.True(rec.Payout.Equal(out.Payout))
	suite.Equal(out.Reward.Rule.Name, rec.RewardRule)
}

func (suite *SpinServiceTestSuite) TestSpin_Validation() {
	testCases := []struct {
		name string
		req  *SpinRequest
		code apperrors.ErrorCode
	}{
		{"空请求", nil, apperrors.ErrInvalidBet},
		{"零下注", &SpinRequest{Bet: decimal.Zero}, apperrors.ErrInvalidBet},
		{"负下注", &SpinRequest{Bet: decimal.NewFromInt(-5)}, apperrors.ErrInvalidBet},
		{"低于最小下注", &SpinRequest{Bet: decimal.RequireFromString("0.5")}, apperrors.ErrBetOutOfRange},
		{"超过最大下注", &SpinRequest{Bet: decimal.NewFromInt(10001)}, apperrors.ErrBetOutOfRange},
		{"三位小数", &SpinRequest{Bet: decimal.RequireFromString("1.005")}, apperrors.ErrInvalidBet},
		{"网格过大", &SpinRequest{Bet: decimal.NewFromInt(1), Rows: 10}, apperrors.ErrInvalidGridSize},
		{"负卷轴", &SpinRequest{Bet: decimal.NewFromInt(1), Reels: -1}, apperrors.ErrInvalidGridSize},
		{"未知档位", &SpinRequest{Bet: decimal.NewFromInt(1), Tier: "mega"}, apperrors.ErrInvalidTier},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.service.Spin(suite.ctx, tc.req)
			suite.Require().Error(err)
			suite.Equal(tc.code, apperrors.GetCode(err))
		})
	}
	suite.Empty(suite.publisher.spins)
	suite.Zero(suite.engine.Statistics().TotalSpins)
}

func (suite *SpinServiceTestSuite) TestSpin_ForcedTierDisallowed() {
	svc := NewSpinService(suite.engine, nil, nil, DefaultConfig(), nil)
	_, err := svc.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(1), Tier: "jackpot"})
	suite.Equal(apperrors.ErrInvalidParam, apperrors.GetCode(err))
}

func (suite *SpinServiceTestSuite) TestSpin_EngineNotReady() {
	svc := NewSpinService(slot.NewEngine(nil), nil, nil, nil, nil)
	_, err := svc.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(1)})
	suite.Equal(apperrors.ErrEngineNotReady, apperrors.GetCode(err))

	_, err = svc.Paytable()
	suite.Equal(apperrors.ErrEngineNotReady, apperrors.GetCode(err))
}

func (suite *SpinServiceTestSuite) TestSpin_AuditFailureDoesNotFailSpin() {
	// 关闭数据库后写入失败，旋转仍然成功
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()

	out, err := suite.service.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(10)})
	suite.Require().NoError(err)
	suite.NotEmpty(out.ID)
	suite.Len(suite.publisher.spins, 1)
}

func (suite *SpinServiceTestSuite) TestGetSpin_NotFound() {
	_, err := suite.service.GetSpin(suite.ctx, "missing")
	suite.Equal(apperrors.ErrNotFound, apperrors.GetCode(err))

	_, err = suite.service.GetSpin(suite.ctx, "")
	suite.Equal(apperrors.ErrInvalidParam, apperrors.GetCode(err))
}

func (suite *SpinServiceTestSuite) TestAuditDisabled() {
	cfg := DefaultConfig()
	cfg.AuditEnabled = false
	svc := NewServices(suite.engine, suite.db, nil, cfg, nil).Spin

	out, err := svc.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(1)})
	suite.Require().NoError(err)

	_, err = svc.GetSpin(suite.ctx, out.ID)
	suite.Equal(apperrors.ErrNotImplemented, apperrors.GetCode(err))

	stats, err := svc.Statistics(suite.ctx)
	suite.Require().NoError(err)
	suite.Nil(stats.Ledger)
	suite.Equal(int64(1), stats.Engine.TotalSpins)
}

func (suite *SpinServiceTestSuite) TestListSpinsAndStatistics() {
	for i := 0; i < 6; i++ {
		tier := "loss"
		if i%2 == 1 {
			tier = "medium"
		}
		_, err := suite.service.Spin(suite.ctx, &SpinRequest{Bet: decimal.NewFromInt(10), Tier: tier})
		suite.Require().NoError(err)
	}

	records, p, err := suite.service.ListSpins(suite.ctx, repository.SpinFilter{Tier: "medium"}, 1, 2)
	suite.Require().NoError(err)
	suite.Len(records, 2)
	suite.Equal(int64(3), p.Total)

	_, _, err = suite.service.ListSpins(suite.ctx, repository.SpinFilter{Tier: "bogus"}, 1, 2)
	suite.Equal(apperrors.ErrInvalidTier, apperrors.GetCode(err))

	stats, err := suite.service.Statistics(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("classic_fruit", stats.Paytable)
	suite.InDelta(0.45, stats.ExpectedRTP, 1e-9)
	suite.Require().NotNil(stats.Ledger)
	suite.Equal(int64(6), stats.Ledger.TotalSpins)
	suite.Equal(int64(3), stats.Ledger.Wins)
	suite.Equal(int64(3), stats.Engine.TierHits["medium"])
	suite.True(stats.Ledger.TotalPayout.Equal(stats.Engine.TotalPayout))
}

func (suite *SpinServiceTestSuite) TestReload() {
	cfg := slot.DefaultPaytableConfig()
	cfg.Name = "classic_fruit_v2"
	pt, err := slot.NewPaytable(cfg)
	suite.Require().NoError(err)

	suite.service.Reload(pt)
	current, err := suite.service.Paytable()
	suite.Require().NoError(err)
	suite.Equal("classic_fruit_v2", current.Name)
	suite.Equal([]string{"classic_fruit_v2"}, suite.publisher.reloads)
}

func TestSpinServiceSuite(t *testing.T) {
	suite.Run(t, new(SpinServiceTestSuite))
}
