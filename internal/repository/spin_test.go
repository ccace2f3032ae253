package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/models"
	"gorm.io/gorm"
)

// SpinRepositoryTestSuite 审计记录仓储测试套件
type SpinRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo SpinRepository
	now  time.Time
}

// SetupSuite 设置测试套件
func (suite *SpinRepositoryTestSuite) SetupSuite() {
	suite.db = SetupTestDB(suite.T())
	suite.repo = NewSpinRepository(suite.db)
	suite.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

// TearDownSuite 清理测试套件
func (suite *SpinRepositoryTestSuite) TearDownSuite() {
	CleanupTestDB(suite.db)
}

// SetupTest 每个测试前清空数据
func (suite *SpinRepositoryTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM spin_records")
}

func (suite *SpinRepositoryTestSuite) seed() {
	ctx := context.Background()
	records := []*models.SpinRecord{
		NewTestSpinRecord("s1", "loss", 10, 0, suite.now),
		NewTestSpinRecord("s2", "small", 10, 15, suite.now.Add(time.Minute)),
		NewTestSpinRecord("s3", "loss", 20, 0, suite.now.Add(2*time.Minute)),
		NewTestSpinRecord("s4", "medium", 20, 40, suite.now.Add(3*time.Minute)),
		NewTestSpinRecord("s5", "loss", 10, 0, suite.now.Add(4*time.Minute)),
	}
	records[2].Fallback = true
	for _, rec := range records {
		suite.Require().NoError(suite.repo.Create(ctx, rec))
	}
}

func (suite *SpinRepositoryTestSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := NewTestSpinRecord("spin-1", "small", 100, 150, suite.now)
	rec.RewardRule = "cherry_3"
	rec.Positions = models.PositionData{{Reel: 0, Row: 1}, {Reel: 1, Row: 1}, {Reel: 2, Row: 1}}
	rec.Commands = models.JSONData{"commands": []string{"broadcast"}}

	suite.Require().NoError(suite.repo.Create(ctx, rec))
	suite.NotZero(rec.ID)

	found, err := suite.repo.FindBySpinID(ctx, "spin-1")
	suite.Require().NoError(err)
	suite.True(found.Bet.Equal(decimal.NewFromInt(100)))
	suite.True(found.Payout.Equal(decimal.NewFromInt(150)))
	suite.Equal("cherry_3", found.RewardRule)
	suite.Equal(rec.Positions, found.Positions)
	suite.Equal(rec.Grid, found.Grid)
	suite.Equal([]interface{}{"broadcast"}, found.Commands["commands"])
	suite.True(found.IsWin())
	suite.True(found.SpunAt.Equal(suite.now))
}

func (suite *SpinRepositoryTestSuite) TestFindBySpinID_NotFound() {
	_, err := suite.repo.FindBySpinID(context.Background(), "missing")
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *SpinRepositoryTestSuite) TestCreate_DuplicateSpinID() {
	ctx := context.Background()
	suite.Require().NoError(suite.repo.Create(ctx, NewTestSpinRecord("dup", "loss", 1, 0, suite.now)))
	suite.Error(suite.repo.Create(ctx, NewTestSpinRecord("dup", "loss", 1, 0, suite.now)))
}

func (suite *SpinRepositoryTestSuite) TestList_PaginationAndOrder() {
	suite.seed()
	ctx := context.Background()

	p := NewPagination(1, 2)
	page1, err := suite.repo.List(ctx, SpinFilter{}, p)
	suite.Require().NoError(err)
	suite.Equal(int64(5), p.Total)
	suite.Require().Len(page1, 2)
	suite.Equal("s5", page1[0].SpinID)
	suite.Equal("s4", page1[1].SpinID)

	p3 := NewPagination(3, 2)
	page3, err := suite.repo.List(ctx, SpinFilter{}, p3)
	suite.Require().NoError(err)
	suite.Require().Len(page3, 1)
	suite.Equal("s1", page3[0].SpinID)
}

func (suite *SpinRepositoryTestSuite) TestList_Filters() {
	suite.seed()
	ctx := context.Background()

	testCases := []struct {
		name   string
		filter SpinFilter
		want   int
	}{
		{"按档位", SpinFilter{Tier: "loss"}, 3},
		{"只看中奖", SpinFilter{WinsOnly: true}, 2},
		{"时间范围", SpinFilter{Since: suite.now.Add(time.Minute), Until: suite.now.Add(3 * time.Minute)}, 2},
		{"赔付表", SpinFilter{Paytable: "other"}, 0},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			records, err := suite.repo.List(ctx, tc.filter, nil)
			suite.Require().NoError(err)
			suite.Len(records, tc.want)
		})
	}
}

func (suite *SpinRepositoryTestSuite) TestGetStatistics() {
	suite.seed()
	stats, err := suite.repo.GetStatistics(context.Background(), SpinFilter{})
	suite.Require().NoError(err)

	suite.Equal(int64(5), stats.TotalSpins)
	suite.True(stats.TotalBet.Equal(decimal.NewFromInt(70)), stats.TotalBet.String())
	suite.True(stats.TotalPayout.Equal(decimal.NewFromInt(55)), stats.TotalPayout.String())
	suite.Equal(int64(2), stats.Wins)
	suite.Equal(int64(1), stats.Fallbacks)
	suite.InDelta(55.0/70.0, stats.RTP, 1e-9)
	suite.Equal(map[string]int64{"loss": 3, "small": 1, "medium": 1}, stats.TierHits)
}

func (suite *SpinRepositoryTestSuite) TestGetStatistics_Empty() {
	stats, err := suite.repo.GetStatistics(context.Background(), SpinFilter{})
	suite.Require().NoError(err)
	suite.Zero(stats.TotalSpins)
	suite.Zero(stats.RTP)
	suite.Empty(stats.TierHits)
}

func (suite *SpinRepositoryTestSuite) TestDeleteBefore() {
	suite.seed()
	n, err := suite.repo.DeleteBefore(context.Background(), suite.now.Add(2*time.Minute))
	suite.Require().NoError(err)
	suite.Equal(int64(2), n)

	p := NewPagination(1, 10)
	_, err = suite.repo.List(context.Background(), SpinFilter{}, p)
	suite.Require().NoError(err)
	suite.Equal(int64(3), p.Total)
}

func (suite *SpinRepositoryTestSuite) TestList_CancelledContext() {
	suite.seed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.repo.List(ctx, SpinFilter{}, NewPagination(1, 10))
	suite.Error(err)
	_, err = suite.repo.GetStatistics(ctx, SpinFilter{})
	suite.Error(err)
}

func (suite *SpinRepositoryTestSuite) TestTransaction_RollsBack() {
	ctx := context.Background()
	base := NewBaseRepo(suite.db)
	boom := errors.New("boom")

	err := base.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(NewTestSpinRecord("tx-1", "loss", 10, 0, suite.now)).Error; err != nil {
			return err
		}
		return boom
	})
	suite.ErrorIs(err, boom)

	_, err = suite.repo.FindBySpinID(ctx, "tx-1")
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *SpinRepositoryTestSuite) TestRecordFromEngineOutcome() {
	pt, err := slot.NewPaytable(slot.DefaultPaytableConfig())
	suite.Require().NoError(err)
	engine := slot.NewEngine(pt, slot.WithRandom(slot.NewSeededRandomGenerator(7)))

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		outcome, err := engine.Spin(slot.SpinRequest{Bet: decimal.NewFromInt(5)})
		suite.Require().NoError(err)
		suite.Require().NoError(suite.repo.Create(ctx, models.NewSpinRecord(outcome)), fmt.Sprintf("spin %d", i))

		found, err := suite.repo.FindBySpinID(ctx, outcome.ID)
		suite.Require().NoError(err)
		suite.Equal(outcome.Tier.String(), found.Tier)
		suite.True(found.Payout.Equal(outcome.Payout))
		suite.Equal(models.GridData(outcome.Grid.IDs()), found.Grid)
		if outcome.Reward != nil {
			suite.Equal(outcome.Reward.Rule.Name, found.RewardRule)
			suite.Len(found.Positions, len(outcome.Reward.Positions))
		}
	}

	stats, err := suite.repo.GetStatistics(ctx, SpinFilter{})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(20), stats.TotalSpins)
	suite.True(stats.TotalBet.Equal(decimal.NewFromInt(100)))
}

func TestSpinRepositorySuite(t *testing.T) {
	suite.Run(t, new(SpinRepositoryTestSuite))
}
