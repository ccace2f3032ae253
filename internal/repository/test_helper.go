package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-payout/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 创建内存数据库并迁移审计表
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接独立，固定为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.SpinRecord{}))
	return db
}

// CleanupTestDB 关闭测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// NewTestSpinRecord 构造测试用审计记录
func NewTestSpinRecord(spinID, tier string, bet, payout int64, at time.Time) *models.SpinRecord {
	return &models.SpinRecord{
		SpinID:     spinID,
		Paytable:   "classic_fruit",
		Tier:       tier,
		Bet:        decimal.NewFromInt(bet),
		Payout:     decimal.NewFromInt(payout),
		Multiplier: float64(payout) / float64(bet),
		Rows:       3,
		Reels:      5,
		Grid: models.GridData{
			{"cherry", "lemon", "plum", "grape", "bar"},
			{"cherry", "cherry", "cherry", "lemon", "plum"},
			{"orange", "bar", "seven", "lemon", "grape"},
		},
		Attempts: 1,
		SpunAt:   at,
	}
}
