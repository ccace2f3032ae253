package database

import (
	"fmt"

	"github.com/wfunc/slot-payout/internal/logger"
	"github.com/wfunc/slot-payout/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrationModels 需要迁移的模型
var migrationModels = []interface{}{
	&models.SpinRecord{},
}

// AutoMigrate 自动迁移全局数据库
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate 迁移审计表结构并创建索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	if path := sqlitePath(db); path != "" {
		lockFile, err := acquireMigrationLock(path)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")
	for _, model := range migrationModels {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建组合索引，失败只记录警告
func createIndexes(db *gorm.DB) {
	indexes := map[string]string{
		"idx_spin_records_paytable_spun_at": "CREATE INDEX IF NOT EXISTS idx_spin_records_paytable_spun_at ON spin_records(paytable, spun_at)",
		"idx_spin_records_tier_spun_at":     "CREATE INDEX IF NOT EXISTS idx_spin_records_tier_spun_at ON spin_records(tier, spun_at)",
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
}
