package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-payout/internal/models"
	"gorm.io/gorm"
)

// SpinFilter 审计记录查询条件
type SpinFilter struct {
	Paytable string
	Tier     string
	WinsOnly bool
	Since    time.Time
	Until    time.Time
}

// SpinRepository 旋转审计记录仓储接口
type SpinRepository interface {
	BaseRepository
	Create(ctx context.Context, rec *models.SpinRecord) error
	FindBySpinID(ctx context.Context, spinID string) (*models.SpinRecord, error)
	List(ctx context.Context, filter SpinFilter, p *Pagination) ([]*models.SpinRecord, error)
	GetStatistics(ctx context.Context, filter SpinFilter) (*models.SpinStatistics, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// spinRepo 旋转审计记录仓储实现
type spinRepo struct {
	*BaseRepo
}

// NewSpinRepository 创建旋转审计记录仓储
func NewSpinRepository(db *gorm.DB) SpinRepository {
	return &spinRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 写入一条记录
func (r *spinRepo) Create(ctx context.Context, rec *models.SpinRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// FindBySpinID 根据旋转ID查找
func (r *spinRepo) FindBySpinID(ctx context.Context, spinID string) (*models.SpinRecord, error) {
	var rec models.SpinRecord
	err := r.db.WithContext(ctx).Where("spin_id = ?", spinID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List 分页查询，按旋转时间倒序；计数和取页在同一事务内
func (r *spinRepo) List(ctx context.Context, filter SpinFilter, p *Pagination) ([]*models.SpinRecord, error) {
	if p == nil {
		p = NewPagination(1, 0)
	}

	var records []*models.SpinRecord
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := filtered(tx, filter).Count(&p.Total).Error; err != nil {
			return err
		}
		return filtered(tx, filter).
			Scopes(Paginate(p)).
			Order("spun_at DESC").
			Order("id DESC").
			Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetStatistics 聚合统计，汇总和档位分布在同一事务内查询
func (r *spinRepo) GetStatistics(ctx context.Context, filter SpinFilter) (*models.SpinStatistics, error) {
	var agg struct {
		Total       int64
		TotalBet    float64
		TotalPayout float64
		Wins        int64
		Fallbacks   int64
	}
	var tiers []struct {
		Tier  string
		Count int64
	}
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		err := filtered(tx, filter).Select(
			"COUNT(*) AS total, " +
				"COALESCE(SUM(bet), 0) AS total_bet, " +
				"COALESCE(SUM(payout), 0) AS total_payout, " +
				"COALESCE(SUM(CASE WHEN payout > 0 THEN 1 ELSE 0 END), 0) AS wins, " +
				"COALESCE(SUM(CASE WHEN fallback THEN 1 ELSE 0 END), 0) AS fallbacks",
		).Scan(&agg).Error
		if err != nil {
			return err
		}
		return filtered(tx, filter).
			Select("tier, COUNT(*) AS count").
			Group("tier").
			Scan(&tiers).Error
	})
	if err != nil {
		return nil, err
	}

	stats := &models.SpinStatistics{
		TotalSpins:  agg.Total,
		TotalBet:    decimal.NewFromFloat(agg.TotalBet).Round(2),
		TotalPayout: decimal.NewFromFloat(agg.TotalPayout).Round(2),
		Wins:        agg.Wins,
		Fallbacks:   agg.Fallbacks,
		TierHits:    make(map[string]int64, len(tiers)),
	}
	for _, t := range tiers {
		stats.TierHits[t.Tier] = t.Count
	}
	if stats.TotalBet.IsPositive() {
		stats.RTP, _ = stats.TotalPayout.Div(stats.TotalBet).Float64()
	}
	return stats, nil
}

// DeleteBefore 清理指定时间之前的记录
func (r *spinRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("spun_at < ?", before).Delete(&models.SpinRecord{})
	return result.RowsAffected, result.Error
}

func filtered(db *gorm.DB, f SpinFilter) *gorm.DB {
	query := db.Model(&models.SpinRecord{})
	if f.Paytable != "" {
		query = query.Where("paytable = ?", f.Paytable)
	}
	if f.Tier != "" {
		query = query.Where("tier = ?", f.Tier)
	}
	if f.WinsOnly {
		query = query.Where("payout > 0")
	}
	if !f.Since.IsZero() {
		query = query.Where("spun_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		query = query.Where("spun_at < ?", f.Until)
	}
	return query
}
