package repositories

import (
	"context"
	"fmt"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type pointEventRepository struct {
	db *gorm.DB
}

func NewPointEventRepository(db *gorm.DB) PointEventRepository {
	return &pointEventRepository{db: db}
}

func (r *pointEventRepository) SumByMemberForPeriod(ctx context.Context, periodID uint) (map[uint]PointTotals, error) {
	type row struct {
		MemberID uint
		Points   int
		Amount   decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.PointEvent{}).
		Select("member_id, COALESCE(SUM(points), 0) AS points, COALESCE(SUM(amount), 0) AS amount").
		Where("period_id = ?", periodID).
		Group("member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum point events: %w", err)
	}
	totals := make(map[uint]PointTotals, len(rows))
	for _, rr := range rows {
		totals[rr.MemberID] = PointTotals{Points: rr.Points, Amount: rr.Amount}
	}
	return totals, nil
}
