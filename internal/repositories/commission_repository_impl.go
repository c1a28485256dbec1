package repositories

import (
	"context"
	"fmt"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type commissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) DeleteByPeriodAndType(ctx context.Context, periodID uint, bonusType models.BonusType) error {
	err := r.db.WithContext(ctx).
		Where("period_id = ? AND bonus_type = ?", periodID, bonusType).
		Delete(&models.Commission{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s commissions for period %d: %w", bonusType, periodID, err)
	}
	return nil
}

func (r *commissionRepository) CreateBatch(ctx context.Context, commissions []models.Commission) error {
	if len(commissions) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&commissions).Error; err != nil {
		return fmt.Errorf("failed to create commissions: %w", err)
	}
	return nil
}

func (r *commissionRepository) ListByPeriod(ctx context.Context, periodID uint) ([]models.Commission, error) {
	var rows []models.Commission
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	return rows, nil
}

func (r *commissionRepository) ListByMemberAndPeriod(ctx context.Context, memberID, periodID uint) ([]models.Commission, error) {
	var rows []models.Commission
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND period_id = ?", memberID, periodID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list member commissions: %w", err)
	}
	return rows, nil
}

func (r *commissionRepository) SumByMemberAndType(ctx context.Context, periodID uint, bonusType models.BonusType) (map[uint]decimal.Decimal, error) {
	type row struct {
		MemberID uint
		Total    decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("member_id, COALESCE(SUM(amount), 0) AS total").
		Where("period_id = ? AND bonus_type = ?", periodID, bonusType).
		Group("member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}
	totals := make(map[uint]decimal.Decimal, len(rows))
	for _, rr := range rows {
		totals[rr.MemberID] = rr.Total
	}
	return totals, nil
}

func (r *commissionRepository) ApplyConversions(ctx context.Context, updates []ConversionUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&models.Commission{}).Where("id = ?", u.CommissionID).Updates(map[string]interface{}{
				"amount_converted": u.AmountConverted,
				"exchange_rate":    u.ExchangeRate,
				"status":           u.Status,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrCommissionNotFound
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply conversions: %w", err)
	}
	return nil
}
