package repositories

import (
	"context"
	"fmt"
	"time"

	"vidanet/internal/models"

	"gorm.io/gorm"
)

type periodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) PeriodRepository {
	return &periodRepository{db: db}
}

func (r *periodRepository) Create(ctx context.Context, period *models.Period) error {
	if err := r.db.WithContext(ctx).Create(period).Error; err != nil {
		return fmt.Errorf("failed to create period: %w", err)
	}
	return nil
}

func (r *periodRepository) GetByID(ctx context.Context, id uint) (*models.Period, error) {
	var period models.Period
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return &period, nil
}

func (r *periodRepository) CurrentOpen(ctx context.Context, at time.Time) (*models.Period, error) {
	var period models.Period
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PeriodStatusOpen).
		Order("starts_on DESC").
		First(&period).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoOpenPeriod
		}
		return nil, fmt.Errorf("failed to get open period: %w", err)
	}
	return &period, nil
}

func (r *periodRepository) InClosing(ctx context.Context) ([]models.Period, error) {
	var periods []models.Period
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PeriodStatusClosing).
		Order("starts_on ASC").
		Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list closing periods: %w", err)
	}
	return periods, nil
}

func (r *periodRepository) LatestClosed(ctx context.Context) (*models.Period, error) {
	var period models.Period
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PeriodStatusClosed).
		Order("ends_on DESC").
		First(&period).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get latest closed period: %w", err)
	}
	return &period, nil
}

func (r *periodRepository) RecentClosed(ctx context.Context, limit int) ([]models.Period, error) {
	var periods []models.Period
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PeriodStatusClosed).
		Order("ends_on DESC").
		Limit(limit).
		Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list closed periods: %w", err)
	}
	return periods, nil
}

func (r *periodRepository) SetStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Period{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to set period status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *periodRepository) MarkVolumesFinalized(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Period{}).
		Where("id = ?", id).
		Update("volumes_finalized_at", now)
	if res.Error != nil {
		return fmt.Errorf("failed to mark volumes finalized: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *periodRepository) CloseAndOpenNext(ctx context.Context, periodID uint, next *models.Period, baselineRankID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Period{}).
			Where("id = ? AND status = ?", periodID, models.PeriodStatusClosing).
			Updates(map[string]interface{}{
				"status":    models.PeriodStatusClosed,
				"closed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPeriodNotFound
		}

		if err := tx.Create(next).Error; err != nil {
			return err
		}

		// Fresh counters for the new period.
		if err := tx.Model(&models.Member{}).Where("1 = 1").Updates(map[string]interface{}{
			"pv_cache":  0,
			"pvg_cache": 0,
			"vn_cache":  0,
			"status":    models.MemberStatusNotQualified,
		}).Error; err != nil {
			return err
		}

		var memberIDs []uint
		if err := tx.Model(&models.Member{}).Order("id ASC").Pluck("id", &memberIDs).Error; err != nil {
			return err
		}
		for _, id := range memberIDs {
			row := models.RankHistory{
				MemberID:   id,
				PeriodID:   next.ID,
				RankID:     baselineRankID,
				AchievedOn: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to close period %d: %w", periodID, err)
	}
	return nil
}
