package repositories

import (
	"context"
	"fmt"
	"time"

	"vidanet/internal/models"

	"gorm.io/gorm"
)

type rankRepository struct {
	db *gorm.DB
}

func NewRankRepository(db *gorm.DB) RankRepository {
	return &rankRepository{db: db}
}

func (r *rankRepository) GetByID(ctx context.Context, id uint) (*models.Rank, error) {
	var rank models.Rank
	if err := r.db.WithContext(ctx).First(&rank, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRankNotFound
		}
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}
	return &rank, nil
}

func (r *rankRepository) ListByOrdinal(ctx context.Context) ([]models.Rank, error) {
	var ranks []models.Rank
	if err := r.db.WithContext(ctx).Order("ordinal ASC").Find(&ranks).Error; err != nil {
		return nil, fmt.Errorf("failed to list ranks: %w", err)
	}
	return ranks, nil
}

func (r *rankRepository) SeedDefaults(ctx context.Context, ranks []models.Rank) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Rank{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count ranks: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&ranks).Error; err != nil {
		return fmt.Errorf("failed to seed ranks: %w", err)
	}
	return nil
}

type rankHistoryRepository struct {
	db *gorm.DB
}

func NewRankHistoryRepository(db *gorm.DB) RankHistoryRepository {
	return &rankHistoryRepository{db: db}
}

func (r *rankHistoryRepository) Upsert(ctx context.Context, memberID, periodID, rankID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RankHistory
		err := tx.Where("member_id = ? AND period_id = ?", memberID, periodID).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			row := models.RankHistory{
				MemberID:   memberID,
				PeriodID:   periodID,
				RankID:     rankID,
				AchievedOn: time.Now().UTC(),
			}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		existing.RankID = rankID
		existing.AchievedOn = time.Now().UTC()
		return tx.Save(&existing).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert rank history: %w", err)
	}
	return nil
}

func (r *rankHistoryRepository) RankForPeriod(ctx context.Context, memberID, periodID uint) (*models.RankHistory, error) {
	var row models.RankHistory
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND period_id = ?", memberID, periodID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRankHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get rank history: %w", err)
	}
	return &row, nil
}

func (r *rankHistoryRepository) ListForPeriod(ctx context.Context, periodID uint) ([]models.RankHistory, error) {
	var rows []models.RankHistory
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("member_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rank history: %w", err)
	}
	return rows, nil
}

func (r *rankHistoryRepository) HighestOrdinalBefore(ctx context.Context, memberID, periodID uint) (int, error) {
	var ordinal *int
	err := r.db.WithContext(ctx).
		Model(&models.RankHistory{}).
		Select("MAX(ranks.ordinal)").
		Joins("JOIN ranks ON ranks.id = rank_histories.rank_id").
		Where("rank_histories.member_id = ? AND rank_histories.period_id < ?", memberID, periodID).
		Scan(&ordinal).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get highest prior ordinal: %w", err)
	}
	if ordinal == nil {
		return 0, nil
	}
	return *ordinal, nil
}
