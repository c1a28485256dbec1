package repositories

import (
	"context"
	"fmt"

	"vidanet/internal/models"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &member, nil
}

func (r *memberRepository) ListAll(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (r *memberRepository) ReplaceVolumes(ctx context.Context, periodID uint, updates []VolumeUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", periodID).Delete(&models.MemberVolume{}).Error; err != nil {
			return err
		}
		for _, u := range updates {
			res := tx.Model(&models.Member{}).Where("id = ?", u.MemberID).Updates(map[string]interface{}{
				"pv_cache":  u.PV,
				"pvg_cache": u.PVG,
				"vn_cache":  u.VN,
			})
			if res.Error != nil {
				return res.Error
			}
			snapshot := models.MemberVolume{
				MemberID: u.MemberID,
				PeriodID: periodID,
				PV:       u.PV,
				PVG:      u.PVG,
				VN:       u.VN,
			}
			if err := tx.Create(&snapshot).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace volumes for period %d: %w", periodID, err)
	}
	return nil
}

func (r *memberRepository) UpdateRanks(ctx context.Context, updates []RankUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			status := models.MemberStatusNotQualified
			if u.Qualified {
				status = models.MemberStatusQualified
			}
			res := tx.Model(&models.Member{}).Where("id = ?", u.MemberID).Updates(map[string]interface{}{
				"current_rank_id": u.RankID,
				"highest_rank_id": u.HighestRankID,
				"status":          status,
			})
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update ranks: %w", err)
	}
	return nil
}

func (r *memberRepository) GetVolume(ctx context.Context, memberID, periodID uint) (*models.MemberVolume, error) {
	var volume models.MemberVolume
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND period_id = ?", memberID, periodID).
		First(&volume).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrVolumeNotFound
		}
		return nil, fmt.Errorf("failed to get member volume: %w", err)
	}
	return &volume, nil
}
