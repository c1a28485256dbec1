// Package summary serves the dashboard read path: a member's volumes,
// rank and progress for a closed period, plus their commission rows.
// Only closed periods are served; an in-flight closing is invisible to
// the dashboard until it commits.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
	"vidanet/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

// MemberSummary is the dashboard view of one member in one period.
type MemberSummary struct {
	MemberID   uint   `json:"member_id"`
	PeriodID   uint   `json:"period_id"`
	PeriodName string `json:"period_name"`

	// Stale is true when the latest closed period had no snapshot for the
	// member and an older closed period is being served instead.
	Stale bool `json:"stale"`

	PV        int             `json:"pv"`
	PVG       int             `json:"pvg"`
	VN        decimal.Decimal `json:"vn"`
	Qualified bool            `json:"qualified"`

	RankName     string `json:"rank_name"`
	NextRankName string `json:"next_rank_name,omitempty"`
	NextRankPVG  int    `json:"next_rank_pvg,omitempty"`
	PVGToNext    int    `json:"pvg_to_next,omitempty"`
}

// Service answers dashboard queries.
type Service interface {
	// GetMemberSummary reports the member's standing for the period, or for
	// the latest closed period when periodID is nil. Falls back to the most
	// recent closed period with a snapshot, flagged Stale.
	GetMemberSummary(ctx context.Context, memberID uint, periodID *uint) (*MemberSummary, error)

	// GetCommissions lists the member's commission rows for a closed
	// period, defaulting to the latest closed one.
	GetCommissions(ctx context.Context, memberID uint, periodID *uint) ([]models.Commission, error)
}

// Config tunes the read path.
type Config struct {
	// CacheTTL bounds how long a summary may be served from cache. Zero
	// uses the cache service default.
	CacheTTL time.Duration
	// FallbackDepth is how many recent closed periods the staleness
	// fallback searches.
	FallbackDepth int
}

type service struct {
	members     repositories.MemberRepository
	periods     repositories.PeriodRepository
	ranks       repositories.RankRepository
	history     repositories.RankHistoryRepository
	commissions repositories.CommissionRepository
	cache       *cache.CacheService
	config      Config
}

func NewService(
	members repositories.MemberRepository,
	periods repositories.PeriodRepository,
	ranks repositories.RankRepository,
	history repositories.RankHistoryRepository,
	commissions repositories.CommissionRepository,
	cacheService *cache.CacheService,
	config Config,
) Service {
	if members == nil {
		panic("member repository is required")
	}
	if periods == nil {
		panic("period repository is required")
	}
	if ranks == nil {
		panic("rank repository is required")
	}
	if history == nil {
		panic("rank history repository is required")
	}
	if commissions == nil {
		panic("commission repository is required")
	}
	if config.FallbackDepth <= 0 {
		config.FallbackDepth = 6
	}
	return &service{
		members:     members,
		periods:     periods,
		ranks:       ranks,
		history:     history,
		commissions: commissions,
		cache:       cacheService,
		config:      config,
	}
}

func (s *service) GetMemberSummary(ctx context.Context, memberID uint, periodID *uint) (*MemberSummary, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	if periodID != nil {
		period, err := s.closedPeriod(ctx, *periodID)
		if err != nil {
			return nil, err
		}
		return s.buildSummary(ctx, memberID, period, false)
	}

	latest, err := s.periods.LatestClosed(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			return nil, ErrNoClosedPeriod
		}
		return nil, err
	}

	out, err := s.buildSummary(ctx, memberID, latest, false)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, repositories.ErrVolumeNotFound) {
		return nil, err
	}

	// The latest close has no snapshot for this member; serve the most
	// recent closed period that does, marked stale.
	recent, err := s.periods.RecentClosed(ctx, s.config.FallbackDepth)
	if err != nil {
		return nil, err
	}
	for i := range recent {
		if recent[i].ID == latest.ID {
			continue
		}
		out, err := s.buildSummary(ctx, memberID, &recent[i], true)
		if err == nil {
			log.Printf("summary: serving stale period %s for member %d", recent[i].Name, memberID)
			return out, nil
		}
		if !errors.Is(err, repositories.ErrVolumeNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: member %d has no closed-period snapshot", ErrNoClosedPeriod, memberID)
}

func (s *service) GetCommissions(ctx context.Context, memberID uint, periodID *uint) ([]models.Commission, error) {
	var period *models.Period
	var err error
	if periodID != nil {
		period, err = s.closedPeriod(ctx, *periodID)
	} else {
		period, err = s.periods.LatestClosed(ctx)
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			err = ErrNoClosedPeriod
		}
	}
	if err != nil {
		return nil, err
	}
	return s.commissions.ListByMemberAndPeriod(ctx, memberID, period.ID)
}

func (s *service) closedPeriod(ctx context.Context, periodID uint) (*models.Period, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status != models.PeriodStatusClosed {
		return nil, fmt.Errorf("%w: period %d is %s", ErrPeriodNotClosed, periodID, period.Status)
	}
	return period, nil
}

func (s *service) buildSummary(ctx context.Context, memberID uint, period *models.Period, stale bool) (*MemberSummary, error) {
	key := fmt.Sprintf("summary:%d:%d", memberID, period.ID)
	if s.cache != nil {
		var cached MemberSummary
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			cached.Stale = stale
			return &cached, nil
		} else if !cache.IsMiss(err) {
			log.Printf("summary: cache read failed for %s: %v", key, err)
		}
	}

	volume, err := s.members.GetVolume(ctx, memberID, period.ID)
	if err != nil {
		return nil, err
	}

	out := &MemberSummary{
		MemberID:   memberID,
		PeriodID:   period.ID,
		PeriodName: period.Name,
		Stale:      stale,
		PV:         volume.PV,
		PVG:        volume.PVG,
		VN:         volume.VN,
	}

	achieved, err := s.history.RankForPeriod(ctx, memberID, period.ID)
	if err != nil && !errors.Is(err, repositories.ErrRankHistoryNotFound) {
		return nil, err
	}

	ladder, err := s.ranks.ListByOrdinal(ctx)
	if err != nil {
		return nil, err
	}
	current := currentRank(ladder, achieved)
	if current != nil {
		out.RankName = current.Name
		out.Qualified = volume.PV >= current.PVRequired && current.Ordinal > 0
		if next := nextRank(ladder, current.Ordinal); next != nil {
			out.NextRankName = next.Name
			out.NextRankPVG = next.PVGRequired
			if gap := next.PVGRequired - volume.PVG; gap > 0 {
				out.PVGToNext = gap
			}
		}
	}

	if s.cache != nil {
		// Cache without the staleness flag; it depends on the caller's
		// requested period, not on the snapshot itself.
		toCache := *out
		toCache.Stale = false
		if err := s.cache.SetJSON(ctx, key, &toCache, s.config.CacheTTL); err != nil {
			log.Printf("summary: cache write failed for %s: %v", key, err)
		}
	}
	return out, nil
}

func currentRank(ladder []models.Rank, achieved *models.RankHistory) *models.Rank {
	if len(ladder) == 0 {
		return nil
	}
	if achieved == nil {
		return &ladder[0]
	}
	for i := range ladder {
		if ladder[i].ID == achieved.RankID {
			return &ladder[i]
		}
	}
	return &ladder[0]
}

func nextRank(ladder []models.Rank, ordinal int) *models.Rank {
	for i := range ladder {
		if ladder[i].Ordinal == ordinal+1 {
			return &ladder[i]
		}
	}
	return nil
}
