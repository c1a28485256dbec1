package memory

import (
	"context"
	"sort"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

type periodRepo struct {
	store *Store
}

func (r *periodRepo) Create(ctx context.Context, period *models.Period) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.createPeriodLocked(period)
	return nil
}

func (s *Store) createPeriodLocked(period *models.Period) {
	if period.ID == 0 {
		s.nextPeriodID++
		period.ID = s.nextPeriodID
	} else if period.ID > s.nextPeriodID {
		s.nextPeriodID = period.ID
	}
	s.periods[period.ID] = *period
}

func (r *periodRepo) GetByID(ctx context.Context, id uint) (*models.Period, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.periods[id]
	if !ok {
		return nil, repositories.ErrPeriodNotFound
	}
	out := p
	return &out, nil
}

func (r *periodRepo) CurrentOpen(ctx context.Context, at time.Time) (*models.Period, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var found *models.Period
	for id := range r.store.periods {
		p := r.store.periods[id]
		if p.Status != models.PeriodStatusOpen {
			continue
		}
		if found == nil || p.StartsOn.After(found.StartsOn) {
			copied := p
			found = &copied
		}
	}
	if found == nil {
		return nil, repositories.ErrNoOpenPeriod
	}
	return found, nil
}

func (r *periodRepo) InClosing(ctx context.Context) ([]models.Period, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Period
	for _, p := range r.store.periods {
		if p.Status == models.PeriodStatusClosing {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsOn.Before(out[j].StartsOn) })
	return out, nil
}

func (r *periodRepo) LatestClosed(ctx context.Context) (*models.Period, error) {
	periods, err := r.RecentClosed(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, repositories.ErrPeriodNotFound
	}
	return &periods[0], nil
}

func (r *periodRepo) RecentClosed(ctx context.Context, limit int) ([]models.Period, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Period
	for _, p := range r.store.periods {
		if p.Status == models.PeriodStatusClosed {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsOn.After(out[j].EndsOn) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *periodRepo) SetStatus(ctx context.Context, id uint, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.periods[id]
	if !ok {
		return repositories.ErrPeriodNotFound
	}
	p.Status = status
	r.store.periods[id] = p
	return nil
}

func (r *periodRepo) MarkVolumesFinalized(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.periods[id]
	if !ok {
		return repositories.ErrPeriodNotFound
	}
	now := time.Now().UTC()
	p.VolumesFinalizedAt = &now
	r.store.periods[id] = p
	return nil
}

func (r *periodRepo) CloseAndOpenNext(ctx context.Context, periodID uint, next *models.Period, baselineRankID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.periods[periodID]
	if !ok || p.Status != models.PeriodStatusClosing {
		return repositories.ErrPeriodNotFound
	}
	now := time.Now().UTC()
	p.Status = models.PeriodStatusClosed
	p.ClosedAt = &now
	r.store.periods[periodID] = p

	r.store.createPeriodLocked(next)

	for id, m := range r.store.members {
		m.PVCache = 0
		m.PVGCache = 0
		m.VNCache = decimal.Zero
		m.Status = models.MemberStatusNotQualified
		r.store.members[id] = m
	}
	for id := range r.store.members {
		r.store.nextHistoryID++
		r.store.histories[memberPeriodKey{id, next.ID}] = models.RankHistory{
			ID:         r.store.nextHistoryID,
			MemberID:   id,
			PeriodID:   next.ID,
			RankID:     baselineRankID,
			AchievedOn: now,
		}
	}
	return nil
}
