package memory

import (
	"context"
	"sort"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
)

type rankRepo struct {
	store *Store
}

func (r *rankRepo) GetByID(ctx context.Context, id uint) (*models.Rank, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.ranks {
		if r.store.ranks[i].ID == id {
			out := r.store.ranks[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrRankNotFound
}

func (r *rankRepo) ListByOrdinal(ctx context.Context) ([]models.Rank, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Rank, len(r.store.ranks))
	copy(out, r.store.ranks)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (r *rankRepo) SeedDefaults(ctx context.Context, ranks []models.Rank) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if len(r.store.ranks) > 0 {
		return nil
	}
	for _, rk := range ranks {
		if rk.ID == 0 {
			r.store.nextRankID++
			rk.ID = r.store.nextRankID
		} else if rk.ID > r.store.nextRankID {
			r.store.nextRankID = rk.ID
		}
		r.store.ranks = append(r.store.ranks, rk)
	}
	return nil
}

type rankHistoryRepo struct {
	store *Store
}

func (r *rankHistoryRepo) Upsert(ctx context.Context, memberID, periodID, rankID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := memberPeriodKey{memberID, periodID}
	row, ok := r.store.histories[key]
	if !ok {
		r.store.nextHistoryID++
		row = models.RankHistory{
			ID:       r.store.nextHistoryID,
			MemberID: memberID,
			PeriodID: periodID,
		}
	}
	row.RankID = rankID
	row.AchievedOn = time.Now().UTC()
	r.store.histories[key] = row
	return nil
}

func (r *rankHistoryRepo) RankForPeriod(ctx context.Context, memberID, periodID uint) (*models.RankHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.histories[memberPeriodKey{memberID, periodID}]
	if !ok {
		return nil, repositories.ErrRankHistoryNotFound
	}
	out := row
	return &out, nil
}

func (r *rankHistoryRepo) ListForPeriod(ctx context.Context, periodID uint) ([]models.RankHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.RankHistory
	for _, row := range r.store.histories {
		if row.PeriodID == periodID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *rankHistoryRepo) HighestOrdinalBefore(ctx context.Context, memberID, periodID uint) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ordinals := make(map[uint]int, len(r.store.ranks))
	for _, rk := range r.store.ranks {
		ordinals[rk.ID] = rk.Ordinal
	}
	highest := 0
	for _, row := range r.store.histories {
		if row.MemberID != memberID || row.PeriodID >= periodID {
			continue
		}
		if ord := ordinals[row.RankID]; ord > highest {
			highest = ord
		}
	}
	return highest, nil
}
