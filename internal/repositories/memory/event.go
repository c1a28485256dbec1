package memory

import (
	"context"

	"vidanet/internal/repositories"
)

type eventRepo struct {
	store *Store
}

func (r *eventRepo) SumByMemberForPeriod(ctx context.Context, periodID uint) (map[uint]repositories.PointTotals, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	totals := make(map[uint]repositories.PointTotals)
	for _, ev := range r.store.events {
		if ev.PeriodID != periodID {
			continue
		}
		t := totals[ev.MemberID]
		t.Points += ev.Points
		t.Amount = t.Amount.Add(ev.Amount)
		totals[ev.MemberID] = t
	}
	return totals, nil
}
