package memory

import (
	"context"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

type commissionRepo struct {
	store *Store
}

func (r *commissionRepo) DeleteByPeriodAndType(ctx context.Context, periodID uint, bonusType models.BonusType) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.rows[:0]
	for _, row := range r.store.rows {
		if row.PeriodID == periodID && row.Type == bonusType {
			continue
		}
		kept = append(kept, row)
	}
	r.store.rows = kept
	return nil
}

func (r *commissionRepo) CreateBatch(ctx context.Context, commissions []models.Commission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range commissions {
		r.store.nextCommissionID++
		row.ID = r.store.nextCommissionID
		r.store.rows = append(r.store.rows, row)
	}
	return nil
}

func (r *commissionRepo) ListByPeriod(ctx context.Context, periodID uint) ([]models.Commission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Commission
	for _, row := range r.store.rows {
		if row.PeriodID == periodID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *commissionRepo) ListByMemberAndPeriod(ctx context.Context, memberID, periodID uint) ([]models.Commission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Commission
	for _, row := range r.store.rows {
		if row.MemberID == memberID && row.PeriodID == periodID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *commissionRepo) SumByMemberAndType(ctx context.Context, periodID uint, bonusType models.BonusType) (map[uint]decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	totals := make(map[uint]decimal.Decimal)
	for _, row := range r.store.rows {
		if row.PeriodID != periodID || row.Type != bonusType {
			continue
		}
		totals[row.MemberID] = totals[row.MemberID].Add(row.Amount)
	}
	return totals, nil
}

func (r *commissionRepo) ApplyConversions(ctx context.Context, updates []repositories.ConversionUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range updates {
		found := false
		for i := range r.store.rows {
			if r.store.rows[i].ID == u.CommissionID {
				r.store.rows[i].AmountConverted = u.AmountConverted
				r.store.rows[i].ExchangeRate = u.ExchangeRate
				r.store.rows[i].Status = u.Status
				found = true
				break
			}
		}
		if !found {
			return repositories.ErrCommissionNotFound
		}
	}
	return nil
}
