package bonus

import (
	"context"
	"fmt"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
)

// UninivelConfig overrides the default level table.
type UninivelConfig struct {
	Percentages   []decimal.Decimal
	PayableLevels map[int]int
}

type uninivelCalculator struct {
	cfg UninivelConfig
}

// NewUninivelCalculator builds the Uninivel calculator. Zero-valued config
// fields fall back to the default plan tables.
func NewUninivelCalculator(cfg UninivelConfig) Calculator {
	if len(cfg.Percentages) == 0 {
		cfg.Percentages = DefaultUninivelPercentages
	}
	if cfg.PayableLevels == nil {
		cfg.PayableLevels = DefaultPayableLevels
	}
	return &uninivelCalculator{cfg: cfg}
}

func (c *uninivelCalculator) Type() models.BonusType {
	return models.BonusUninivel
}

// Compute walks the upline of every purchasing member and pays each
// qualified ancestor the level percentage of the purchaser's PV. An
// ancestor that is not qualified, or whose rank does not unlock the
// level, is skipped without stopping the walk; depth keeps counting, so
// a disqualified level is lost, not compressed.
func (c *uninivelCalculator) Compute(ctx context.Context, run *Run) ([]models.Commission, error) {
	if !run.VolumesFinalized || !run.RanksAssigned {
		return nil, fmt.Errorf("%w: uninivel needs finalized volumes and assigned ranks", ErrCalculatorOrdering)
	}

	var rows []models.Commission
	for _, id := range run.Arena.Members() {
		source, _ := run.Arena.Member(id)
		if source.PVCache <= 0 {
			continue
		}
		line, err := run.Arena.Ancestors(id)
		if err != nil {
			return nil, err
		}
		pv := decimal.NewFromInt(int64(source.PVCache))

		for i, uplineID := range line {
			depth := i + 1
			if depth > len(c.cfg.Percentages) {
				break
			}
			p := c.cfg.Percentages[depth-1]
			if p.IsZero() {
				break
			}
			upline, _ := run.Arena.Member(uplineID)
			if !upline.Qualified() {
				continue
			}
			if depth > c.cfg.PayableLevels[run.RankOf(uplineID).Ordinal] {
				continue
			}
			amount := pv.Mul(p).Round(2)
			if amount.IsZero() {
				continue
			}

			sourceID, level := id, depth
			rows = append(rows, models.Commission{
				MemberID:       uplineID,
				PeriodID:       run.Period.ID,
				Type:           models.BonusUninivel,
				SourceMemberID: &sourceID,
				LevelDepth:     &level,
				Amount:         amount,
				CurrencyCode:   upline.Currency,
				Status:         models.CommissionStatusPending,
				CalculatedAt:   run.Now,
			})
		}
	}
	return rows, nil
}
