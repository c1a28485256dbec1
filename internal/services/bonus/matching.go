package bonus

import (
	"context"
	"fmt"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

// MatchingConfig overrides the default match tables. MaxDepth caps the
// matched depth regardless of rank; the effective depth for a member is
// min(MaxDepth, levels unlocked by their rank).
type MatchingConfig struct {
	Percentages []decimal.Decimal
	Levels      map[int]int
	MaxDepth    int
}

type matchingCalculator struct {
	cfg         MatchingConfig
	commissions repositories.CommissionRepository
}

// NewMatchingCalculator builds the Matching calculator. The commission
// repository supplies the period's uninivel totals per earner.
func NewMatchingCalculator(commissions repositories.CommissionRepository, cfg MatchingConfig) Calculator {
	if commissions == nil {
		panic("commission repository is required")
	}
	if len(cfg.Percentages) == 0 {
		cfg.Percentages = DefaultMatchingPercentages
	}
	if cfg.Levels == nil {
		cfg.Levels = DefaultMatchingLevels
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1
	}
	return &matchingCalculator{cfg: cfg, commissions: commissions}
}

func (c *matchingCalculator) Type() models.BonusType {
	return models.BonusMatching
}

// Compute pays each qualified ambassador a percentage of the uninivel
// earnings of their downline, depth 1 being direct referrals. Runs after
// the uninivel rows for the period are persisted; it reads totals from
// the ledger rather than from the previous calculator's return value so
// a crash-retry sees exactly what was written.
func (c *matchingCalculator) Compute(ctx context.Context, run *Run) ([]models.Commission, error) {
	if !run.UninivelDone {
		return nil, fmt.Errorf("%w: matching needs the period's uninivel rows", ErrCalculatorOrdering)
	}

	totals, err := c.commissions.SumByMemberAndType(ctx, run.Period.ID, models.BonusUninivel)
	if err != nil {
		return nil, err
	}

	var rows []models.Commission
	for _, id := range run.Arena.Members() {
		member, _ := run.Arena.Member(id)
		if !member.Qualified() {
			continue
		}
		levels := c.cfg.Levels[run.RankOf(id).Ordinal]
		if levels == 0 {
			continue
		}
		if levels > c.cfg.MaxDepth {
			levels = c.cfg.MaxDepth
		}
		if levels > len(c.cfg.Percentages) {
			levels = len(c.cfg.Percentages)
		}

		recipientID := id
		err := run.Arena.WalkDownline(id, levels, func(sourceID uint, depth int) error {
			base, ok := totals[sourceID]
			if !ok || base.IsZero() {
				return nil
			}
			amount := base.Mul(c.cfg.Percentages[depth-1]).Round(2)
			if amount.IsZero() {
				return nil
			}
			srcID, level := sourceID, depth
			rows = append(rows, models.Commission{
				MemberID:       recipientID,
				PeriodID:       run.Period.ID,
				Type:           models.BonusMatching,
				SourceMemberID: &srcID,
				LevelDepth:     &level,
				Amount:         amount,
				CurrencyCode:   member.Currency,
				Status:         models.CommissionStatusPending,
				CalculatedAt:   run.Now,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
