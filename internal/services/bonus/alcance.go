package bonus

import (
	"context"
	"fmt"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

// AlcanceConfig overrides the default advancement amounts. BaseCurrency
// selects which column of the amount tables is the ledger base.
type AlcanceConfig struct {
	Amounts      map[int]map[string]decimal.Decimal
	BaseCurrency string
}

type alcanceCalculator struct {
	cfg     AlcanceConfig
	history repositories.RankHistoryRepository
}

// NewAlcanceCalculator builds the Alcance calculator. Rank history decides
// whether a milestone is newly reached.
func NewAlcanceCalculator(history repositories.RankHistoryRepository, cfg AlcanceConfig) Calculator {
	if history == nil {
		panic("rank history repository is required")
	}
	if cfg.Amounts == nil {
		cfg.Amounts = DefaultAlcanceAmounts
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "MXN"
	}
	return &alcanceCalculator{cfg: cfg, history: history}
}

func (c *alcanceCalculator) Type() models.BonusType {
	return models.BonusAlcance
}

// Compute pays the sponsor a fixed amount the first time a member reaches
// a rank milestone. "First time" compares against the highest rank the
// member held in any prior period, so regressing and re-reaching a rank
// never pays twice, and skipping rungs in one jump pays every rung
// crossed. The amount tables are per-currency; a sponsor currency outside
// the table leaves conversion to the period-pinned rates.
func (c *alcanceCalculator) Compute(ctx context.Context, run *Run) ([]models.Commission, error) {
	if !run.RanksAssigned {
		return nil, fmt.Errorf("%w: alcance needs assigned ranks", ErrCalculatorOrdering)
	}

	var rows []models.Commission
	for _, id := range run.Arena.Members() {
		member, _ := run.Arena.Member(id)
		if member.SponsorID == nil {
			continue
		}
		achieved := run.RankOf(id)
		prior, err := c.history.HighestOrdinalBefore(ctx, id, run.Period.ID)
		if err != nil {
			return nil, err
		}
		if achieved.Ordinal <= prior {
			continue
		}
		sponsor, ok := run.Arena.Member(*member.SponsorID)
		if !ok {
			continue
		}

		for ordinal := prior + 1; ordinal <= achieved.Ordinal; ordinal++ {
			amounts, payable := c.cfg.Amounts[ordinal]
			if !payable {
				continue
			}
			base := amounts[c.cfg.BaseCurrency]
			if base.IsZero() {
				continue
			}
			row := models.Commission{
				MemberID:     sponsor.ID,
				PeriodID:     run.Period.ID,
				Type:         models.BonusAlcance,
				Amount:       base,
				CurrencyCode: sponsor.Currency,
				Status:       models.CommissionStatusPending,
				CalculatedAt: run.Now,
			}
			achieverID := id
			row.SourceMemberID = &achieverID
			if rk, ok := run.RankByOrdinal(ordinal); ok {
				row.Notes = fmt.Sprintf("advancement to %s by member %d", rk.Name, id)
			}
			if local, ok := amounts[sponsor.Currency]; ok && !local.IsZero() {
				row.AmountConverted = local
				row.ExchangeRate = base.DivRound(local, 8)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
