package bonus

import (
	"context"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/services/network"
	"vidanet/internal/services/rank"
)

// Run is the shared context for one period's calculator pipeline. The
// controller builds it once after volume finalization and qualification,
// then threads it through every calculator in order.
type Run struct {
	Period *models.Period
	Arena  *network.Arena
	Ranks  *rank.Result

	// Pipeline stage flags, set by the controller as stages complete.
	// Calculators check them and fail with ErrCalculatorOrdering when a
	// prerequisite stage has not run.
	VolumesFinalized bool
	RanksAssigned    bool
	UninivelDone     bool

	// Now stamps CalculatedAt on every row of the run. The controller pins
	// it to the period's end boundary so re-runs write identical rows.
	Now time.Time
}

// RankOf returns the rank assigned to the member this period. Members
// absent from the assignment map evaluate to the zero rank.
func (r *Run) RankOf(memberID uint) models.Rank {
	return r.Ranks.Assignments[memberID]
}

// RankByOrdinal finds the ladder rung with the given ordinal.
func (r *Run) RankByOrdinal(ordinal int) (models.Rank, bool) {
	for _, rk := range r.Ranks.Ladder {
		if rk.Ordinal == ordinal {
			return rk, true
		}
	}
	return models.Rank{}, false
}

// Calculator produces the commission rows for one bonus type.
type Calculator interface {
	Type() models.BonusType
	Compute(ctx context.Context, run *Run) ([]models.Commission, error)
}
