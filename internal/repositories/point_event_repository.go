package repositories

import (
	"context"

	"github.com/shopspring/decimal"
)

// PointTotals aggregates one member's order events for a period.
type PointTotals struct {
	Points int
	Amount decimal.Decimal
}

// PointEventRepository reads the order/points event feed. The engine never
// writes events; they arrive from the store's order pipeline.
type PointEventRepository interface {
	// SumByMemberForPeriod totals points and commissionable amount per
	// member for the period.
	SumByMemberForPeriod(ctx context.Context, periodID uint) (map[uint]PointTotals, error)
}
