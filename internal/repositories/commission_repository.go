package repositories

import (
	"context"
	"errors"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
)

var ErrCommissionNotFound = errors.New("commission not found")

// ConversionUpdate sets the converted amount on one commission row.
type ConversionUpdate struct {
	CommissionID    uint
	AmountConverted decimal.Decimal
	ExchangeRate    decimal.Decimal
	Status          string
}

// CommissionRepository persists the append-only commission ledger.
// Idempotency is delete-then-rewrite per (period, bonus type): the
// controller clears a calculator's prior output before writing, there is
// no per-row upsert.
type CommissionRepository interface {
	DeleteByPeriodAndType(ctx context.Context, periodID uint, bonusType models.BonusType) error
	CreateBatch(ctx context.Context, commissions []models.Commission) error

	ListByPeriod(ctx context.Context, periodID uint) ([]models.Commission, error)
	ListByMemberAndPeriod(ctx context.Context, memberID, periodID uint) ([]models.Commission, error)

	// SumByMemberAndType totals base-currency amounts per recipient for one
	// bonus type in a period. Used by the matching calculator.
	SumByMemberAndType(ctx context.Context, periodID uint, bonusType models.BonusType) (map[uint]decimal.Decimal, error)

	ApplyConversions(ctx context.Context, updates []ConversionUpdate) error
}
