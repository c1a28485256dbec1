package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusType identifies which calculator produced a commission row.
type BonusType string

const (
	BonusUninivel BonusType = "uninivel"
	BonusMatching BonusType = "matching"
	BonusAlcance  BonusType = "alcance"
)

// Commission statuses. Rows missing an exchange rate are flagged for
// manual reconciliation instead of aborting the rollover.
const (
	CommissionStatusPending        = "pending"
	CommissionStatusNeedsReconcile = "needs_reconciliation"
	CommissionStatusPaid           = "paid"
)

// Commission is one append-only payout ledger entry. Amount is always in
// the base currency; AmountConverted is in the recipient's display currency
// using the rate pinned to the period. The full set of rows for a
// (period, bonus_type) pair is replaced atomically on recomputation.
type Commission struct {
	ID       uint      `gorm:"primarykey"`
	MemberID uint      `gorm:"not null;index:idx_commission_member_period"`
	PeriodID uint      `gorm:"not null;index:idx_commission_member_period;index:idx_commission_period_type"`
	Type     BonusType `gorm:"column:bonus_type;size:20;not null;index:idx_commission_period_type"`

	SourceMemberID *uint `gorm:"index"`
	LevelDepth     *int

	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	CurrencyCode    string          `gorm:"size:10;not null"`
	AmountConverted decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	ExchangeRate    decimal.Decimal `gorm:"type:numeric(18,8);not null;default:0"`

	Status string `gorm:"size:30;not null;default:'pending';index"`
	Notes  string `gorm:"size:500"`

	CalculatedAt time.Time `gorm:"not null"`
	PaidAt       *time.Time
}
