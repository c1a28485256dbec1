package rollover

import "errors"

var (
	// ErrLeaseHeld means another instance owns the closure of this period.
	// Benign: the losing instance logs and does nothing.
	ErrLeaseHeld = errors.New("rollover lease held by another instance")

	// ErrLeaseLost means the holder's token no longer matches, usually an
	// expired lease that another instance took over.
	ErrLeaseLost = errors.New("rollover lease lost")

	ErrNoPeriodDue = errors.New("no period due for closure")
)
