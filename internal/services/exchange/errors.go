package exchange

import "errors"

// ErrMissingRate means no rate is pinned for the currency in the period.
// Per-record: the affected commission is flagged for manual reconciliation
// and the rollover continues.
var ErrMissingRate = errors.New("no exchange rate pinned for currency in period")
