package summary

import "errors"

var (
	// ErrNoClosedPeriod means no period has finished closing yet, so there
	// is nothing to report.
	ErrNoClosedPeriod = errors.New("no closed period available")

	// ErrPeriodNotClosed guards the read path: open or closing periods have
	// unstable numbers and are never served.
	ErrPeriodNotClosed = errors.New("period is not closed")
)
