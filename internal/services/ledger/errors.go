package ledger

import "errors"

var ErrPeriodNotClosing = errors.New("period is not in closing state")
