package bonus

import "errors"

// ErrCalculatorOrdering means a calculator ran before its inputs were
// ready (volumes not finalized, ranks not assigned, or matching before
// uninivel). Always a pipeline bug, never a data condition; the rollover
// aborts.
var ErrCalculatorOrdering = errors.New("bonus calculator ran out of order")
