package rank

import "errors"

// ErrLadderEmpty means the rank ladder has not been seeded.
var ErrLadderEmpty = errors.New("rank ladder is empty")
