package clock

import "errors"

// ErrTimeout is returned by Poll when deadline elapses before cond is
// satisfied. Vendor sequences and the DAP facade both surface this as the
// Timeout error kind.
var ErrTimeout = errors.New("clock: deadline exceeded")
