package lease

import "errors"

var (
	errInvalidLeaseMs      = errors.New("lease_ms out of range [30000, 1800000]")
	errInvalidStaleMinutes = errors.New("stale_minutes must be >= 1")
)
