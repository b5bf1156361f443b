package domain

import "errors"

var (
	// ErrRegionNotFound means the region mask has no valid code within the
	// maximum search radius of a cell. The mask is structurally incomplete.
	ErrRegionNotFound = errors.New("no region code within search radius")

	// ErrDuplicateDate means a record would not extend the volume log in date order.
	ErrDuplicateDate = errors.New("record date is not after the last logged date")
)
