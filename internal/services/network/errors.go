package network

import "errors"

var (
	// ErrGraphIntegrity indicates corrupted placement data (a cycle or a
	// dangling sponsor reference). Fatal for the rollover: payouts over a
	// corrupted graph cannot be trusted.
	ErrGraphIntegrity = errors.New("network graph integrity violation")

	ErrMemberNotFound = errors.New("member not in network graph")
)
