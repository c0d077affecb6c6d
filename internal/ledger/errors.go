package ledger

import "errors"

// Every failure the ledger can report. All are returned as values and
// compared with errors.Is; none is retried by the ledger itself.
var (
	ErrNotRegistered     = errors.New("ledger: caller is not registered")
	ErrAlreadyRegistered = errors.New("ledger: caller is already registered")
	ErrNotSeller         = errors.New("ledger: caller is not a seller")
	ErrNotBuyer          = errors.New("ledger: caller is not a buyer")
	ErrListingNotFound   = errors.New("ledger: listing not found")
	ErrOutOfStock        = errors.New("ledger: listing is out of stock")

	// ErrIndexOverflow means a record counter would wrap. It signals a
	// capacity limit, not a logic bug, and is never silently saturated.
	ErrIndexOverflow = errors.New("ledger: record index overflow")
)
