package pass

import "errors"

var (
	// ErrNotFound covers a missing pass, a missing store, and an inactive
	// store alike, so a scan result does not leak which lookup failed.
	ErrNotFound = errors.New("pass not found or inactive")

	// ErrAlreadyUsed is reported to the loser of a redemption race.
	ErrAlreadyUsed = errors.New("pass already used")

	// ErrExpired is the one failure distinguished from the others for UX.
	ErrExpired = errors.New("pass has expired")

	// ErrInvalidStore means the scanned code identifies a different venue
	// than the pass belongs to.
	ErrInvalidStore = errors.New("invalid store for this pass")
)
