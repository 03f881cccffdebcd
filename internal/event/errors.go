package event

import "errors"

var (
	// ErrDateResolutionFailed is returned when date components are missing or
	// cannot be turned into a calendar date.
	ErrDateResolutionFailed = errors.New("date resolution failed")

	// ErrEssentialDataMissing is returned when the title or date of an event
	// is absent.
	ErrEssentialDataMissing = errors.New("essential event data missing")

	// ErrDetailFetchFailed marks a failed detail page fetch. It never stops
	// an event from being built.
	ErrDetailFetchFailed = errors.New("detail fetch failed")

	// ErrStorageUnavailable is returned by snapshot stores that hold no prior
	// snapshot. Callers treat it as an empty previous collection.
	ErrStorageUnavailable = errors.New("no snapshot available")
)
