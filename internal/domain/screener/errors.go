package screener

import "errors"

var (
	// ErrNotStarted is returned when completing a referral that has no
	// screener session.
	ErrNotStarted = errors.New("screener session not started")

	// ErrAlreadyCompleted is returned on writes to a completed session.
	ErrAlreadyCompleted = errors.New("screener session already completed")

	// ErrTooFewMessages is returned when completing a session with
	// fewer than the minimum user messages.
	ErrTooFewMessages = errors.New("screener session needs at least 3 user messages")
)
