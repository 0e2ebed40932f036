package domain

import "errors"

// Domain errors are exported sentinels so that callers can match them
// with errors.Is. Call sites wrap them with the offending values.
var (
	// Configuration errors, detected at construction and never retried.
	ErrAuctionDurationZero  = errors.New("auction duration must be greater than zero")
	ErrTooFewPhases         = errors.New("at least two auction phases are required")
	ErrZeroAddress          = errors.New("address must not be zero")
	ErrInvalidRewardPortion = errors.New("reward portion must be between 0 and 1")

	// Authorization errors, rejected synchronously with no state change.
	ErrUnauthorizedCaller = errors.New("caller is not authorized")

	// Ordering and replay errors. The first valid caller wins, later
	// callers fail fast with one of these.
	ErrNoAuctionInProgress  = errors.New("no auction in progress")
	ErrRngAlreadyRequested  = errors.New("rng already requested for this auction")
	ErrRngNotCompleted      = errors.New("rng request not completed")
	ErrDrawAlreadyCompleted = errors.New("draw already completed")
	ErrAlreadyRelayed       = errors.New("auction result already relayed")
	ErrAuctionNotCompleted  = errors.New("draw auction not completed")

	// Timing errors. A missed window is terminal for that opportunity.
	ErrOutOfWindow        = errors.New("elapsed time out of auction window")
	ErrAuctionExpired     = errors.New("rng auction window expired")
	ErrDrawAuctionExpired = errors.New("draw auction window expired")
	ErrBeforeGenesis      = errors.New("timestamp precedes protocol genesis")

	// Resource errors. A failed withdrawal aborts the whole distribution.
	ErrInsufficientReserve = errors.New("insufficient reserve")
	ErrRewardOverflow      = errors.New("computed reward overflows maximum amount")

	ErrPhaseIndexOutOfRange = errors.New("phase index out of range")
)
