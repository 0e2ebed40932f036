package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// portionPrecision is the number of decimal digits carried by reward
// portions. Remote counterparts must use the same precision to
// reproduce identical values from the same inputs.
const portionPrecision = 18

// RewardPortion maps the time elapsed within an auction window to the
// fraction of the reserve earned by whoever completes the phase at
// that moment. The curve is linear, monotonically non-decreasing and
// bounded in [0, 1]: a completer at the window open earns 0, a
// completer at the deadline earns the full portion. The shape is fixed
// for the whole protocol instance.
func RewardPortion(elapsed, duration int64) (decimal.Decimal, error) {
	if duration <= 0 {
		return decimal.Zero, fmt.Errorf("%w: got %d", ErrAuctionDurationZero, duration)
	}
	if elapsed < 0 || elapsed > duration {
		return decimal.Zero, fmt.Errorf(
			"%w: elapsed %d with duration %d", ErrOutOfWindow, elapsed, duration,
		)
	}
	return decimal.NewFromInt(elapsed).DivRound(
		decimal.NewFromInt(duration), portionPrecision,
	), nil
}
