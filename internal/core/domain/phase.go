package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Phase is a discrete rewarded step in completing a draw, attributable
// to exactly one completer.
type Phase struct {
	RewardPortion decimal.Decimal
	Recipient     common.Address
}

func (p Phase) validate() error {
	if p.RewardPortion.IsNegative() || p.RewardPortion.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrInvalidRewardPortion, p.RewardPortion)
	}
	if p.Recipient == (common.Address{}) {
		return fmt.Errorf("%w: phase recipient", ErrZeroAddress)
	}
	return nil
}

// Phases is a fixed-capacity ordered list of auction phases indexed by
// phase number. The capacity is set at construction and never changes,
// slots are overwritten in place between auction cycles.
type Phases []Phase

func NewPhases(size int) (Phases, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPhases, size)
	}
	return make(Phases, size), nil
}

func (p Phases) Get(index int) (Phase, error) {
	if index < 0 || index >= len(p) {
		return Phase{}, fmt.Errorf("%w: index %d with %d phases", ErrPhaseIndexOutOfRange, index, len(p))
	}
	return p[index], nil
}

func (p Phases) Set(index int, phase Phase) error {
	if index < 0 || index >= len(p) {
		return fmt.Errorf("%w: index %d with %d phases", ErrPhaseIndexOutOfRange, index, len(p))
	}
	if err := phase.validate(); err != nil {
		return err
	}
	p[index] = phase
	return nil
}

// Reset clears all slots without resizing the list.
func (p Phases) Reset() {
	for i := range p {
		p[i] = Phase{}
	}
}

// Rewards converts the recorded portions into absolute amounts payable
// from the given reserve snapshot. Every portion applies against the
// full snapshot, in phase order, and each amount is clamped to the
// balance left un-withdrawn by earlier phases so that the total can
// never exceed the snapshot. An amount that does not fit an unsigned
// 64-bit integer fails with ErrRewardOverflow instead of wrapping.
func (p Phases) Rewards(reserve uint64) ([]uint64, error) {
	base := decimal.NewFromUint64(reserve)
	remaining := reserve
	rewards := make([]uint64, len(p))
	for i, phase := range p {
		amount := phase.RewardPortion.Mul(base).Floor()
		bigAmount := amount.BigInt()
		if !bigAmount.IsUint64() {
			return nil, fmt.Errorf("%w: phase %d amount %s", ErrRewardOverflow, i, amount)
		}
		reward := bigAmount.Uint64()
		if reward > remaining {
			reward = remaining
		}
		rewards[i] = reward
		remaining -= reward
	}
	return rewards, nil
}
