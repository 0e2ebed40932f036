package domain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestPhases(t *testing.T) {
	t.Run("new", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)
		require.Len(t, phases, 2)

		_, err = domain.NewPhases(1)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrTooFewPhases)
	})

	t.Run("set_and_get", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)

		err = phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.1"),
			Recipient:     alice,
		})
		require.NoError(t, err)

		phase, err := phases.Get(0)
		require.NoError(t, err)
		require.Equal(t, alice, phase.Recipient)
		require.True(t, phase.RewardPortion.Equal(decimal.RequireFromString("0.1")))

		_, err = phases.Get(2)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrPhaseIndexOutOfRange)

		err = phases.Set(-1, domain.Phase{})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrPhaseIndexOutOfRange)
	})

	t.Run("set_invalid_phase", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)

		err = phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("1.1"),
			Recipient:     alice,
		})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrInvalidRewardPortion)

		err = phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("-0.1"),
			Recipient:     alice,
		})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrInvalidRewardPortion)

		err = phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.5"),
		})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrZeroAddress)
	})

	t.Run("reset", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)

		require.NoError(t, phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.1"),
			Recipient:     alice,
		}))

		phases.Reset()
		require.Len(t, phases, 2)

		phase, err := phases.Get(0)
		require.NoError(t, err)
		require.Equal(t, domain.Phase{}, phase)
	})
}

func TestPhaseRewards(t *testing.T) {
	t.Run("portions_apply_to_snapshot", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)
		require.NoError(t, phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.1"),
			Recipient:     alice,
		}))
		require.NoError(t, phases.Set(1, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.2"),
			Recipient:     bob,
		}))

		rewards, err := phases.Rewards(1000)
		require.NoError(t, err)
		require.Equal(t, []uint64{100, 200}, rewards)
	})

	t.Run("rounds_down", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)
		require.NoError(t, phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.333333333333333333"),
			Recipient:     alice,
		}))
		require.NoError(t, phases.Set(1, domain.Phase{
			RewardPortion: decimal.RequireFromString("0.5"),
			Recipient:     bob,
		}))

		rewards, err := phases.Rewards(10)
		require.NoError(t, err)
		require.Equal(t, []uint64{3, 5}, rewards)
	})

	t.Run("never_exceeds_snapshot", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)
		require.NoError(t, phases.Set(0, domain.Phase{
			RewardPortion: decimal.RequireFromString("1"),
			Recipient:     alice,
		}))
		require.NoError(t, phases.Set(1, domain.Phase{
			RewardPortion: decimal.RequireFromString("1"),
			Recipient:     bob,
		}))

		rewards, err := phases.Rewards(1000)
		require.NoError(t, err)
		require.Equal(t, []uint64{1000, 0}, rewards)

		total := uint64(0)
		for _, r := range rewards {
			total += r
		}
		require.LessOrEqual(t, total, uint64(1000))
	})

	t.Run("overflow_fails", func(t *testing.T) {
		// A portion above 1 cannot enter through Set, but a corrupted
		// record must still fail loudly instead of wrapping.
		phases := domain.Phases{
			{RewardPortion: decimal.NewFromInt(2), Recipient: alice},
			{RewardPortion: decimal.RequireFromString("0.5"), Recipient: bob},
		}

		_, err := phases.Rewards(^uint64(0))
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrRewardOverflow)
	})

	t.Run("empty_slots_pay_nothing", func(t *testing.T) {
		phases, err := domain.NewPhases(2)
		require.NoError(t, err)

		rewards, err := phases.Rewards(1000)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 0}, rewards)
	})
}
