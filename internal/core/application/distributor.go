package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// RewardDistributor settles a completed draw auction directly on the
// prize pool: it closes the draw with the random number, snapshots the
// reserve and withdraws every phase's reward to its recipient.
//
// The distributor is the only component allowed to withdraw from the
// reserve and it is serialized behind its own mutex, so two
// distributions can never apply portions to the same reserve snapshot
// concurrently.
type RewardDistributor struct {
	pool  ports.PrizePoolService
	clock ports.Clock

	lock sync.Mutex
}

func NewRewardDistributor(pool ports.PrizePoolService, clock ports.Clock) *RewardDistributor {
	return &RewardDistributor{pool: pool, clock: clock}
}

// OnDrawFinalized implements ports.DrawFinalizer.
//
// Portions apply against the reserve as it stood before any withdrawal
// in this batch, withdrawals are issued sequentially in phase order and
// each amount is clamped so the total never exceeds the snapshot. Any
// withdrawal failure aborts the whole distribution: withdrawals already
// issued in the batch are deposited back into the reserve, no settlement
// event is returned and the caller must treat the completion as failed,
// so a retry pays every phase against an intact reserve.
func (d *RewardDistributor) OnDrawFinalized(
	ctx context.Context, auction *domain.Auction,
) ([]domain.AuctionEvent, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if err := d.pool.CloseDraw(ctx, auction.RandomNumber); err != nil {
		return nil, fmt.Errorf("failed to close draw: %s", err)
	}

	reserve, err := d.pool.Reserve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read reserve: %s", err)
	}

	rewards, err := auction.Phases.Rewards(reserve)
	if err != nil {
		return nil, err
	}

	withdrawn := uint64(0)
	payouts := make([]domain.Payout, 0, len(rewards))
	for i, amount := range rewards {
		phase, err := auction.Phases.Get(i)
		if err != nil {
			d.compensate(ctx, withdrawn)
			return nil, err
		}
		if amount > 0 {
			if err := d.pool.WithdrawReserve(ctx, phase.Recipient, amount); err != nil {
				d.compensate(ctx, withdrawn)
				return nil, fmt.Errorf("distribution aborted at phase %d: %w", i, err)
			}
			withdrawn += amount
		}
		payouts = append(payouts, domain.Payout{
			PhaseIndex: i,
			Recipient:  phase.Recipient,
			Amount:     amount,
		})
		log.Debugf("distributed %d to %s for phase %d", amount, phase.Recipient, i)
	}

	return auction.SettleWithDistribution(reserve, payouts, d.clock.Now().Unix())
}

func (d *RewardDistributor) compensate(ctx context.Context, amount uint64) {
	if amount == 0 {
		return
	}
	if err := d.pool.DepositReserve(ctx, amount); err != nil {
		log.WithError(err).Warnf(
			"failed to deposit %d back into the reserve after aborted distribution", amount,
		)
	}
}
