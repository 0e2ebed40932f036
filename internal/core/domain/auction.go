package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const (
	UndefinedStage AuctionStage = iota
	RngStage
	DrawStage
)

type AuctionStage int

func (s AuctionStage) String() string {
	switch s {
	case RngStage:
		return "RNG_STAGE"
	case DrawStage:
		return "DRAW_STAGE"
	default:
		return "UNDEFINED_STAGE"
	}
}

type Stage struct {
	Code   AuctionStage
	Ended  bool
	Failed bool
}

// Auction tracks one draw cycle: the rng request phase, the draw
// completion phase and the final settlement. A new cycle starts a new
// aggregate and invalidates the actionability of the previous one,
// which stays around as historical record.
type Auction struct {
	Id              string
	Sequence        uint64
	WindowStart     int64
	RngDuration     int64
	DrawDuration    int64
	RngRequestId    uint64
	RngCompletedAt  int64
	RandomNumber    uint64
	DrawCompletedAt int64
	Phases          Phases
	Stage           Stage
	Version         uint
	Changes         []AuctionEvent
}

func NewAuction(sequence uint64, windowStart, rngDuration, drawDuration int64, numPhases int) (*Auction, error) {
	if rngDuration <= 0 {
		return nil, fmt.Errorf("%w: rng auction duration %d", ErrAuctionDurationZero, rngDuration)
	}
	if drawDuration <= 0 {
		return nil, fmt.Errorf("%w: draw auction duration %d", ErrAuctionDurationZero, drawDuration)
	}
	phases, err := NewPhases(numPhases)
	if err != nil {
		return nil, err
	}
	return &Auction{
		Id:           uuid.New().String(),
		Sequence:     sequence,
		WindowStart:  windowStart,
		RngDuration:  rngDuration,
		DrawDuration: drawDuration,
		Phases:       phases,
		Changes:      make([]AuctionEvent, 0),
	}, nil
}

func NewAuctionFromEvents(events []AuctionEvent) *Auction {
	a := &Auction{}

	for _, event := range events {
		a.On(event, true)
	}

	a.Changes = append([]AuctionEvent{}, events...)

	return a
}

func (a *Auction) On(event AuctionEvent, replayed bool) {
	switch e := event.(type) {
	case AuctionStarted:
		a.Stage.Code = RngStage
		a.Id = e.Id
		a.Sequence = e.Sequence
		a.WindowStart = e.WindowStart
		a.RngDuration = e.RngDuration
		a.DrawDuration = e.DrawDuration
		if len(a.Phases) != e.NumPhases {
			a.Phases = make(Phases, e.NumPhases)
		}
		a.Phases.Reset()
	case RngRequested:
		a.RngRequestId = e.RequestId
		//nolint:all
		a.Phases.Set(0, Phase{RewardPortion: e.RewardPortion, Recipient: e.Recipient})
	case DrawCompleted:
		a.Stage.Code = DrawStage
		a.RngCompletedAt = e.RngCompletedAt
		a.RandomNumber = e.RandomNumber
		a.DrawCompletedAt = e.Timestamp
		//nolint:all
		a.Phases.Set(1, Phase{RewardPortion: e.RewardPortion, Recipient: e.Recipient})
	case RewardsDistributed, RelayDispatched:
		a.Stage.Ended = true
	case AuctionFailed:
		a.Stage.Failed = true
	}

	if replayed {
		a.Version++
	}
}

// Start opens the rng auction window for this cycle.
func (a *Auction) Start(now int64) ([]AuctionEvent, error) {
	empty := Stage{}
	if a.Stage != empty {
		return nil, fmt.Errorf("not in a valid stage to start the auction")
	}

	event := AuctionStarted{
		Id:           a.Id,
		Sequence:     a.Sequence,
		WindowStart:  a.WindowStart,
		RngDuration:  a.RngDuration,
		DrawDuration: a.DrawDuration,
		NumPhases:    len(a.Phases),
		Timestamp:    now,
	}
	a.raise(event)

	return []AuctionEvent{event}, nil
}

// RequestRng records phase 0: the given request id obtained from the
// randomness service and the reward portion earned by whoever
// triggered the request at this point of the window.
func (a *Auction) RequestRng(requestId uint64, recipient common.Address, now int64) ([]AuctionEvent, error) {
	if a.Stage.Code != RngStage || a.IsFailed() {
		return nil, fmt.Errorf("not in a valid stage to request randomness")
	}
	if a.RngRequestId != 0 {
		return nil, fmt.Errorf("%w: request %d", ErrRngAlreadyRequested, a.RngRequestId)
	}
	if recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: rng reward recipient", ErrZeroAddress)
	}

	elapsed := now - a.WindowStart
	if elapsed > a.RngDuration {
		return nil, fmt.Errorf("%w: sequence %d opened at %d", ErrAuctionExpired, a.Sequence, a.WindowStart)
	}
	portion, err := RewardPortion(elapsed, a.RngDuration)
	if err != nil {
		return nil, err
	}

	event := RngRequested{
		Id:            a.Id,
		RequestId:     requestId,
		Recipient:     recipient,
		RewardPortion: portion,
		Timestamp:     now,
	}
	a.raise(event)

	return []AuctionEvent{event}, nil
}

// CompleteDraw records phase 1. Phase 0 is preserved verbatim so that
// both completers settle jointly downstream. The draw window opens at
// the rng fulfillment timestamp, a completer past the deadline
// forfeits the reward opportunity for this cycle.
func (a *Auction) CompleteDraw(
	randomNumber uint64, rngCompletedAt int64,
	caller, recipient common.Address, now int64,
) ([]AuctionEvent, error) {
	if a.Stage.Code == DrawStage {
		return nil, fmt.Errorf("%w: request %d", ErrDrawAlreadyCompleted, a.RngRequestId)
	}
	if a.Stage.Code != RngStage || a.IsFailed() || a.RngRequestId == 0 {
		return nil, fmt.Errorf("not in a valid stage to complete the draw")
	}
	if recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: draw reward recipient", ErrZeroAddress)
	}

	elapsed := now - rngCompletedAt
	if elapsed > a.DrawDuration {
		return nil, fmt.Errorf(
			"%w: rng completed at %d, draw window is %ds", ErrDrawAuctionExpired, rngCompletedAt, a.DrawDuration,
		)
	}
	portion, err := RewardPortion(elapsed, a.DrawDuration)
	if err != nil {
		return nil, err
	}

	event := DrawCompleted{
		Id:             a.Id,
		RequestId:      a.RngRequestId,
		RandomNumber:   randomNumber,
		RngCompletedAt: rngCompletedAt,
		Caller:         caller,
		Recipient:      recipient,
		RewardPortion:  portion,
		Timestamp:      now,
	}
	a.raise(event)

	return []AuctionEvent{event}, nil
}

// SettleWithDistribution closes the cycle with an on-pool payout.
func (a *Auction) SettleWithDistribution(reserve uint64, payouts []Payout, now int64) ([]AuctionEvent, error) {
	if a.Stage.Code != DrawStage || a.IsFailed() {
		return nil, fmt.Errorf("%w: sequence %d", ErrAuctionNotCompleted, a.Sequence)
	}
	if a.Stage.Ended {
		return nil, fmt.Errorf("auction %s already settled", a.Id)
	}

	event := RewardsDistributed{
		Id:        a.Id,
		Reserve:   reserve,
		Payouts:   payouts,
		Timestamp: now,
	}
	a.raise(event)

	return []AuctionEvent{event}, nil
}

// SettleWithRelay closes the cycle with a message dispatched to a
// remote listener. One relay per cycle: a second settlement attempt
// fails with ErrAlreadyRelayed.
func (a *Auction) SettleWithRelay(
	messageId string, destinationChainId uint64,
	remoteOwner, remoteListener, recipient common.Address, now int64,
) ([]AuctionEvent, error) {
	if a.Stage.Code != DrawStage || a.IsFailed() {
		return nil, fmt.Errorf("%w: sequence %d", ErrAuctionNotCompleted, a.Sequence)
	}
	if a.Stage.Ended {
		return nil, fmt.Errorf("%w: sequence %d", ErrAlreadyRelayed, a.Sequence)
	}

	event := RelayDispatched{
		Id:                 a.Id,
		MessageId:          messageId,
		DestinationChainId: destinationChainId,
		RemoteOwner:        remoteOwner,
		RemoteListener:     remoteListener,
		Recipient:          recipient,
		Timestamp:          now,
	}
	a.raise(event)

	return []AuctionEvent{event}, nil
}

func (a *Auction) Fail(err error, now int64) []AuctionEvent {
	if a.Stage.Failed {
		return nil
	}
	event := AuctionFailed{
		Id:        a.Id,
		Reason:    err.Error(),
		Timestamp: now,
	}
	a.raise(event)

	return []AuctionEvent{event}
}

func (a *Auction) IsRngRequested() bool {
	return !a.IsFailed() && a.Stage.Code == RngStage && a.RngRequestId != 0
}

func (a *Auction) IsDrawCompleted() bool {
	return !a.IsFailed() && a.Stage.Code == DrawStage
}

func (a *Auction) IsEnded() bool {
	return !a.IsFailed() && a.Stage.Code == DrawStage && a.Stage.Ended
}

func (a *Auction) IsFailed() bool {
	return a.Stage.Failed
}

// DrawWindowOpen reports whether a draw completion submitted now would
// still fall within the window opened by the rng fulfillment.
func (a *Auction) DrawWindowOpen(rngCompletedAt, now int64) bool {
	elapsed := now - rngCompletedAt
	return elapsed >= 0 && elapsed <= a.DrawDuration
}

func (a *Auction) Events() []AuctionEvent {
	return a.Changes
}

func (a *Auction) raise(event AuctionEvent) {
	if a.Changes == nil {
		a.Changes = make([]AuctionEvent, 0)
	}
	a.Changes = append(a.Changes, event)
	a.On(event, false)
}

// SequenceAt returns the cycle number holding the given timestamp,
// derived from the protocol genesis and the cycle period.
func SequenceAt(genesis, period, now int64) (uint64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: sequence period %d", ErrAuctionDurationZero, period)
	}
	if now < genesis {
		return 0, fmt.Errorf("%w: %d is before %d", ErrBeforeGenesis, now, genesis)
	}
	return uint64((now - genesis) / period), nil
}

// SequenceStart returns the opening timestamp of the given cycle.
func SequenceStart(genesis, period int64, sequence uint64) int64 {
	return genesis + int64(sequence)*period
}
