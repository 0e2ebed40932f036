package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// localPhases is the number of rewarded phases settled on this chain:
// the rng request and the draw completion.
const localPhases = 2

type Service interface {
	Start() error
	Stop()

	// StartRngAuction requests a random number for the current cycle
	// and records the caller-supplied recipient as phase 0. Calling it
	// again while the request is pending is a no-op returning the same
	// request id.
	StartRngAuction(ctx context.Context, recipient common.Address) (uint64, error)
	// CanCompleteDraw re-evaluates the CompleteDraw predicates without
	// mutating state, for off-path polling.
	CanCompleteDraw(ctx context.Context) (bool, error)
	// CompleteDraw finalizes the current cycle's draw, records the
	// caller-supplied recipient as phase 1 and invokes the configured
	// finalizer with the random number.
	CompleteDraw(ctx context.Context, caller, recipient common.Address) (*domain.Auction, error)

	SetDrawCloser(ctx context.Context, caller, closer common.Address) error
	GetDrawCloser(ctx context.Context) common.Address

	GetCurrentAuction(ctx context.Context) (*domain.Auction, error)
	GetAuctionWithSequence(ctx context.Context, sequence uint64) (*domain.Auction, error)
	GetEventsChannel(ctx context.Context) <-chan domain.AuctionEvent
}

// AutoPilot makes the daemon race for the auction rewards itself:
// every interval it starts the rng auction for the current cycle and
// completes the draw as soon as the predicates allow, crediting the
// configured recipient.
type AutoPilot struct {
	Enabled         bool
	IntervalSeconds int64
	Recipient       common.Address
}

type service struct {
	genesis        int64
	sequencePeriod int64
	rngDuration    int64
	drawDuration   int64
	owner          common.Address

	rng         ports.RngService
	repoManager ports.RepoManager
	finalizer   ports.DrawFinalizer
	clock       ports.Clock
	scheduler   ports.SchedulerService
	autoPilot   AutoPilot

	// Every state-mutating call runs to completion before another one
	// observes the aggregate. Racing callers are resolved by the
	// aggregate's stage guards, not by waiting.
	lock    sync.Mutex
	current *domain.Auction

	closerLock sync.RWMutex
	drawCloser common.Address

	eventsCh chan domain.AuctionEvent
}

func NewService(
	genesisTimestamp, sequencePeriod, rngAuctionDuration, drawAuctionDuration int64,
	owner, drawCloser common.Address,
	rngSvc ports.RngService, repoManager ports.RepoManager,
	finalizer ports.DrawFinalizer, clock ports.Clock,
	scheduler ports.SchedulerService, autoPilot AutoPilot,
) (Service, error) {
	if sequencePeriod <= 0 {
		return nil, fmt.Errorf("%w: sequence period %d", domain.ErrAuctionDurationZero, sequencePeriod)
	}
	if rngAuctionDuration <= 0 {
		return nil, fmt.Errorf("%w: rng auction duration %d", domain.ErrAuctionDurationZero, rngAuctionDuration)
	}
	if drawAuctionDuration <= 0 {
		return nil, fmt.Errorf("%w: draw auction duration %d", domain.ErrAuctionDurationZero, drawAuctionDuration)
	}
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: owner", domain.ErrZeroAddress)
	}
	if autoPilot.Enabled {
		if autoPilot.Recipient == (common.Address{}) {
			return nil, fmt.Errorf("%w: auto-pilot recipient", domain.ErrZeroAddress)
		}
		if autoPilot.IntervalSeconds <= 0 {
			return nil, fmt.Errorf("%w: auto-pilot interval %d", domain.ErrAuctionDurationZero, autoPilot.IntervalSeconds)
		}
	}

	svc := &service{
		genesis:        genesisTimestamp,
		sequencePeriod: sequencePeriod,
		rngDuration:    rngAuctionDuration,
		drawDuration:   drawAuctionDuration,
		owner:          owner,
		rng:            rngSvc,
		repoManager:    repoManager,
		finalizer:      finalizer,
		clock:          clock,
		scheduler:      scheduler,
		autoPilot:      autoPilot,
		drawCloser:     drawCloser,
		eventsCh:       make(chan domain.AuctionEvent, 32),
	}
	repoManager.RegisterEventsHandler(func(auction *domain.Auction) {
		svc.updateProjectionStore(auction)
		svc.propagateEvents(auction)
	})
	return svc, nil
}

func (s *service) Start() error {
	log.Debug("starting app service")

	ctx := context.Background()
	if auction, err := s.repoManager.Auctions().GetCurrentAuction(ctx); err == nil {
		restored, err := s.repoManager.Events().Load(ctx, auction.Id)
		if err != nil {
			return fmt.Errorf("failed to restore auction %s: %s", auction.Id, err)
		}
		s.current = restored
		log.Debugf("restored auction %s for sequence %d", restored.Id, restored.Sequence)
	}

	if s.scheduler != nil {
		if s.autoPilot.Enabled {
			if err := s.scheduler.ScheduleTask(
				s.autoPilot.IntervalSeconds, true, s.autoPilotTick,
			); err != nil {
				return err
			}
			log.Debugf("auto-pilot scheduled every %ds", s.autoPilot.IntervalSeconds)
		}
		s.scheduler.Start()
	}
	return nil
}

func (s *service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) StartRngAuction(ctx context.Context, recipient common.Address) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if recipient == (common.Address{}) {
		return 0, fmt.Errorf("%w: rng reward recipient", domain.ErrZeroAddress)
	}

	now := s.clock.Now().Unix()
	sequence, err := domain.SequenceAt(s.genesis, s.sequencePeriod, now)
	if err != nil {
		return 0, err
	}

	auction := s.current
	if auction != nil && auction.Sequence == sequence && !auction.IsFailed() {
		if auction.RngRequestId != 0 {
			// Pending or fulfilled request for this cycle, idempotent.
			return auction.RngRequestId, nil
		}
	} else {
		auction, err = domain.NewAuction(
			sequence, domain.SequenceStart(s.genesis, s.sequencePeriod, sequence),
			s.rngDuration, s.drawDuration, localPhases,
		)
		if err != nil {
			return 0, err
		}
		if _, err := auction.Start(now); err != nil {
			return 0, err
		}
	}

	requestId, err := s.rng.RequestRandomNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to request random number: %s", err)
	}

	if _, err := auction.RequestRng(requestId, recipient, now); err != nil {
		return 0, err
	}

	if err := s.repoManager.Events().Save(ctx, auction.Id, auction.Events()...); err != nil {
		return 0, fmt.Errorf("failed to store auction events: %s", err)
	}
	s.current = auction

	log.Debugf(
		"rng requested for sequence %d: request %d, recipient %s",
		sequence, requestId, recipient,
	)
	return requestId, nil
}

func (s *service) CanCompleteDraw(ctx context.Context) (bool, error) {
	s.lock.Lock()
	auction := s.current
	s.lock.Unlock()

	if auction == nil || !auction.IsRngRequested() {
		return false, nil
	}

	completed, err := s.rng.IsCompleted(ctx, auction.RngRequestId)
	if err != nil {
		return false, fmt.Errorf("failed to read rng status: %s", err)
	}
	if !completed {
		return false, nil
	}

	completedAt, err := s.rng.CompletedAt(ctx, auction.RngRequestId)
	if err != nil {
		return false, fmt.Errorf("failed to read rng completion time: %s", err)
	}
	return auction.DrawWindowOpen(completedAt, s.clock.Now().Unix()), nil
}

func (s *service) CompleteDraw(
	ctx context.Context, caller, recipient common.Address,
) (*domain.Auction, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.authorizeCloser(caller); err != nil {
		return nil, err
	}

	auction := s.current
	if auction == nil {
		return nil, domain.ErrNoAuctionInProgress
	}
	if auction.IsDrawCompleted() || auction.IsEnded() {
		return nil, fmt.Errorf("%w: request %d", domain.ErrDrawAlreadyCompleted, auction.RngRequestId)
	}
	if !auction.IsRngRequested() {
		return nil, domain.ErrNoAuctionInProgress
	}

	completed, err := s.rng.IsCompleted(ctx, auction.RngRequestId)
	if err != nil {
		return nil, fmt.Errorf("failed to read rng status: %s", err)
	}
	if !completed {
		return nil, fmt.Errorf("%w: request %d", domain.ErrRngNotCompleted, auction.RngRequestId)
	}

	completedAt, err := s.rng.CompletedAt(ctx, auction.RngRequestId)
	if err != nil {
		return nil, fmt.Errorf("failed to read rng completion time: %s", err)
	}
	randomNumber, err := s.rng.RandomNumber(ctx, auction.RngRequestId)
	if err != nil {
		return nil, fmt.Errorf("failed to read random number: %s", err)
	}

	// The finalizer may fail after the draw transition. Nothing is
	// persisted until the whole completion succeeds, the in-memory
	// aggregate is restored from its last saved events on failure.
	checkpoint := len(auction.Events())
	now := s.clock.Now().Unix()

	if _, err := auction.CompleteDraw(randomNumber, completedAt, caller, recipient, now); err != nil {
		return nil, err
	}

	if _, err := s.finalizer.OnDrawFinalized(ctx, auction); err != nil {
		s.current = domain.NewAuctionFromEvents(auction.Events()[:checkpoint])
		return nil, fmt.Errorf("draw finalization aborted: %w", err)
	}

	if err := s.repoManager.Events().Save(ctx, auction.Id, auction.Events()...); err != nil {
		return nil, fmt.Errorf("failed to store auction events: %s", err)
	}

	phase, _ := auction.Phases.Get(1)
	log.Debugf(
		"draw completed for sequence %d by %s: request %d, recipient %s, portion %s",
		auction.Sequence, caller, auction.RngRequestId, recipient, phase.RewardPortion,
	)
	return auction, nil
}

func (s *service) SetDrawCloser(ctx context.Context, caller, closer common.Address) error {
	if caller != s.owner {
		return fmt.Errorf("%w: %s is not the owner", domain.ErrUnauthorizedCaller, caller)
	}
	if closer == (common.Address{}) {
		return fmt.Errorf("%w: draw closer", domain.ErrZeroAddress)
	}

	s.closerLock.Lock()
	defer s.closerLock.Unlock()
	s.drawCloser = closer
	log.Debugf("draw closer set to %s", closer)
	return nil
}

func (s *service) GetDrawCloser(_ context.Context) common.Address {
	s.closerLock.RLock()
	defer s.closerLock.RUnlock()
	return s.drawCloser
}

func (s *service) GetCurrentAuction(ctx context.Context) (*domain.Auction, error) {
	s.lock.Lock()
	auction := s.current
	s.lock.Unlock()

	if auction != nil {
		return auction, nil
	}
	return s.repoManager.Auctions().GetCurrentAuction(ctx)
}

func (s *service) GetAuctionWithSequence(ctx context.Context, sequence uint64) (*domain.Auction, error) {
	s.lock.Lock()
	auction := s.current
	s.lock.Unlock()

	if auction != nil && auction.Sequence == sequence {
		return auction, nil
	}
	return s.repoManager.Auctions().GetAuctionWithSequence(ctx, sequence)
}

func (s *service) GetEventsChannel(ctx context.Context) <-chan domain.AuctionEvent {
	return s.eventsCh
}

func (s *service) authorizeCloser(caller common.Address) error {
	s.closerLock.RLock()
	defer s.closerLock.RUnlock()

	if caller == (common.Address{}) {
		return fmt.Errorf("%w: caller", domain.ErrZeroAddress)
	}
	if s.drawCloser == (common.Address{}) {
		// Open competition: anyone may race to close the draw.
		return nil
	}
	if caller != s.drawCloser && caller != s.owner {
		return fmt.Errorf("%w: %s is not the draw closer", domain.ErrUnauthorizedCaller, caller)
	}
	return nil
}

func (s *service) autoPilotTick() {
	ctx := context.Background()

	if _, err := s.StartRngAuction(ctx, s.autoPilot.Recipient); err != nil {
		log.WithError(err).Debug("auto-pilot: rng auction not started")
	}

	ok, err := s.CanCompleteDraw(ctx)
	if err != nil {
		log.WithError(err).Warn("auto-pilot: failed to poll draw predicates")
		return
	}
	if !ok {
		return
	}
	if _, err := s.CompleteDraw(ctx, s.owner, s.autoPilot.Recipient); err != nil {
		log.WithError(err).Warn("auto-pilot: failed to complete draw")
	}
}

func (s *service) updateProjectionStore(auction *domain.Auction) {
	ctx := context.Background()
	if err := s.repoManager.Auctions().AddOrUpdateAuction(ctx, *auction); err != nil {
		log.WithError(err).Warn("failed to update auction projection")
	}
}

func (s *service) propagateEvents(auction *domain.Auction) {
	events := auction.Events()
	if len(events) == 0 {
		return
	}
	lastEvent := events[len(events)-1]
	switch lastEvent.(type) {
	case domain.RngRequested, domain.DrawCompleted,
		domain.RewardsDistributed, domain.RelayDispatched, domain.AuctionFailed:
		select {
		case s.eventsCh <- lastEvent:
		default:
		}
	}
}
