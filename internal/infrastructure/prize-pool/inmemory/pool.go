package prizepool

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// Service is a local reserve account. Snapshot and withdrawal are
// atomic within one call, a withdrawal exceeding the balance fails
// without mutating it.
type Service struct {
	lock    sync.Mutex
	reserve uint64

	closedDraws []uint64
	withdrawals map[common.Address]uint64
}

func NewService(initialReserve uint64) *Service {
	return &Service{
		reserve:     initialReserve,
		withdrawals: make(map[common.Address]uint64),
	}
}

func (s *Service) CloseDraw(ctx context.Context, randomNumber uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closedDraws = append(s.closedDraws, randomNumber)
	log.Debugf("draw %d closed with random number %d", len(s.closedDraws), randomNumber)
	return nil
}

func (s *Service) Reserve(ctx context.Context) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reserve, nil
}

func (s *Service) WithdrawReserve(
	ctx context.Context, recipient common.Address, amount uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if amount > s.reserve {
		return fmt.Errorf(
			"%w: requested %d with balance %d", domain.ErrInsufficientReserve, amount, s.reserve,
		)
	}
	s.reserve -= amount
	s.withdrawals[recipient] += amount
	return nil
}

func (s *Service) DepositReserve(ctx context.Context, amount uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.reserve += amount
	return nil
}

// Fund tops the reserve up, for local runs and tests.
func (s *Service) Fund(amount uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.reserve += amount
}

// Withdrawn returns the total paid to the given recipient.
func (s *Service) Withdrawn(recipient common.Address) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.withdrawals[recipient]
}

// ClosedDraws returns the random numbers of all closed draws in order.
func (s *Service) ClosedDraws() []uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]uint64{}, s.closedDraws...)
}
