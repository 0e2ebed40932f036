package rngservice

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pooldraw-network/pooldraw/internal/core/ports"
)

type request struct {
	requestedAt  int64
	randomNumber uint64
}

// service is a local randomness backend: every request is fulfilled
// after a fixed delay with a crypto/rand value. Request ids increase
// strictly across requests.
type service struct {
	clock        ports.Clock
	fulfillDelay int64

	lock          sync.Mutex
	lastRequestId uint64
	requests      map[uint64]request
}

func NewService(clock ports.Clock, fulfillDelaySeconds int64) (ports.RngService, error) {
	if fulfillDelaySeconds < 0 {
		return nil, fmt.Errorf("invalid fulfill delay: %d", fulfillDelaySeconds)
	}
	return &service{
		clock:        clock,
		fulfillDelay: fulfillDelaySeconds,
		requests:     make(map[uint64]request),
	}, nil
}

func (s *service) RequestRandomNumber(ctx context.Context) (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to generate random number: %s", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastRequestId++
	s.requests[s.lastRequestId] = request{
		requestedAt:  s.clock.Now().Unix(),
		randomNumber: binary.BigEndian.Uint64(buf[:]),
	}
	return s.lastRequestId, nil
}

func (s *service) IsCompleted(ctx context.Context, requestId uint64) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	req, ok := s.requests[requestId]
	if !ok {
		return false, fmt.Errorf("unknown rng request %d", requestId)
	}
	return s.clock.Now().Unix() >= req.requestedAt+s.fulfillDelay, nil
}

func (s *service) CompletedAt(ctx context.Context, requestId uint64) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	req, ok := s.requests[requestId]
	if !ok {
		return 0, fmt.Errorf("unknown rng request %d", requestId)
	}
	if s.clock.Now().Unix() < req.requestedAt+s.fulfillDelay {
		return 0, fmt.Errorf("rng request %d not completed yet", requestId)
	}
	return req.requestedAt + s.fulfillDelay, nil
}

func (s *service) RandomNumber(ctx context.Context, requestId uint64) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	req, ok := s.requests[requestId]
	if !ok {
		return 0, fmt.Errorf("unknown rng request %d", requestId)
	}
	if s.clock.Now().Unix() < req.requestedAt+s.fulfillDelay {
		return 0, fmt.Errorf("rng request %d not completed yet", requestId)
	}
	return req.randomNumber, nil
}
