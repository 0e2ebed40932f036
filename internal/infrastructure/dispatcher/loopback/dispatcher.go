package dispatcher

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message is a dispatched message kept for inspection.
type Message struct {
	MessageId          string
	DestinationChainId uint64
	Target             common.Address
	Payload            []byte
}

// Service is a loopback transport: it records messages locally and
// assigns a fresh correlation id to every dispatch, identical inputs
// included.
type Service struct {
	lock     sync.Mutex
	messages []Message
}

func NewService() *Service {
	return &Service{}
}

func (s *Service) DispatchMessage(
	ctx context.Context, destinationChainId uint64,
	target common.Address, payload []byte,
) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	messageId := uuid.New().String()
	s.messages = append(s.messages, Message{
		MessageId:          messageId,
		DestinationChainId: destinationChainId,
		Target:             target,
		Payload:            append([]byte{}, payload...),
	})
	log.Debugf("dispatched message %s to chain %d", messageId, destinationChainId)
	return messageId, nil
}

// Messages returns all dispatched messages in order.
func (s *Service) Messages() []Message {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Message{}, s.messages...)
}
