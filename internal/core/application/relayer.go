package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ListenerPayload is the CBOR document handed to the remote listener.
// Portions travel as decimal strings so that the remote side
// reconstructs the exact values produced by the curve here.
type ListenerPayload struct {
	RandomNumber    uint64         `cbor:"random_number"`
	Phases          []RelayedPhase `cbor:"phases"`
	RewardRecipient common.Address `cbor:"reward_recipient"`
}

type RelayedPhase struct {
	RewardPortion string         `cbor:"reward_portion"`
	Recipient     common.Address `cbor:"recipient"`
}

// relayEnvelope wraps the listener payload for execution as the remote
// owner on the destination chain.
type relayEnvelope struct {
	RemoteOwner    common.Address `cbor:"remote_owner"`
	TargetListener common.Address `cbor:"target_listener"`
	Payload        []byte         `cbor:"payload"`
}

func EncodeListenerPayload(randomNumber uint64, phases domain.Phases, rewardRecipient common.Address) ([]byte, error) {
	relayed := make([]RelayedPhase, len(phases))
	for i, phase := range phases {
		relayed[i] = RelayedPhase{
			RewardPortion: phase.RewardPortion.String(),
			Recipient:     phase.Recipient,
		}
	}
	return cbor.Marshal(ListenerPayload{
		RandomNumber:    randomNumber,
		Phases:          relayed,
		RewardRecipient: rewardRecipient,
	})
}

func DecodeListenerPayload(buf []byte) (*ListenerPayload, domain.Phases, error) {
	payload := &ListenerPayload{}
	if err := cbor.Unmarshal(buf, payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode listener payload: %s", err)
	}
	phases := make(domain.Phases, len(payload.Phases))
	for i, relayed := range payload.Phases {
		portion, err := decimal.NewFromString(relayed.RewardPortion)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid reward portion %q: %s", relayed.RewardPortion, err)
		}
		phases[i] = domain.Phase{RewardPortion: portion, Recipient: relayed.Recipient}
	}
	return payload, phases, nil
}

func DecodeRelayEnvelope(buf []byte) (remoteOwner, targetListener common.Address, payload []byte, err error) {
	envelope := relayEnvelope{}
	if err = cbor.Unmarshal(buf, &envelope); err != nil {
		err = fmt.Errorf("failed to decode relay envelope: %s", err)
		return
	}
	return envelope.RemoteOwner, envelope.TargetListener, envelope.Payload, nil
}

// CrossChainRelayer settles a completed draw auction by forwarding its
// result to a listener on another execution domain. It guarantees
// exactly-once dispatch initiation per auction cycle, end-to-end
// delivery is the transport's business and is not awaited here.
type CrossChainRelayer struct {
	dispatcher ports.MessageDispatcher
	clock      ports.Clock

	destinationChainId uint64
	remoteOwner        common.Address
	remoteListener     common.Address

	lock             sync.Mutex
	consumedSequence map[uint64]struct{}
}

func NewCrossChainRelayer(
	dispatcher ports.MessageDispatcher, clock ports.Clock,
	destinationChainId uint64, remoteOwner, remoteListener common.Address,
) (*CrossChainRelayer, error) {
	if remoteOwner == (common.Address{}) {
		return nil, fmt.Errorf("%w: remote owner", domain.ErrZeroAddress)
	}
	if remoteListener == (common.Address{}) {
		return nil, fmt.Errorf("%w: remote listener", domain.ErrZeroAddress)
	}
	return &CrossChainRelayer{
		dispatcher:         dispatcher,
		clock:              clock,
		destinationChainId: destinationChainId,
		remoteOwner:        remoteOwner,
		remoteListener:     remoteListener,
		consumedSequence:   make(map[uint64]struct{}),
	}, nil
}

// OnDrawFinalized implements ports.DrawFinalizer. The relay's reward
// portion is attributed to the draw completer who triggered it.
func (r *CrossChainRelayer) OnDrawFinalized(
	ctx context.Context, auction *domain.Auction,
) ([]domain.AuctionEvent, error) {
	phase, err := auction.Phases.Get(1)
	if err != nil {
		return nil, err
	}
	return r.Relay(
		ctx, r.destinationChainId, r.remoteOwner, r.remoteListener,
		phase.Recipient, auction,
	)
}

// Relay encodes the listener-call payload, wraps it for execution as
// the remote owner and dispatches it. It returns the settlement events
// carrying the transport-assigned message id.
func (r *CrossChainRelayer) Relay(
	ctx context.Context, destinationChainId uint64,
	remoteOwner, remoteListener, rewardRecipient common.Address,
	auction *domain.Auction,
) ([]domain.AuctionEvent, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.consumedSequence[auction.Sequence]; ok {
		return nil, fmt.Errorf("%w: sequence %d", domain.ErrAlreadyRelayed, auction.Sequence)
	}

	payload, err := EncodeListenerPayload(auction.RandomNumber, auction.Phases, rewardRecipient)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listener payload: %s", err)
	}
	buf, err := cbor.Marshal(relayEnvelope{
		RemoteOwner:    remoteOwner,
		TargetListener: remoteListener,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay envelope: %s", err)
	}

	messageId, err := r.dispatcher.DispatchMessage(ctx, destinationChainId, remoteListener, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch message: %s", err)
	}

	events, err := auction.SettleWithRelay(
		messageId, destinationChainId, remoteOwner, remoteListener,
		rewardRecipient, r.clock.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	r.consumedSequence[auction.Sequence] = struct{}{}

	log.Debugf(
		"relay dispatched for sequence %d: chain %d, listener %s, recipient %s, message %s",
		auction.Sequence, destinationChainId, remoteListener, rewardRecipient, messageId,
	)
	return events, nil
}
