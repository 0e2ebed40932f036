package badgerdb

import (
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

func init() {
	// The auction projection carries events behind an interface, gob
	// needs the concrete types up front.
	gob.Register(domain.AuctionStarted{})
	gob.Register(domain.RngRequested{})
	gob.Register(domain.DrawCompleted{})
	gob.Register(domain.RewardsDistributed{})
	gob.Register(domain.RelayDispatched{})
	gob.Register(domain.AuctionFailed{})
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	badgerOpts := badger.DefaultOptions(dbDir)
	badgerOpts.Logger = logger
	if len(dbDir) <= 0 {
		badgerOpts.InMemory = true
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          badgerOpts,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	eventTypeAuctionStarted     = "auction_started"
	eventTypeRngRequested       = "rng_requested"
	eventTypeDrawCompleted      = "draw_completed"
	eventTypeRewardsDistributed = "rewards_distributed"
	eventTypeRelayDispatched    = "relay_dispatched"
	eventTypeAuctionFailed      = "auction_failed"
)

func serializeEvents(events []domain.AuctionEvent) ([][]byte, error) {
	buf := make([][]byte, 0, len(events))
	for _, event := range events {
		var eventType string
		switch event.(type) {
		case domain.AuctionStarted:
			eventType = eventTypeAuctionStarted
		case domain.RngRequested:
			eventType = eventTypeRngRequested
		case domain.DrawCompleted:
			eventType = eventTypeDrawCompleted
		case domain.RewardsDistributed:
			eventType = eventTypeRewardsDistributed
		case domain.RelayDispatched:
			eventType = eventTypeRelayDispatched
		case domain.AuctionFailed:
			eventType = eventTypeAuctionFailed
		default:
			return nil, fmt.Errorf("unknown event type %T", event)
		}

		data, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		envelope, err := json.Marshal(eventEnvelope{Type: eventType, Data: data})
		if err != nil {
			return nil, err
		}
		buf = append(buf, envelope)
	}
	return buf, nil
}

func deserializeEvents(buf [][]byte) ([]domain.AuctionEvent, error) {
	events := make([]domain.AuctionEvent, 0, len(buf))
	for _, raw := range buf {
		envelope := eventEnvelope{}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}

		var event domain.AuctionEvent
		switch envelope.Type {
		case eventTypeAuctionStarted:
			e := domain.AuctionStarted{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		case eventTypeRngRequested:
			e := domain.RngRequested{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		case eventTypeDrawCompleted:
			e := domain.DrawCompleted{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		case eventTypeRewardsDistributed:
			e := domain.RewardsDistributed{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		case eventTypeRelayDispatched:
			e := domain.RelayDispatched{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		case eventTypeAuctionFailed:
			e := domain.AuctionFailed{}
			if err := json.Unmarshal(envelope.Data, &e); err != nil {
				return nil, err
			}
			event = e
		default:
			return nil, fmt.Errorf("unknown event type %s", envelope.Type)
		}
		events = append(events, event)
	}
	return events, nil
}
