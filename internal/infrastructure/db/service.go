package db

import (
	"fmt"

	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	badgerdb "github.com/pooldraw-network/pooldraw/internal/infrastructure/db/badger"
	dbtypes "github.com/pooldraw-network/pooldraw/internal/infrastructure/db/types"
)

var (
	eventStoreFactories = map[string]func(...interface{}) (dbtypes.EventStore, error){
		"badger": badgerdb.NewAuctionEventRepository,
	}
	auctionStoreFactories = map[string]func(...interface{}) (dbtypes.AuctionStore, error){
		"badger": badgerdb.NewAuctionRepository,
	}
)

type ServiceConfig struct {
	EventStoreType   string
	AuctionStoreType string

	EventStoreConfig   []interface{}
	AuctionStoreConfig []interface{}
}

type service struct {
	eventStore   dbtypes.EventStore
	auctionStore dbtypes.AuctionStore
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreFactories[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	auctionStoreFactory, ok := auctionStoreFactories[config.AuctionStoreType]
	if !ok {
		return nil, fmt.Errorf("auction store type not supported")
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	auctionStore, err := auctionStoreFactory(config.AuctionStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open auction store: %s", err)
	}

	return &service{eventStore, auctionStore}, nil
}

func (s *service) Events() domain.AuctionEventRepository {
	return s.eventStore
}

func (s *service) Auctions() domain.AuctionRepository {
	return s.auctionStore
}

func (s *service) RegisterEventsHandler(handler func(*domain.Auction)) {
	s.eventStore.RegisterEventsHandler(handler)
}

func (s *service) Close() {
	s.eventStore.Close()
	s.auctionStore.Close()
}
