package dbtypes

import "github.com/pooldraw-network/pooldraw/internal/core/domain"

type EventStore interface {
	domain.AuctionEventRepository
	RegisterEventsHandler(func(*domain.Auction))
	Close()
}

type AuctionStore interface {
	domain.AuctionRepository
	Close()
}
