package ports

import "github.com/pooldraw-network/pooldraw/internal/core/domain"

type RepoManager interface {
	Events() domain.AuctionEventRepository
	Auctions() domain.AuctionRepository
	RegisterEventsHandler(func(*domain.Auction))
	Close()
}
