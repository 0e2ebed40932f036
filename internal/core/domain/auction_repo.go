package domain

import (
	"context"
)

type AuctionEventRepository interface {
	Save(ctx context.Context, id string, events ...AuctionEvent) error
	Load(ctx context.Context, id string) (*Auction, error)
}

type AuctionRepository interface {
	AddOrUpdateAuction(ctx context.Context, auction Auction) error
	GetCurrentAuction(ctx context.Context) (*Auction, error)
	GetAuctionWithId(ctx context.Context, id string) (*Auction, error)
	GetAuctionWithSequence(ctx context.Context, sequence uint64) (*Auction, error)
}
