package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	dbtypes "github.com/pooldraw-network/pooldraw/internal/infrastructure/db/types"
	"github.com/timshannon/badgerhold/v4"
)

const auctionStoreDir = "auctions"

type auctionRepository struct {
	store *badgerhold.Store
}

func NewAuctionRepository(config ...interface{}) (dbtypes.AuctionStore, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, auctionStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open auction store: %s", err)
	}

	return &auctionRepository{store}, nil
}

func (r *auctionRepository) AddOrUpdateAuction(
	ctx context.Context, auction domain.Auction,
) error {
	return r.addOrUpdateAuction(ctx, auction)
}

// GetCurrentAuction returns the highest-sequence auction that is
// neither settled nor failed.
func (r *auctionRepository) GetCurrentAuction(
	ctx context.Context,
) (*domain.Auction, error) {
	query := badgerhold.Where("Stage.Ended").Eq(false).And("Stage.Failed").Eq(false)
	auctions, err := r.findAuction(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(auctions) <= 0 {
		return nil, fmt.Errorf("ongoing auction not found")
	}
	current := &auctions[0]
	for i := range auctions {
		if auctions[i].Sequence > current.Sequence {
			current = &auctions[i]
		}
	}
	return current, nil
}

func (r *auctionRepository) GetAuctionWithId(
	ctx context.Context, id string,
) (*domain.Auction, error) {
	query := badgerhold.Where("Id").Eq(id)
	auctions, err := r.findAuction(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(auctions) <= 0 {
		return nil, fmt.Errorf("auction with id %s not found", id)
	}
	return &auctions[0], nil
}

func (r *auctionRepository) GetAuctionWithSequence(
	ctx context.Context, sequence uint64,
) (*domain.Auction, error) {
	query := badgerhold.Where("Sequence").Eq(sequence)
	auctions, err := r.findAuction(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(auctions) <= 0 {
		return nil, fmt.Errorf("auction with sequence %d not found", sequence)
	}
	return &auctions[0], nil
}

func (r *auctionRepository) Close() {
	r.store.Close()
}

func (r *auctionRepository) findAuction(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Auction, error) {
	var auctions []domain.Auction
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &auctions, query)
	} else {
		err = r.store.Find(&auctions, query)
	}

	return auctions, err
}

func (r *auctionRepository) addOrUpdateAuction(
	ctx context.Context, auction domain.Auction,
) (err error) {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxUpsert(tx, auction.Id, auction)
	} else {
		err = r.store.Upsert(auction.Id, auction)
	}
	return
}
