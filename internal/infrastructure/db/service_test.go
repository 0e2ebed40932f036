package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	"github.com/pooldraw-network/pooldraw/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var (
	windowStart  = int64(1704067200)
	rngDuration  = int64(3600)
	drawDuration = int64(1800)

	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestService(t *testing.T) {
	t.Run("unsupported_type", func(t *testing.T) {
		_, err := db.NewService(db.ServiceConfig{
			EventStoreType:   "sqlite",
			AuctionStoreType: "badger",
		})
		require.Error(t, err)

		_, err = db.NewService(db.ServiceConfig{
			EventStoreType:   "badger",
			AuctionStoreType: "sqlite",
		})
		require.Error(t, err)
	})

	repoManager := newRepoManager(t)

	testEventStore(t, repoManager)

	testAuctionStore(t, repoManager)
}

func TestCloseAfterSave(t *testing.T) {
	// Save publishes on a detached goroutine, closing right after a
	// burst of saves must wait for the in-flight publications.
	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:     "badger",
		AuctionStoreType:   "badger",
		EventStoreConfig:   []interface{}{"", nil},
		AuctionStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := uint64(0); i < 50; i++ {
		auction := completedAuction(t, 100+i)
		require.NoError(t, repoManager.Events().Save(ctx, auction.Id, auction.Events()...))
	}

	require.NotPanics(t, repoManager.Close)
}

func testEventStore(t *testing.T, repoManager ports.RepoManager) {
	t.Run("event_store", func(t *testing.T) {
		ctx := context.Background()

		auction := completedAuction(t, 3)
		require.NoError(t, repoManager.Events().Save(ctx, auction.Id, auction.Events()...))

		loaded, err := repoManager.Events().Load(ctx, auction.Id)
		require.NoError(t, err)
		require.Equal(t, auction.Id, loaded.Id)
		require.Equal(t, auction.Sequence, loaded.Sequence)
		require.Equal(t, auction.RngRequestId, loaded.RngRequestId)
		require.Equal(t, auction.RandomNumber, loaded.RandomNumber)
		require.True(t, loaded.IsDrawCompleted())
		require.Len(t, loaded.Events(), len(auction.Events()))

		for i := range auction.Phases {
			expected, err := auction.Phases.Get(i)
			require.NoError(t, err)
			got, err := loaded.Phases.Get(i)
			require.NoError(t, err)
			require.Equal(t, expected.Recipient, got.Recipient)
			require.True(t, expected.RewardPortion.Equal(got.RewardPortion))
		}

		// Resubmitting the full list must not duplicate events.
		require.NoError(t, repoManager.Events().Save(ctx, auction.Id, auction.Events()...))
		loaded, err = repoManager.Events().Load(ctx, auction.Id)
		require.NoError(t, err)
		require.Len(t, loaded.Events(), len(auction.Events()))

		// Appending the settlement persists only the suffix.
		_, err = auction.SettleWithDistribution(1000, []domain.Payout{
			{PhaseIndex: 0, Recipient: alice, Amount: 100},
			{PhaseIndex: 1, Recipient: bob, Amount: 200},
		}, windowStart+2000)
		require.NoError(t, err)
		require.NoError(t, repoManager.Events().Save(ctx, auction.Id, auction.Events()...))

		loaded, err = repoManager.Events().Load(ctx, auction.Id)
		require.NoError(t, err)
		require.True(t, loaded.IsEnded())
		require.Len(t, loaded.Events(), len(auction.Events()))
	})
}

func testAuctionStore(t *testing.T, repoManager ports.RepoManager) {
	t.Run("auction_store", func(t *testing.T) {
		ctx := context.Background()

		older := completedAuction(t, 4)
		current := completedAuction(t, 5)
		_, err := older.SettleWithDistribution(1000, nil, windowStart+2000)
		require.NoError(t, err)

		require.NoError(t, repoManager.Auctions().AddOrUpdateAuction(ctx, *older))
		require.NoError(t, repoManager.Auctions().AddOrUpdateAuction(ctx, *current))

		got, err := repoManager.Auctions().GetCurrentAuction(ctx)
		require.NoError(t, err)
		require.Equal(t, current.Id, got.Id)

		got, err = repoManager.Auctions().GetAuctionWithId(ctx, older.Id)
		require.NoError(t, err)
		require.Equal(t, older.Id, got.Id)
		require.True(t, got.IsEnded())

		got, err = repoManager.Auctions().GetAuctionWithSequence(ctx, 5)
		require.NoError(t, err)
		require.Equal(t, current.Id, got.Id)

		_, err = repoManager.Auctions().GetAuctionWithSequence(ctx, 99)
		require.Error(t, err)
	})

	t.Run("events_handler", func(t *testing.T) {
		ctx := context.Background()

		var lock sync.Mutex
		handled := make(map[string]struct{})
		repoManager.RegisterEventsHandler(func(auction *domain.Auction) {
			lock.Lock()
			defer lock.Unlock()
			handled[auction.Id] = struct{}{}
		})

		auction := completedAuction(t, 6)
		require.NoError(t, repoManager.Events().Save(ctx, auction.Id, auction.Events()...))

		require.Eventually(t, func() bool {
			lock.Lock()
			defer lock.Unlock()
			_, ok := handled[auction.Id]
			return ok
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func newRepoManager(t *testing.T) ports.RepoManager {
	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:     "badger",
		AuctionStoreType:   "badger",
		EventStoreConfig:   []interface{}{"", nil},
		AuctionStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func completedAuction(t *testing.T, sequence uint64) *domain.Auction {
	auction, err := domain.NewAuction(sequence, windowStart, rngDuration, drawDuration, 2)
	require.NoError(t, err)
	_, err = auction.Start(windowStart)
	require.NoError(t, err)
	_, err = auction.RequestRng(42, alice, windowStart+1800)
	require.NoError(t, err)
	_, err = auction.CompleteDraw(12345, windowStart+600, bob, bob, windowStart+1500)
	require.NoError(t, err)
	return auction
}
