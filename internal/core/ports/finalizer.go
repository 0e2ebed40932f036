package ports

import (
	"context"

	"github.com/pooldraw-network/pooldraw/internal/core/domain"
)

// DrawFinalizer is the extension seam invoked when a draw auction
// completes. Deployments plug in either direct reward distribution or
// a cross-chain relay without touching the auction logic.
type DrawFinalizer interface {
	// OnDrawFinalized receives the completed cycle with its random
	// number and final phase list and returns the settlement events to
	// append to the cycle's record.
	OnDrawFinalized(ctx context.Context, auction *domain.Auction) ([]domain.AuctionEvent, error)
}
