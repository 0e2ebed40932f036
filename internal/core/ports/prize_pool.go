package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// PrizePoolService is the narrow surface of the prize-pool protocol
// the auction engine consumes. Draw and reserve accounting stay on the
// pool side, the engine only closes draws and pays completers out of
// the reserve. DepositReserve returns funds to the reserve, it is how
// an aborted distribution compensates withdrawals it already issued.
type PrizePoolService interface {
	CloseDraw(ctx context.Context, randomNumber uint64) error
	Reserve(ctx context.Context) (uint64, error)
	WithdrawReserve(ctx context.Context, recipient common.Address, amount uint64) error
	DepositReserve(ctx context.Context, amount uint64) error
}
