package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// MessageDispatcher is the cross-chain transport. Dispatch is
// fire-and-forget: the returned id correlates the message for audit,
// delivery and ordering semantics belong to the transport.
type MessageDispatcher interface {
	DispatchMessage(
		ctx context.Context, destinationChainId uint64,
		target common.Address, payload []byte,
	) (string, error)
}
