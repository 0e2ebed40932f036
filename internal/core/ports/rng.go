package ports

import "context"

// RngService delegates randomness generation entirely. Request ids are
// assigned by the service and strictly increase across requests.
type RngService interface {
	RequestRandomNumber(ctx context.Context) (uint64, error)
	IsCompleted(ctx context.Context, requestId uint64) (bool, error)
	CompletedAt(ctx context.Context, requestId uint64) (int64, error)
	RandomNumber(ctx context.Context, requestId uint64) (uint64, error)
}
