package ports

import "time"

// Clock abstracts the current time so that window and elapsed
// computations stay deterministic under test.
type Clock interface {
	Now() time.Time
}
