package clock

import (
	"time"

	"github.com/pooldraw-network/pooldraw/internal/core/ports"
)

type systemClock struct{}

func NewSystemClock() ports.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
