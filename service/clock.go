package service

import (
	"time"

	"github.com/layer-3/leap/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC
func SystemClock() ports.Clock {
	return systemClock{}
}
