package store

import (
	"time"

	"github.com/jw6ventures/calbot/internal/metrics"
)

func observeDB(operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(operation, start)
	}
}
