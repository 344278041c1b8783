package store

import (
	"context"
	"time"
)

// JournalRepository records handled updates for usage reporting.
type JournalRepository interface {
	Record(ctx context.Context, in Interaction) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
