package store

import (
	"time"

	"github.com/google/uuid"
)

// Interaction kinds.
const (
	KindCommand  = "command"
	KindMessage  = "message"
	KindCallback = "callback"
)

// Interaction is one handled Telegram update as recorded in the journal.
type Interaction struct {
	ID        uuid.UUID
	ChatKey   string
	Kind      string
	Intent    string
	Action    string
	CreatedAt time.Time
}
