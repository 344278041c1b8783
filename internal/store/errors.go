package store

import "errors"

// ErrJournalDisabled is returned by the no-op journal when no database is configured.
var ErrJournalDisabled = errors.New("journal disabled")

// ErrInvalidInteraction indicates an interaction missing required fields.
var ErrInvalidInteraction = errors.New("invalid interaction")
