package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool pgxPool
	key  []byte

	Journal JournalRepository
}

// New wires concrete repository implementations with a shared connection
// pool. key keys the chat pseudonyms written to the journal.
func New(pool pgxPool, key []byte) *Store {
	key = normalizeKey(key)
	return &Store{
		pool:    pool,
		key:     key,
		Journal: &journalRepo{pool: pool, now: time.Now},
	}
}

// HealthCheck verifies that the underlying database is reachable.
// A disabled store is always healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	defer observeDB("db.healthcheck")()
	return s.pool.Ping(ctx)
}

// InteractionsSince counts journaled interactions newer than since.
func (s *Store) InteractionsSince(ctx context.Context, since time.Time) (int64, error) {
	return s.Journal.CountSince(ctx, since)
}

// Disabled returns a Store whose journal drops every interaction, used when
// no database is configured.
func Disabled() *Store {
	return &Store{Journal: nopJournal{}}
}

// Enabled reports whether the store is backed by a database.
func (s *Store) Enabled() bool {
	return s.pool != nil
}

type nopJournal struct{}

func (nopJournal) Record(context.Context, Interaction) error { return nil }

func (nopJournal) CountSince(context.Context, time.Time) (int64, error) {
	return 0, ErrJournalDisabled
}
