package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// journalRepo implements JournalRepository.
type journalRepo struct {
	pool pgxPool
	now  func() time.Time
}

func (r *journalRepo) Record(ctx context.Context, in Interaction) error {
	defer observeDB("journal.record")()

	if in.ChatKey == "" || in.Kind == "" || in.Action == "" {
		return fmt.Errorf("%w: chat key, kind and action are required", ErrInvalidInteraction)
	}
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}

	const q = `INSERT INTO interactions (id, chat_key, kind, intent, action, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.pool.Exec(ctx, q, in.ID, in.ChatKey, in.Kind, in.Intent, in.Action, in.CreatedAt); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

func (r *journalRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	defer observeDB("journal.count_since")()

	const q = `SELECT COUNT(*) FROM interactions WHERE created_at >= $1`
	var n int64
	if err := r.pool.QueryRow(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return n, nil
}

// ChatKey returns the journal pseudonym of chatID: the hex keyed BLAKE2b-256
// of its decimal form. The same key always maps a chat to the same value.
func (s *Store) ChatKey(chatID int64) string {
	if s.key == nil {
		return ""
	}
	return chatKey(s.key, chatID)
}

func chatKey(key []byte, chatID int64) string {
	h, err := blake2b.New256(key)
	if err != nil {
		// New normalizes keys to at most blake2b.Size bytes.
		panic(err)
	}
	h.Write([]byte(strconv.FormatInt(chatID, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeKey shortens keys beyond the BLAKE2b key limit by hashing them.
func normalizeKey(key []byte) []byte {
	if len(key) <= blake2b.Size {
		return key
	}
	sum := blake2b.Sum512(key)
	return sum[:]
}
