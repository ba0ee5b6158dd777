package persist

import (
	"context"
	"fmt"
	"time"
)

// ChatLogEntry is one archived chat line.
type ChatLogEntry struct {
	ID         uint64
	Channel    string
	SenderName string
	Text       string
	SentAt     time.Time
}

// ChatLogRepo archives chat lines to Postgres in batches.
type ChatLogRepo struct {
	db *DB
}

func NewChatLogRepo(db *DB) *ChatLogRepo {
	return &ChatLogRepo{db: db}
}

// Append writes a batch in a single transaction. On error nothing is written.
func (r *ChatLogRepo) Append(ctx context.Context, entries []ChatLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("chat log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_log (id, channel, sender_name, text, sent_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			int64(e.ID), e.Channel, e.SenderName, e.Text, e.SentAt,
		); err != nil {
			return fmt.Errorf("chat log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

