package system

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/chat"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/persist"
	"go.uber.org/zap"
)

// ChatLog stores archived channel messages.
type ChatLog interface {
	Append(ctx context.Context, entries []persist.ChatLogEntry) error
}

// ChatArchiveSystem buffers delivered channel messages and appends them in
// one batch every interval. A failed batch is logged and dropped.
// Phase 5 (Persist).
type ChatArchiveSystem struct {
	repo     ChatLog
	pending  []persist.ChatLogEntry
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewChatArchiveSystem(repo ChatLog, interval time.Duration, log *zap.Logger) *ChatArchiveSystem {
	return &ChatArchiveSystem{repo: repo, interval: interval, log: log}
}

func (s *ChatArchiveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *ChatArchiveSystem) Record(m chat.Message) {
	s.pending = append(s.pending, persist.ChatLogEntry{
		ID:         m.ID,
		Channel:    m.Channel,
		SenderName: m.SenderName,
		Text:       m.Text,
		SentAt:     m.SentAt,
	})
}

func (s *ChatArchiveSystem) Pending() int { return len(s.pending) }

func (s *ChatArchiveSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

func (s *ChatArchiveSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	batch := s.pending
	s.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.repo.Append(ctx, batch); err != nil {
		s.log.Error("chat archive append failed", zap.Int("dropped", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("chat archived", zap.Int("count", len(batch)))
}
