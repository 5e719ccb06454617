package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/logger"
)

type EventType string

const (
	EventUnlocked EventType = "unlocked"
	EventSynced   EventType = "synced"
	EventLocked   EventType = "locked"
)

// VaultEvent is a lifecycle notification from the vault layer. It never
// carries entry contents.
type VaultEvent struct {
	Type       EventType `json:"type"`
	VaultID    string    `json:"vault_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HandleEvent applies ev to the session, loading entries from p when the
// event requires a rebuild. A sync on a locked session is ignored.
func (s *Session) HandleEvent(ctx context.Context, p corpus.Provider, ev VaultEvent) error {
	ctx = logger.WithSessionID(ctx, s.id)
	log := logger.FromContext(ctx).With("component", "session")

	switch ev.Type {
	case EventUnlocked:
		return s.UnlockFrom(ctx, p)
	case EventSynced:
		if !s.Unlocked() {
			log.Debug("sync ignored while locked")
			return nil
		}
		return s.RefreshFrom(ctx, p)
	case EventLocked:
		s.Lock()
		log.Info("session locked")
		return nil
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown vault event %q", ev.Type)
	}
}

// MessageHandler adapts HandleEvent to the Kafka consumer.
func (s *Session) MessageHandler(p corpus.Provider) kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		ev, err := kafka.DecodeJSON[VaultEvent](value)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
		}
		return s.HandleEvent(ctx, p, ev)
	}
}
