package service

import (
	"context"
	"fmt"

	"formbox/internal/db"

	"go.uber.org/zap"
)

// ExpireStaleSessions sweeps ACTIVE sessions whose expiry passed while the
// service was down. Expiry jobs scheduled in Redis do not survive a flushed
// broker, so this runs once on startup.
func ExpireStaleSessions(ctx context.Context, queries *db.Queries, bus EventBus, log *zap.Logger) error {
	ids, err := queries.ExpireStaleSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire stale sessions: %w", err)
	}

	for _, id := range ids {
		_ = bus.PublishSession(id, map[string]interface{}{
			"type":      "session.expired",
			"sessionId": id,
		})
	}

	if len(ids) > 0 {
		log.Info("Expired stale sessions", zap.Int("count", len(ids)))
	}
	return nil
}
