package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/identity"
)

// ActorNotifier announces actor changes so cached profiles are refreshed.
type ActorNotifier interface {
	Notify(ctx context.Context, kind identity.EventKind, userID uuid.UUID) error
}

func notify(ctx context.Context, n ActorNotifier, logger *zap.Logger, kind identity.EventKind, userID uuid.UUID) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, kind, userID); err != nil {
		logger.Warn("actor event not delivered",
			zap.String("event", string(kind)),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
