package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/service"
	"skipped/pkg/logger"
)

// notify sends best effort. A failed delivery is logged and never returned.
func notify(ctx context.Context, notifier service.Notifier, userID, kind string, data map[string]interface{}) {
	if notifier == nil || userID == "" {
		return
	}

	n := &entity.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      kind,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to deliver %s notification to %s: %v", kind, userID, err)
	}
}
