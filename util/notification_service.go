// util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/pbirs-tools/admin-api/logging"
)

type NotificationService struct {
	// Hook point for a message queue or mail client if one is ever wired in
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyPermissionChange announces that a principal's roles on an item were
// replaced or revoked.
func (n *NotificationService) NotifyPermissionChange(ctx context.Context, serverURI, itemPath, userName string, roles []string) error {
	if len(roles) == 0 {
		logger.Info("NOTIFICATION: Permissions revoked",
			zap.String("serverUri", serverURI),
			zap.String("itemPath", itemPath),
			zap.String("userName", userName))
		return nil
	}

	logger.Info("NOTIFICATION: Permissions updated",
		zap.String("serverUri", serverURI),
		zap.String("itemPath", itemPath),
		zap.String("userName", userName),
		zap.Strings("roles", roles))
	return nil
}

// NotifyItemRenamed announces a catalog item rename.
func (n *NotificationService) NotifyItemRenamed(ctx context.Context, serverURI, itemID, newName string) error {
	logger.Info("NOTIFICATION: Item renamed",
		zap.String("serverUri", serverURI),
		zap.String("itemId", itemID),
		zap.String("newName", newName))
	return nil
}

// NotifyAdmins is a catch-all for operator-facing messages.
func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
