package notification

import "qrorder-be/internal/apperror"

var ErrNotificationNotFound = apperror.New(apperror.KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
