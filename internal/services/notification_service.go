package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/models"
)

const notificationPageSize = 50

// NotificationService reads and acknowledges in-app notifications.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

// List returns the newest notifications of the user, optionally marking all of them seen first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, markSeen bool) (*NotificationList, error) {
	if markSeen {
		if _, err := s.MarkAllSeen(ctx, userID); err != nil {
			return nil, err
		}
	}

	db := s.db.WithContext(ctx)

	notifications := make([]models.Notification, 0)
	if err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(notificationPageSize).
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, err
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkAllSeen flips every unseen notification of the user in one statement.
func (s *NotificationService) MarkAllSeen(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Update("seen", true)
	return res.RowsAffected, res.Error
}

func emitNotification(tx *gorm.DB, userID uuid.UUID, title, body string, payload models.NotificationPayload) error {
	return tx.Create(&models.Notification{
		UserID:  userID,
		Title:   title,
		Body:    body,
		Payload: payload,
	}).Error
}
