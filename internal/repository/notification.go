package repository

import (
	"context"
	"lounge-portal/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error
	ListFor(ctx context.Context, userID, role string, unreadOnly bool) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID, role string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID, role string) (bool, error)
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{
		db: db,
	}
}

func (r *notificationRepoImpl) Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error {
	return tx.WithContext(ctx).Create(notification).Error
}

// addressedTo matches notifications sent to the user or to the user's role.
func addressedTo(db *gorm.DB, userID, role string) *gorm.DB {
	if role == "" {
		return db.Where("user_id = ?", userID)
	}
	return db.Where("(user_id = ? OR role = ?)", userID, role)
}

func (r *notificationRepoImpl) ListFor(ctx context.Context, userID, role string, unreadOnly bool) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := addressedTo(r.db.WithContext(ctx), userID, role)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepoImpl) CountUnread(ctx context.Context, userID, role string) (int64, error) {
	var count int64
	err := addressedTo(r.db.WithContext(ctx).Model(&model.Notification{}), userID, role).
		Where("is_read = ?", false).
		Count(&count).Error

	return count, err
}

func (r *notificationRepoImpl) MarkRead(ctx context.Context, notificationID, userID, role string) (bool, error) {
	result := addressedTo(r.db.WithContext(ctx).Model(&model.Notification{}), userID, role).
		Where("id = ?", notificationID).
		Update("is_read", true)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
