package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Publisher pushes realtime events to connected clients.
type Publisher interface {
	PublishToUser(userID, kind string, data any)
	PublishToRole(role, kind string, data any)
	PublishToRoom(roomID, kind string, data any)
}

type NoopPublisher struct{}

func (NoopPublisher) PublishToUser(string, string, any) {}
func (NoopPublisher) PublishToRole(string, string, any) {}
func (NoopPublisher) PublishToRoom(string, string, any) {}

const KindNotification = "notification"

type NotificationService interface {
	Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error
	Publish(notification *model.Notification)
	Send(ctx context.Context, sender model.Identity, req *dto.SendNotificationRequest) (*model.Notification, error)
	List(ctx context.Context, identity model.Identity, unreadOnly bool) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, identity model.Identity, notificationID string) error
}

type notificationServiceImpl struct {
	db               *gorm.DB
	notificationRepo repository.NotificationRepository
	publisher        Publisher
}

func NewNotificationService(
	db *gorm.DB,
	notificationRepo repository.NotificationRepository,
	publisher Publisher,
) NotificationService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &notificationServiceImpl{
		db:               db,
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

func UserNotification(userID, title, body string) *model.Notification {
	return &model.Notification{
		ID:     uuid.NewString(),
		UserID: &userID,
		Title:  title,
		Body:   body,
	}
}

func RoleNotification(role, title, body string) *model.Notification {
	return &model.Notification{
		ID:    uuid.NewString(),
		Role:  &role,
		Title: title,
		Body:  body,
	}
}

// Create stores the notification inside the caller's transaction. Call
// Publish after the transaction commits.
func (s *notificationServiceImpl) Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	return s.notificationRepo.Create(ctx, tx, notification)
}

func (s *notificationServiceImpl) Publish(notification *model.Notification) {
	if notification.UserID != nil {
		s.publisher.PublishToUser(*notification.UserID, KindNotification, notification)
	}
	if notification.Role != nil {
		s.publisher.PublishToRole(*notification.Role, KindNotification, notification)
	}
}

func (s *notificationServiceImpl) Send(ctx context.Context, sender model.Identity, req *dto.SendNotificationRequest) (*model.Notification, error) {
	if !sender.IsStaff() {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || (req.UserID == "") == (req.Role == "") {
		return nil, fmt.Errorf("%w: title and exactly one of user_id or role are required", ErrInvalidInput)
	}

	var notification *model.Notification
	if req.UserID != "" {
		notification = UserNotification(req.UserID, title, req.Body)
	} else {
		notification = RoleNotification(req.Role, title, req.Body)
	}

	if err := s.Create(ctx, s.db, notification); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	s.Publish(notification)

	return notification, nil
}

func (s *notificationServiceImpl) List(ctx context.Context, identity model.Identity, unreadOnly bool) ([]*model.Notification, int64, error) {
	if !identity.HasUser() {
		return nil, 0, ErrUnauthenticated
	}

	notifications, err := s.notificationRepo.ListFor(ctx, identity.UserID, identity.Role, unreadOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnread(ctx, identity.UserID, identity.Role)
	if err != nil {
		return nil, 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return notifications, unread, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, identity model.Identity, notificationID string) error {
	if !identity.HasUser() {
		return ErrUnauthenticated
	}

	updated, err := s.notificationRepo.MarkRead(ctx, notificationID, identity.UserID, identity.Role)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !updated {
		return ErrNotFound
	}

	return nil
}
