package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// orderTransitions lists, per target status, the statuses it may be reached from.
var orderTransitions = map[string][]string{
	model.OrderStatusPreparing: {model.OrderStatusNew},
	model.OrderStatusReady:     {model.OrderStatusPreparing},
	model.OrderStatusCompleted: {model.OrderStatusReady},
	model.OrderStatusCancelled: {model.OrderStatusNew, model.OrderStatusPreparing},
}

var boardStatuses = []string{
	model.OrderStatusNew,
	model.OrderStatusPreparing,
	model.OrderStatusReady,
}

type StaffService interface {
	ListOrders(ctx context.Context, identity model.Identity, status string) ([]*model.Order, error)
	AdvanceOrder(ctx context.Context, identity model.Identity, orderID, status string) (*model.Order, error)
}

type staffServiceImpl struct {
	db                  *gorm.DB
	orderRepo           repository.OrderRepository
	notificationService NotificationService
	log                 *logrus.Logger
}

func NewStaffService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	notificationService NotificationService,
	log *logrus.Logger,
) StaffService {
	return &staffServiceImpl{
		db:                  db,
		orderRepo:           orderRepo,
		notificationService: notificationService,
		log:                 log,
	}
}

// ListOrders returns paid orders. Without a status filter it returns the
// open board (new, preparing, ready).
func (s *staffServiceImpl) ListOrders(ctx context.Context, identity model.Identity, status string) ([]*model.Order, error) {
	if !identity.IsStaff() {
		return nil, ErrForbidden
	}

	statuses := boardStatuses
	if status != "" {
		statuses = []string{status}
	}

	return s.orderRepo.ListPaidByStatus(ctx, statuses)
}

func (s *staffServiceImpl) AdvanceOrder(ctx context.Context, identity model.Identity, orderID, status string) (*model.Order, error) {
	if !identity.IsStaff() {
		return nil, ErrForbidden
	}

	from, ok := orderTransitions[status]
	if !ok {
		return nil, fmt.Errorf("%w: cannot move an order to %q", ErrInvalidTransition, status)
	}

	var order *model.Order
	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, from, status)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if !moved {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
		}

		notification = UserNotification(order.UserID, "Order update", fmt.Sprintf("Your snack order is %s.", status))
		return s.notificationService.Create(ctx, tx, notification)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.Publish(notification)
	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
		"staff_id": identity.UserID,
	}).Info("order status changed")

	return order, nil
}
