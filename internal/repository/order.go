package repository

import (
	"context"
	"lounge-portal/internal/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	ListPaidByStatus(ctx context.Context, statuses []string) ([]*model.Order, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, orderID, userID string) (bool, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, sessionID string) (bool, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, orderID string, from []string, to string) (bool, error)
	CopyCartItems(ctx context.Context, tx *gorm.DB, orderID string, items []*model.CartItem) error
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListPaidByStatus(ctx context.Context, statuses []string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_status = ?", model.PaymentStatusPaid).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) IsOwnedBy(ctx context.Context, tx *gorm.DB, orderID, userID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND user_id = ?", orderID, userID).
		Count(&count).Error

	return count > 0, err
}

// MarkPaid flips an unpaid order to paid/new. It reports false when the order
// was already paid.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, sessionID string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, model.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status":    model.PaymentStatusPaid,
			"status":            model.OrderStatusNew,
			"stripe_session_id": sessionID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// TransitionStatus moves the order to `to` only when its current status is
// one of `from`.
func (r *orderRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, orderID string, from []string, to string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// CopyCartItems materializes cart lines as order lines. Lines already copied
// for the same menu item are left untouched.
func (r *orderRepoImpl) CopyCartItems(ctx context.Context, tx *gorm.DB, orderID string, items []*model.CartItem) error {
	if len(items) == 0 {
		return nil
	}

	orderItems := make([]*model.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = &model.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Qty:        item.Qty,
			LineTotal:  item.LineTotal,
		}
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "menu_item_id"}},
		DoNothing: true,
	}).Create(&orderItems).Error
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("menu_item_id ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}
