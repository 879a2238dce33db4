package repository

import (
	"context"
	"lounge-portal/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetActive(ctx context.Context, tx *gorm.DB, userID string) (*model.Cart, error)
	CreateActive(ctx context.Context, tx *gorm.DB, cart *model.Cart) (bool, error)
	UpdateTotals(ctx context.Context, tx *gorm.DB, cartID string, version int64, totals model.CartTotals) (bool, error)
	MarkStatus(ctx context.Context, tx *gorm.DB, cartID, status string) error

	ListItems(ctx context.Context, tx *gorm.DB, cartID string) ([]*model.CartItem, error)
	GetItem(ctx context.Context, tx *gorm.DB, cartID, menuItemID string) (*model.CartItem, error)
	CreateItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error
	UpdateItemQty(ctx context.Context, tx *gorm.DB, itemID string, qty int32, lineTotal decimal.Decimal) error
	MoveItem(ctx context.Context, tx *gorm.DB, itemID, cartID string) error
	DeleteItem(ctx context.Context, tx *gorm.DB, cartID, menuItemID string) (int64, error)
	DeleteAllItems(ctx context.Context, tx *gorm.DB, cartID string) error

	BackfillActiveUsers(ctx context.Context) error
	DuplicateActiveUserIDs(ctx context.Context) ([]string, error)
	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*model.Cart, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) GetActive(ctx context.Context, tx *gorm.DB, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("menu_item_id ASC")
		}).
		Where("active_user_id = ?", userID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

// CreateActive inserts the cart unless the user already has an active one.
// It reports false when another writer won the race.
func (r *cartRepoImpl) CreateActive(ctx context.Context, tx *gorm.DB, cart *model.Cart) (bool, error) {
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "active_user_id"}},
		DoNothing: true,
	}).Create(cart)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// UpdateTotals persists the aggregate only if the row still carries the
// version the caller read. A false result means a concurrent writer got there
// first.
func (r *cartRepoImpl) UpdateTotals(ctx context.Context, tx *gorm.DB, cartID string, version int64, totals model.CartTotals) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ? AND version = ?", cartID, version).
		Updates(map[string]interface{}{
			"subtotal":   totals.Subtotal,
			"tax":        totals.Tax,
			"fees":       totals.Fees,
			"tip":        totals.Tip,
			"total":      totals.Total,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// MarkStatus moves a cart out of the active state.
func (r *cartRepoImpl) MarkStatus(ctx context.Context, tx *gorm.DB, cartID, status string) error {
	updates := map[string]interface{}{
		"status":     status,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if status != model.CartStatusActive {
		updates["active_user_id"] = nil
	}

	return tx.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(updates).Error
}

func (r *cartRepoImpl) ListItems(ctx context.Context, tx *gorm.DB, cartID string) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("menu_item_id ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *cartRepoImpl) GetItem(ctx context.Context, tx *gorm.DB, cartID, menuItemID string) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.WithContext(ctx).
		Where("cart_id = ? AND menu_item_id = ?", cartID, menuItemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) CreateItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error {
	return tx.WithContext(ctx).Create(item).Error
}

func (r *cartRepoImpl) UpdateItemQty(ctx context.Context, tx *gorm.DB, itemID string, qty int32, lineTotal decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"qty":        qty,
			"line_total": lineTotal,
			"updated_at": time.Now(),
		}).Error
}

func (r *cartRepoImpl) MoveItem(ctx context.Context, tx *gorm.DB, itemID, cartID string) error {
	return tx.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"cart_id":    cartID,
			"updated_at": time.Now(),
		}).Error
}

func (r *cartRepoImpl) DeleteItem(ctx context.Context, tx *gorm.DB, cartID, menuItemID string) (int64, error) {
	result := tx.WithContext(ctx).
		Where("cart_id = ? AND menu_item_id = ?", cartID, menuItemID).
		Delete(&model.CartItem{})

	return result.RowsAffected, result.Error
}

func (r *cartRepoImpl) DeleteAllItems(ctx context.Context, tx *gorm.DB, cartID string) error {
	return tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}

// BackfillActiveUsers fills active_user_id for carts written before the
// column existed.
func (r *cartRepoImpl) BackfillActiveUsers(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("status = ? AND active_user_id IS NULL", model.CartStatusActive).
		Update("active_user_id", gorm.Expr("user_id")).Error
}

func (r *cartRepoImpl) DuplicateActiveUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("status = ?", model.CartStatusActive).
		Group("user_id").
		Having("COUNT(*) > 1").
		Pluck("user_id", &userIDs).Error

	if err != nil {
		return nil, err
	}

	return userIDs, nil
}

// ListActiveByUser returns the user's active carts, oldest first.
func (r *cartRepoImpl) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*model.Cart, error) {
	var carts []*model.Cart
	err := tx.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		Order("created_at ASC").
		Order("id ASC").
		Find(&carts).Error

	if err != nil {
		return nil, err
	}

	return carts, nil
}
