package repository

import (
	"context"
	"errors"
	"fmt"
	"lounge-portal/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchasable is something a checkout session can pay for.
type Purchasable interface {
	Type() model.PurchaseType
	IsOwnedBy(ctx context.Context, tx *gorm.DB, referenceID, userID string) (bool, error)
	// Amount is the stored price of the reference before VAT.
	Amount(ctx context.Context, tx *gorm.DB, referenceID string) (decimal.Decimal, error)
	// MarkPaid applies the paid transition. It reports false when the
	// reference was already paid, and gorm.ErrRecordNotFound when it does
	// not exist.
	MarkPaid(ctx context.Context, tx *gorm.DB, referenceID, sessionID string) (bool, error)
}

type PurchasableRegistry struct {
	byType map[model.PurchaseType]Purchasable
}

func NewPurchasableRegistry(orderRepo OrderRepository, cartRepo CartRepository) *PurchasableRegistry {
	entries := []Purchasable{
		&orderPurchasable{orderRepo: orderRepo, cartRepo: cartRepo},
		&reservationPurchasable{kind: model.PurchaseRoomBooking, newRow: func() any { return &model.RoomBooking{} }},
		&reservationPurchasable{kind: model.PurchaseEventRegistration, newRow: func() any { return &model.EventRegistration{} }},
		&reservationPurchasable{kind: model.PurchasePartyRequest, newRow: func() any { return &model.PartyRequest{} }},
	}

	byType := make(map[model.PurchaseType]Purchasable, len(entries))
	for _, p := range entries {
		byType[p.Type()] = p
	}

	return &PurchasableRegistry{byType: byType}
}

func (r *PurchasableRegistry) Lookup(t model.PurchaseType) (Purchasable, bool) {
	p, ok := r.byType[t]
	return p, ok
}

// orderPurchasable copies the cart into order items, marks the order paid and
// closes the cart.
type orderPurchasable struct {
	orderRepo OrderRepository
	cartRepo  CartRepository
}

func (p *orderPurchasable) Type() model.PurchaseType {
	return model.PurchaseOrder
}

func (p *orderPurchasable) IsOwnedBy(ctx context.Context, tx *gorm.DB, referenceID, userID string) (bool, error) {
	return p.orderRepo.IsOwnedBy(ctx, tx, referenceID, userID)
}

func (p *orderPurchasable) Amount(ctx context.Context, tx *gorm.DB, referenceID string) (decimal.Decimal, error) {
	order, err := p.orderRepo.FindByID(ctx, tx, referenceID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.Total, nil
}

func (p *orderPurchasable) MarkPaid(ctx context.Context, tx *gorm.DB, referenceID, sessionID string) (bool, error) {
	order, err := p.orderRepo.FindByID(ctx, tx, referenceID)
	if err != nil {
		return false, err
	}

	items, err := p.cartRepo.ListItems(ctx, tx, order.CartID)
	if err != nil {
		return false, fmt.Errorf("list cart items: %w", err)
	}

	if err := p.orderRepo.CopyCartItems(ctx, tx, order.ID, items); err != nil {
		return false, fmt.Errorf("copy cart items: %w", err)
	}

	changed, err := p.orderRepo.MarkPaid(ctx, tx, order.ID, sessionID)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	if err := p.cartRepo.MarkStatus(ctx, tx, order.CartID, model.CartStatusCompleted); err != nil {
		return false, fmt.Errorf("complete cart: %w", err)
	}

	return changed, nil
}

// reservationPurchasable covers the tables that share the
// status/payment_status pair and confirm on payment.
type reservationPurchasable struct {
	kind   model.PurchaseType
	newRow func() any
}

func (p *reservationPurchasable) Type() model.PurchaseType {
	return p.kind
}

func (p *reservationPurchasable) IsOwnedBy(ctx context.Context, tx *gorm.DB, referenceID, userID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(p.newRow()).
		Where("id = ? AND user_id = ?", referenceID, userID).
		Count(&count).Error

	return count > 0, err
}

func (p *reservationPurchasable) Amount(ctx context.Context, tx *gorm.DB, referenceID string) (decimal.Decimal, error) {
	var row struct {
		Amount decimal.Decimal
	}
	err := tx.WithContext(ctx).Model(p.newRow()).
		Select("amount").
		Where("id = ?", referenceID).
		Take(&row).Error

	return row.Amount, err
}

func (p *reservationPurchasable) MarkPaid(ctx context.Context, tx *gorm.DB, referenceID, sessionID string) (bool, error) {
	result := tx.WithContext(ctx).Model(p.newRow()).
		Where("id = ? AND payment_status <> ?", referenceID, model.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status":    model.PaymentStatusPaid,
			"status":            model.ReservationStatusConfirmed,
			"stripe_session_id": sessionID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	err := tx.WithContext(ctx).Model(p.newRow()).
		Where("id = ?", referenceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, gorm.ErrRecordNotFound
	}

	return false, nil
}

// IsNotFound reports whether err is a missing-row error from gorm.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
