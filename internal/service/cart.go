package service

import (
	"context"
	"errors"
	"fmt"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxCartWriteAttempts = 3

type CartService interface {
	GetCart(ctx context.Context, identity model.Identity) (*model.Cart, error)
	AddToCart(ctx context.Context, identity model.Identity, menuItemID string, qty int32) (*model.Cart, error)
	UpdateQuantity(ctx context.Context, identity model.Identity, menuItemID string, qty int32) (*model.Cart, error)
	RemoveItem(ctx context.Context, identity model.Identity, menuItemID string) (*model.Cart, error)
	ClearCart(ctx context.Context, identity model.Identity) (*model.Cart, error)
	RefreshCart(ctx context.Context, identity model.Identity) (*model.Cart, error)
	MergeDuplicateActiveCarts(ctx context.Context) (int, error)
}

type cartServiceImpl struct {
	db       *gorm.DB
	cartRepo repository.CartRepository
	menuRepo repository.MenuRepository
	taxRate  decimal.Decimal
	log      *logrus.Logger
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	menuRepo repository.MenuRepository,
	taxRate decimal.Decimal,
	log *logrus.Logger,
) CartService {
	return &cartServiceImpl{
		db:       db,
		cartRepo: cartRepo,
		menuRepo: menuRepo,
		taxRate:  taxRate,
		log:      log,
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, identity model.Identity) (*model.Cart, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}

	return s.getOrCreateActive(ctx, identity.UserID)
}

// AddToCart prices the line from the menu catalogue. An existing line keeps
// the unit price it was added at.
func (s *cartServiceImpl) AddToCart(ctx context.Context, identity model.Identity, menuItemID string, qty int32) (*model.Cart, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if menuItemID == "" {
		return nil, fmt.Errorf("%w: menu_item_id is required", ErrInvalidInput)
	}

	item, err := s.menuRepo.FindByID(ctx, menuItemID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("%w: menu item %s", ErrNotFound, menuItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: menu item %s is unavailable", ErrNotFound, menuItemID)
	}

	return s.mutate(ctx, identity, "add_to_cart", func(tx *gorm.DB, cart *model.Cart) error {
		existing, err := s.cartRepo.GetItem(ctx, tx, cart.ID, item.ID)
		if err == nil {
			newQty := existing.Qty + qty
			return s.cartRepo.UpdateItemQty(ctx, tx, existing.ID, newQty, model.LineTotal(existing.UnitPrice, newQty))
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("get cart item: %w", err)
		}

		err = s.cartRepo.CreateItem(ctx, tx, &model.CartItem{
			ID:         uuid.NewString(),
			CartID:     cart.ID,
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Qty:        qty,
			LineTotal:  model.LineTotal(item.Price, qty),
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent add inserted the line first; the retry merges into it
			return ErrStaleWrite
		}
		return err
	})
}

// UpdateQuantity overwrites the line quantity. A quantity of zero or less
// removes the line.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, identity model.Identity, menuItemID string, qty int32) (*model.Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, identity, menuItemID)
	}

	return s.mutate(ctx, identity, "update_quantity", func(tx *gorm.DB, cart *model.Cart) error {
		existing, err := s.cartRepo.GetItem(ctx, tx, cart.ID, menuItemID)
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get cart item: %w", err)
		}

		return s.cartRepo.UpdateItemQty(ctx, tx, existing.ID, qty, model.LineTotal(existing.UnitPrice, qty))
	})
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, identity model.Identity, menuItemID string) (*model.Cart, error) {
	return s.mutate(ctx, identity, "remove_item", func(tx *gorm.DB, cart *model.Cart) error {
		deleted, err := s.cartRepo.DeleteItem(ctx, tx, cart.ID, menuItemID)
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		if deleted == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, identity model.Identity) (*model.Cart, error) {
	return s.mutate(ctx, identity, "clear_cart", func(tx *gorm.DB, cart *model.Cart) error {
		return s.cartRepo.DeleteAllItems(ctx, tx, cart.ID)
	})
}

// RefreshCart recomputes the aggregate from the current lines.
func (s *cartServiceImpl) RefreshCart(ctx context.Context, identity model.Identity) (*model.Cart, error) {
	return s.mutate(ctx, identity, "refresh_cart", func(tx *gorm.DB, cart *model.Cart) error {
		return nil
	})
}

// MergeDuplicateActiveCarts folds every extra active cart of a user into the
// oldest one. It returns the number of carts merged away.
func (s *cartServiceImpl) MergeDuplicateActiveCarts(ctx context.Context) (int, error) {
	if err := s.cartRepo.BackfillActiveUsers(ctx); err != nil {
		return 0, fmt.Errorf("backfill active carts: %w", err)
	}

	userIDs, err := s.cartRepo.DuplicateActiveUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("find duplicate carts: %w", err)
	}

	merged := 0
	for _, userID := range userIDs {
		count := 0
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			carts, err := s.cartRepo.ListActiveByUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			if len(carts) < 2 {
				return nil
			}

			keep := carts[0]
			for _, dup := range carts[1:] {
				if err := s.foldInto(ctx, tx, keep, dup); err != nil {
					return err
				}
				count++
			}

			return s.refresh(ctx, tx, keep)
		})
		if err != nil {
			return merged, fmt.Errorf("merge carts of user %s: %w", userID, err)
		}

		s.log.WithFields(logrus.Fields{"user_id": userID, "merged": count}).Info("merged duplicate active carts")
		merged += count
	}

	return merged, nil
}

func (s *cartServiceImpl) foldInto(ctx context.Context, tx *gorm.DB, keep, dup *model.Cart) error {
	items, err := s.cartRepo.ListItems(ctx, tx, dup.ID)
	if err != nil {
		return err
	}

	for _, item := range items {
		existing, err := s.cartRepo.GetItem(ctx, tx, keep.ID, item.MenuItemID)
		switch {
		case err == nil:
			qty := existing.Qty + item.Qty
			if err := s.cartRepo.UpdateItemQty(ctx, tx, existing.ID, qty, model.LineTotal(existing.UnitPrice, qty)); err != nil {
				return err
			}
			if _, err := s.cartRepo.DeleteItem(ctx, tx, dup.ID, item.MenuItemID); err != nil {
				return err
			}
		case repository.IsNotFound(err):
			if err := s.cartRepo.MoveItem(ctx, tx, item.ID, keep.ID); err != nil {
				return err
			}
		default:
			return err
		}
	}

	return s.cartRepo.MarkStatus(ctx, tx, dup.ID, model.CartStatusMerged)
}

func (s *cartServiceImpl) getOrCreateActive(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.GetActive(ctx, s.db, userID)
	if err == nil {
		return cart, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("get active cart: %w", err)
	}

	activeUserID := userID
	_, err = s.cartRepo.CreateActive(ctx, s.db, &model.Cart{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActiveUserID: &activeUserID,
		Status:       model.CartStatusActive,
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
		Fees:         decimal.Zero,
		Tip:          decimal.Zero,
		Total:        decimal.Zero,
	})
	if err != nil {
		return nil, fmt.Errorf("create active cart: %w", err)
	}

	// whichever insert won, there is exactly one active cart now
	return s.cartRepo.GetActive(ctx, s.db, userID)
}

// mutate runs fn and the aggregate refresh in one transaction, retrying when
// the cart version moved underneath us.
func (s *cartServiceImpl) mutate(ctx context.Context, identity model.Identity, op string, fn func(tx *gorm.DB, cart *model.Cart) error) (*model.Cart, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}

	var err error
	for attempt := 1; attempt <= maxCartWriteAttempts; attempt++ {
		// a paid checkout may have closed the cart since the last attempt
		if _, err := s.getOrCreateActive(ctx, identity.UserID); err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cart, err := s.cartRepo.GetActive(ctx, tx, identity.UserID)
			if repository.IsNotFound(err) {
				return ErrStaleWrite
			}
			if err != nil {
				return fmt.Errorf("get active cart: %w", err)
			}

			if err := fn(tx, cart); err != nil {
				return err
			}

			return s.refresh(ctx, tx, cart)
		})
		if !errors.Is(err, ErrStaleWrite) {
			break
		}

		s.log.WithFields(logrus.Fields{
			"user_id": identity.UserID,
			"op":      op,
			"attempt": attempt,
		}).Warn("stale cart version, retrying")
	}
	if err != nil {
		return nil, err
	}

	return s.cartRepo.GetActive(ctx, s.db, identity.UserID)
}

func (s *cartServiceImpl) refresh(ctx context.Context, tx *gorm.DB, cart *model.Cart) error {
	items, err := s.cartRepo.ListItems(ctx, tx, cart.ID)
	if err != nil {
		return fmt.Errorf("list cart items: %w", err)
	}

	totals := model.ComputeCartTotals(items, s.taxRate)

	updated, err := s.cartRepo.UpdateTotals(ctx, tx, cart.ID, cart.Version, totals)
	if err != nil {
		return fmt.Errorf("update cart totals: %w", err)
	}
	if !updated {
		return ErrStaleWrite
	}

	return nil
}
