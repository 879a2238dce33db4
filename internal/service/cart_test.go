package service

import (
	"context"
	"lounge-portal/internal/client"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"lounge-portal/internal/testutil"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCartService_GetCartCreatesOneActiveCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	second, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.CartStatusActive, first.Status)
	assert.Empty(t, first.Items)
	requireDecimal(t, "0", first.Total)
}

func TestCartService_RejectsAnonymous(t *testing.T) {
	f := newFixture(t)

	_, err := f.cart.GetCart(context.Background(), model.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.cart.AddToCart(context.Background(), model.Identity{}, "soda", 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCartService_GuestUsesFixedCart(t *testing.T) {
	f := newFixture(t)

	cart, err := f.cart.AddToCart(context.Background(), model.GuestIdentity(), "soda", 2)
	require.NoError(t, err)

	assert.Equal(t, model.GuestUserID, cart.UserID)
	requireDecimal(t, "5", cart.Subtotal)
}

func TestCartService_SnackAndComboTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "burger_meal", 2)
	require.NoError(t, err)
	cart, err := f.cart.AddToCart(ctx, alice, "raid_combo", 1)
	require.NoError(t, err)

	requireDecimal(t, "135", cart.Subtotal)
	requireDecimal(t, "6.75", cart.Tax)
	requireDecimal(t, "0", cart.Fees)
	requireDecimal(t, "0", cart.Tip)
	requireDecimal(t, "141.75", cart.Total)
	assert.Len(t, cart.Items, 2)
}

func TestCartService_AddMergesIntoExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "popcorn", 1)
	require.NoError(t, err)
	// a catalogue price change does not reprice a line already in the cart
	require.NoError(t, f.db.Model(&model.MenuItem{}).Where("id = ?", "popcorn").Update("price", dec("5.00")).Error)
	cart, err := f.cart.AddToCart(ctx, alice, "popcorn", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(3), cart.Items[0].Qty)
	requireDecimal(t, "4", cart.Items[0].UnitPrice)
	requireDecimal(t, "12", cart.Items[0].LineTotal)
	requireDecimal(t, "12.60", cart.Total)
}

func TestCartService_AddRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "soda", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.cart.AddToCart(ctx, alice, "soda", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.cart.AddToCart(ctx, alice, "", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.cart.AddToCart(ctx, alice, "caviar", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.cart.AddToCart(ctx, alice, "lobster", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_AddUsesCataloguePrice(t *testing.T) {
	f := newFixture(t)

	cart, err := f.cart.AddToCart(context.Background(), alice, "nachos", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "nachos", cart.Items[0].Name)
	requireDecimal(t, "8.50", cart.Items[0].UnitPrice)
	requireDecimal(t, "17", cart.Items[0].LineTotal)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "energy_drink", 1)
	require.NoError(t, err)

	cart, err := f.cart.UpdateQuantity(ctx, alice, "energy_drink", 4)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(4), cart.Items[0].Qty)
	requireDecimal(t, "14", cart.Subtotal)
	requireDecimal(t, "0.70", cart.Tax)
	requireDecimal(t, "14.70", cart.Total)

	_, err = f.cart.UpdateQuantity(ctx, alice, "missing", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_UpdateToZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	build := func(t *testing.T) *fixture {
		f := newFixture(t)
		_, err := f.cart.AddToCart(ctx, alice, "nachos", 2)
		require.NoError(t, err)
		_, err = f.cart.AddToCart(ctx, alice, "soda", 3)
		require.NoError(t, err)
		return f
	}

	viaUpdate := build(t)
	updated, err := viaUpdate.cart.UpdateQuantity(ctx, alice, "nachos", 0)
	require.NoError(t, err)

	viaRemove := build(t)
	removed, err := viaRemove.cart.RemoveItem(ctx, alice, "nachos")
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	require.Len(t, removed.Items, 1)
	assert.Equal(t, removed.Items[0].MenuItemID, updated.Items[0].MenuItemID)
	assert.Equal(t, removed.Items[0].Qty, updated.Items[0].Qty)
	assert.True(t, removed.Subtotal.Equal(updated.Subtotal))
	assert.True(t, removed.Tax.Equal(updated.Tax))
	assert.True(t, removed.Total.Equal(updated.Total))

	_, err = viaUpdate.cart.UpdateQuantity(ctx, alice, "nachos", -3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_ClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "nachos", 2)
	require.NoError(t, err)

	cart, err := f.cart.ClearCart(ctx, alice)
	require.NoError(t, err)

	assert.Empty(t, cart.Items)
	requireDecimal(t, "0", cart.Total)
}

func TestCartService_TotalsHoldAfterMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	steps := []func() error{
		func() error { _, err := f.cart.AddToCart(ctx, alice, "nachos", 3); return err },
		func() error { _, err := f.cart.AddToCart(ctx, alice, "soda", 1); return err },
		func() error { _, err := f.cart.AddToCart(ctx, alice, "popcorn", 2); return err },
		func() error { _, err := f.cart.UpdateQuantity(ctx, alice, "soda", 7); return err },
		func() error { _, err := f.cart.RemoveItem(ctx, alice, "popcorn"); return err },
		func() error { _, err := f.cart.AddToCart(ctx, alice, "nachos", 1); return err },
		func() error { _, err := f.cart.RefreshCart(ctx, alice); return err },
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)

		cart, err := f.cart.GetCart(ctx, alice)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, line := range cart.Items {
			requireDecimal(t, line.UnitPrice.Mul(decimal.NewFromInt32(line.Qty)).String(), line.LineTotal)
			sum = sum.Add(line.LineTotal)
		}
		tax := sum.Mul(dec("0.05")).Round(2)

		requireDecimal(t, sum.String(), cart.Subtotal)
		requireDecimal(t, tax.String(), cart.Tax)
		requireDecimal(t, sum.Add(tax).String(), cart.Total)
	}
}

type staleCartRepo struct {
	repository.CartRepository
	attempts int
}

func (r *staleCartRepo) UpdateTotals(ctx context.Context, tx *gorm.DB, cartID string, version int64, totals model.CartTotals) (bool, error) {
	r.attempts++
	return false, nil
}

func TestCartService_StaleWriteRetriesThenRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	repo := &staleCartRepo{CartRepository: f.cartRepo}
	svc := NewCartService(f.db, repo, f.menuRepo, dec("0.05"), testutil.QuietLogger())

	_, err := svc.AddToCart(ctx, alice, "nachos", 1)
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, maxCartWriteAttempts, repo.attempts)

	cart, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	requireDecimal(t, "0", cart.Total)
}

// racingCartRepo hides an existing line from the first lookup, as if another
// request inserted it after we looked.
type racingCartRepo struct {
	repository.CartRepository
	hidden bool
}

func (r *racingCartRepo) GetItem(ctx context.Context, tx *gorm.DB, cartID, menuItemID string) (*model.CartItem, error) {
	if !r.hidden {
		r.hidden = true
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.GetItem(ctx, tx, cartID, menuItemID)
}

func TestCartService_ConcurrentInsertOfSameLineMerges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "nachos", 1)
	require.NoError(t, err)

	svc := NewCartService(f.db, &racingCartRepo{CartRepository: f.cartRepo}, f.menuRepo, dec("0.05"), testutil.QuietLogger())
	cart, err := svc.AddToCart(ctx, alice, "nachos", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(3), cart.Items[0].Qty)
	requireDecimal(t, "25.50", cart.Subtotal)
}

// closingCartRepo completes the active cart right after it is first read,
// the way a paid checkout does.
type closingCartRepo struct {
	repository.CartRepository
	closed string
}

func (r *closingCartRepo) GetActive(ctx context.Context, tx *gorm.DB, userID string) (*model.Cart, error) {
	cart, err := r.CartRepository.GetActive(ctx, tx, userID)
	if err != nil || r.closed != "" {
		return cart, err
	}

	r.closed = cart.ID
	if err := r.CartRepository.MarkStatus(ctx, tx, cart.ID, model.CartStatusCompleted); err != nil {
		return nil, err
	}
	return cart, nil
}

func TestCartService_MutationAfterCartClosedUsesFreshCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, alice, "nachos", 1)
	require.NoError(t, err)

	repo := &closingCartRepo{CartRepository: f.cartRepo}
	svc := NewCartService(f.db, repo, f.menuRepo, dec("0.05"), testutil.QuietLogger())

	cart, err := svc.AddToCart(ctx, alice, "soda", 2)
	require.NoError(t, err)

	assert.NotEqual(t, repo.closed, cart.ID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "soda", cart.Items[0].MenuItemID)
	requireDecimal(t, "5.25", cart.Total)

	var closed model.Cart
	require.NoError(t, f.db.First(&closed, "id = ?", repo.closed).Error)
	assert.Equal(t, model.CartStatusCompleted, closed.Status)
}

func TestCartRepository_UpdateTotalsChecksVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.cart.AddToCart(ctx, alice, "nachos", 1)
	require.NoError(t, err)

	updated, err := f.cartRepo.UpdateTotals(ctx, f.db, cart.ID, cart.Version-1, model.CartTotals{
		Subtotal: dec("1"), Tax: dec("0"), Fees: dec("0"), Tip: dec("0"), Total: dec("1"),
	})
	require.NoError(t, err)
	assert.False(t, updated)

	fresh, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	requireDecimal(t, "8.50", fresh.Subtotal)
	assert.Equal(t, cart.Version, fresh.Version)
}

func TestCartService_MergeDuplicateActiveCarts(t *testing.T) {
	db := testutil.NewRawDB(t)
	f := newFixtureWithDB(t, db)
	ctx := context.Background()

	// legacy rows predate active_user_id
	older := &model.Cart{ID: uuid.NewString(), UserID: alice.UserID, Status: model.CartStatusActive, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &model.Cart{ID: uuid.NewString(), UserID: alice.UserID, Status: model.CartStatusActive, CreatedAt: time.Now()}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	lines := []*model.CartItem{
		{ID: uuid.NewString(), CartID: older.ID, MenuItemID: "nachos", Name: "nachos", UnitPrice: dec("8.50"), Qty: 1, LineTotal: dec("8.50")},
		{ID: uuid.NewString(), CartID: newer.ID, MenuItemID: "nachos", Name: "nachos", UnitPrice: dec("8.50"), Qty: 2, LineTotal: dec("17.00")},
		{ID: uuid.NewString(), CartID: newer.ID, MenuItemID: "soda", Name: "soda", UnitPrice: dec("2.50"), Qty: 1, LineTotal: dec("2.50")},
	}
	require.NoError(t, db.Create(&lines).Error)

	merged, err := f.cart.MergeDuplicateActiveCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	cart, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, older.ID, cart.ID)
	require.Len(t, cart.Items, 2)

	qty := map[string]int32{}
	for _, line := range cart.Items {
		qty[line.MenuItemID] = line.Qty
	}
	assert.Equal(t, map[string]int32{"nachos": 3, "soda": 1}, qty)
	requireDecimal(t, "28", cart.Subtotal)
	requireDecimal(t, "1.40", cart.Tax)
	requireDecimal(t, "29.40", cart.Total)

	var dup model.Cart
	require.NoError(t, db.First(&dup, "id = ?", newer.ID).Error)
	assert.Equal(t, model.CartStatusMerged, dup.Status)
	assert.Nil(t, dup.ActiveUserID)

	// running again is a no-op and the unique index can now be created
	merged, err = f.cart.MergeDuplicateActiveCarts(ctx)
	require.NoError(t, err)
	assert.Zero(t, merged)
	require.NoError(t, client.EnsureActiveCartIndex(db))
}
