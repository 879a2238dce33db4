package service

import (
	"context"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"lounge-portal/internal/testutil"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alice = model.AuthenticatedIdentity("user-alice", "alice@example.com", model.RoleCustomer)
	bob   = model.AuthenticatedIdentity("user-bob", "bob@example.com", model.RoleCustomer)
	staff = model.AuthenticatedIdentity("user-staff", "staff@example.com", model.RoleStaff)
)

type published struct {
	topic string
	kind  string
	data  any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) add(topic, kind string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, kind: kind, data: data})
}

func (p *recordingPublisher) PublishToUser(id, kind string, data any) { p.add("user:"+id, kind, data) }
func (p *recordingPublisher) PublishToRole(r, kind string, data any)  { p.add("role:"+r, kind, data) }
func (p *recordingPublisher) PublishToRoom(id, kind string, data any) { p.add("room:"+id, kind, data) }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.events))
	for i, e := range p.events {
		topics[i] = e.topic
	}
	return topics
}

type fixture struct {
	db     *gorm.DB
	stripe *testutil.FakeStripe
	pub    *recordingPublisher

	cartRepo      repository.CartRepository
	menuRepo      repository.MenuRepository
	orderRepo     repository.OrderRepository
	savedCardRepo repository.SavedCardRepository

	cart         CartService
	checkout     CheckoutService
	payment      PaymentService
	purchase     PurchaseService
	notification NotificationService
	staff        StaffService
	chat         ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDB(t, testutil.NewDB(t))
}

func newFixtureWithDB(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	log := testutil.QuietLogger()
	rate := decimal.RequireFromString("0.05")
	stripe := testutil.NewFakeStripe()
	pub := &recordingPublisher{}

	cartRepo := repository.NewCartRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	savedCardRepo := repository.NewSavedCardRepository(db)
	registry := repository.NewPurchasableRegistry(orderRepo, cartRepo)
	notification := NewNotificationService(db, repository.NewNotificationRepository(db), pub)

	require.NoError(t, db.Create(testMenu()).Error)

	return &fixture{
		db:            db,
		stripe:        stripe,
		pub:           pub,
		cartRepo:      cartRepo,
		menuRepo:      menuRepo,
		orderRepo:     orderRepo,
		savedCardRepo: savedCardRepo,
		cart:          NewCartService(db, cartRepo, menuRepo, rate, log),
		checkout:      NewCheckoutService(db, stripe, registry, "http://lounge.test", "eur", rate, log),
		payment:       NewPaymentService(db, stripe, registry, repository.NewProcessedPaymentRepository(db), savedCardRepo, notification, rate, log),
		purchase:      NewPurchaseService(db, cartRepo, orderRepo, repository.NewReservationRepository(db), log),
		notification:  notification,
		staff:         NewStaffService(db, orderRepo, notification, log),
		chat:          NewChatService(repository.NewChatRepository(db), pub),
	}
}

// testMenu is the catalogue every fixture starts with.
func testMenu() []*model.MenuItem {
	entry := func(id, category, price string, available bool) *model.MenuItem {
		return &model.MenuItem{ID: id, Name: id, Category: category, Price: dec(price), Available: available}
	}
	return []*model.MenuItem{
		entry("nachos", "SNACK", "8.50", true),
		entry("popcorn", "SNACK", "4.00", true),
		entry("soda", "DRINK", "2.50", true),
		entry("energy_drink", "DRINK", "3.50", true),
		entry("burger_meal", "MEAL", "20", true),
		entry("raid_combo", "COMBO", "95", true),
		entry("lobster", "MEAL", "60", false),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// orderWithSession fills the cart, creates an order and an unpaid checkout
// session for it. It returns the order and the session id.
func (f *fixture) orderWithSession(t *testing.T, identity model.Identity) (*model.Order, string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.cart.AddToCart(ctx, identity, "burger_meal", 2)
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, identity, "raid_combo", 1)
	require.NoError(t, err)

	order, err := f.purchase.CreateOrder(ctx, identity)
	require.NoError(t, err)

	resp, err := f.checkout.CreateCheckout(ctx, identity, &dto.CreateCheckoutRequest{
		Type:        string(model.PurchaseOrder),
		ReferenceID: order.ID,
		Amount:      order.Total,
	})
	require.NoError(t, err)

	return order, resp.SessionID
}
