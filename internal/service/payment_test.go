package service

import (
	"context"
	"lounge-portal/internal/client"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var visa = &client.Card{PaymentMethodID: "pm_visa", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030}

func TestCheckoutService_CreateCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orderWithSession(t, alice)

	resp, err := f.checkout.CreateCheckout(ctx, alice, &dto.CreateCheckoutRequest{
		Type:        "order",
		ReferenceID: order.ID,
		Amount:      order.Total,
		Metadata:    map[string]string{"table": "7", "userId": "spoofed"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.URL)
	assert.NotEmpty(t, resp.SessionID)

	// 14175 cents plus 709 cents VAT
	requireDecimal(t, "141.75", order.Total)
	req := f.stripe.Requests[len(f.stripe.Requests)-1]
	assert.Equal(t, int64(14884), req.AmountCents)
	assert.Equal(t, "eur", req.Currency)
	assert.Equal(t, f.stripe.Customers[alice.Email], req.CustomerID)
	assert.Equal(t, map[string]string{
		"type":        "order",
		"referenceId": order.ID,
		"userId":      alice.UserID,
		"table":       "7",
	}, req.Metadata)

	success, err := url.Parse(req.SuccessURL)
	require.NoError(t, err)
	assert.Equal(t, "/payment-success", success.Path)
	assert.Equal(t, "{CHECKOUT_SESSION_ID}", success.Query().Get("session_id"))
	assert.Equal(t, "order", success.Query().Get("type"))
	assert.Equal(t, order.ID, success.Query().Get("ref"))

	cancel, err := url.Parse(req.CancelURL)
	require.NoError(t, err)
	assert.Equal(t, "/payment-cancelled", cancel.Path)
	assert.Equal(t, order.ID, cancel.Query().Get("ref"))

	assert.Contains(t, req.IdempotencyKey, order.ID)
}

func TestCheckoutService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orderWithSession(t, alice)
	valid := func() *dto.CreateCheckoutRequest {
		return &dto.CreateCheckoutRequest{Type: "order", ReferenceID: order.ID, Amount: order.Total}
	}

	_, err := f.checkout.CreateCheckout(ctx, model.GuestIdentity(), valid())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.checkout.CreateCheckout(ctx, model.Identity{}, valid())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	req := valid()
	req.Type = "gift_card"
	_, err = f.checkout.CreateCheckout(ctx, alice, req)
	assert.ErrorIs(t, err, ErrUnknownPurchaseType)

	req = valid()
	req.Amount = dec("0")
	_, err = f.checkout.CreateCheckout(ctx, alice, req)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	req = valid()
	req.ReferenceID = "no-such-order"
	_, err = f.checkout.CreateCheckout(ctx, alice, req)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.checkout.CreateCheckout(ctx, bob, valid())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutService_DownstreamErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	order, _ := f.orderWithSession(t, alice)

	f.stripe.CreateErr = assert.AnError
	_, err := f.checkout.CreateCheckout(context.Background(), alice, &dto.CreateCheckoutRequest{
		Type: "order", ReferenceID: order.ID, Amount: order.Total,
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCheckoutService_RejectsAmountOtherThanStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orderWithSession(t, alice)
	sent := len(f.stripe.Requests)

	_, err := f.checkout.CreateCheckout(ctx, alice, &dto.CreateCheckoutRequest{
		Type: "order", ReferenceID: order.ID, Amount: dec("0.01"),
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Len(t, f.stripe.Requests, sent)
}

func TestCheckoutService_ReplacesExpiredReplayedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, first := f.orderWithSession(t, alice)
	req := &dto.CreateCheckoutRequest{Type: "order", ReferenceID: order.ID, Amount: order.Total}

	again, err := f.checkout.CreateCheckout(ctx, alice, req)
	require.NoError(t, err)
	assert.Equal(t, first, again.SessionID)

	f.stripe.ExpireSession(first)

	fresh, err := f.checkout.CreateCheckout(ctx, alice, req)
	require.NoError(t, err)
	assert.NotEqual(t, first, fresh.SessionID)
	assert.Equal(t, "open", f.stripe.Sessions[fresh.SessionID].Status)
}

func TestPaymentService_ReconcileRejectsUnderpaidSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orderWithSession(t, alice)
	f.stripe.PutSession(&client.CheckoutSession{
		ID:            "cs_cheap",
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   1,
		Metadata:      map[string]string{"type": "order", "referenceId": order.ID, "userId": alice.UserID},
	})

	_, err := f.payment.VerifyPayment(ctx, alice, "cs_cheap")
	assert.ErrorIs(t, err, ErrAmountMismatch)

	// the webhook acknowledges it so Stripe stops redelivering
	f.stripe.SignEvent("sig", &client.WebhookEvent{ID: "evt_cheap", Type: client.EventCheckoutSessionCompleted, SessionID: "cs_cheap"})
	assert.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "sig"))

	unchanged, err := f.orderRepo.FindByID(ctx, f.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, unchanged.PaymentStatus)
	assert.Empty(t, unchanged.Items)

	var processed int64
	require.NoError(t, f.db.Model(&model.ProcessedPayment{}).Count(&processed).Error)
	assert.Zero(t, processed)
	assert.Empty(t, f.pub.topics())
}

func TestPaymentService_WebhookTwiceCopiesItemsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, sessionID := f.orderWithSession(t, alice)
	f.stripe.MarkPaid(sessionID, visa)
	f.stripe.SignEvent("sig-1", &client.WebhookEvent{ID: "evt_1", Type: client.EventCheckoutSessionCompleted, SessionID: sessionID})
	f.stripe.SignEvent("sig-2", &client.WebhookEvent{ID: "evt_2", Type: client.EventCheckoutSessionCompleted, SessionID: sessionID})

	require.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "sig-1"))
	require.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "sig-2"))

	paid, err := f.orderRepo.FindByID(ctx, f.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, model.OrderStatusNew, paid.Status)
	assert.Equal(t, sessionID, paid.StripeSessionID)

	require.Len(t, paid.Items, 2)
	qty := map[string]int32{}
	for _, line := range paid.Items {
		qty[line.MenuItemID] = line.Qty
	}
	assert.Equal(t, map[string]int32{"burger_meal": 2, "raid_combo": 1}, qty)

	var cart model.Cart
	require.NoError(t, f.db.First(&cart, "id = ?", order.CartID).Error)
	assert.Equal(t, model.CartStatusCompleted, cart.Status)

	cards, err := f.savedCardRepo.ListByUser(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "4242", cards[0].Last4)

	var notifications int64
	require.NoError(t, f.db.Model(&model.Notification{}).Count(&notifications).Error)
	assert.Equal(t, int64(2), notifications)
	assert.ElementsMatch(t, []string{"role:staff", "user:" + alice.UserID}, f.pub.topics())

	var processed int64
	require.NoError(t, f.db.Model(&model.ProcessedPayment{}).Count(&processed).Error)
	assert.Equal(t, int64(1), processed)
}

func TestPaymentService_VerifyUnpaidMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, sessionID := f.orderWithSession(t, alice)

	_, err := f.payment.VerifyPayment(ctx, alice, sessionID)
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)

	unchanged, err := f.orderRepo.FindByID(ctx, f.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, unchanged.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, unchanged.Status)
	assert.Empty(t, unchanged.Items)

	var processed int64
	require.NoError(t, f.db.Model(&model.ProcessedPayment{}).Count(&processed).Error)
	assert.Zero(t, processed)

	cart, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, order.CartID, cart.ID)
	assert.Empty(t, f.pub.topics())
}

func TestPaymentService_VerifyThenWebhook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, sessionID := f.orderWithSession(t, alice)
	f.stripe.MarkPaid(sessionID, nil)

	result, err := f.payment.VerifyPayment(ctx, alice, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseOrder, result.Type)
	assert.Equal(t, order.ID, result.ReferenceID)
	assert.False(t, result.AlreadyProcessed)

	f.stripe.SignEvent("sig", &client.WebhookEvent{ID: "evt_late", Type: client.EventCheckoutSessionCompleted, SessionID: sessionID})
	require.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "sig"))

	again, err := f.payment.VerifyPayment(ctx, alice, sessionID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, order.ID, again.ReferenceID)

	items, err := f.orderRepo.GetOrderItems(ctx, f.db, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// the old cart is closed; the user gets a fresh one
	cart, err := f.cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.NotEqual(t, order.CartID, cart.ID)
	assert.Empty(t, cart.Items)
}

func TestPaymentService_VerifyRejectsOtherUsersSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, sessionID := f.orderWithSession(t, alice)
	f.stripe.MarkPaid(sessionID, nil)

	_, err := f.payment.VerifyPayment(ctx, bob, sessionID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.payment.VerifyPayment(ctx, model.GuestIdentity(), sessionID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.payment.VerifyPayment(ctx, alice, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPaymentService_WebhookSignatureAndIgnoredEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.payment.HandleWebhook(ctx, []byte("{}"), "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	f.stripe.SignEvent("other", &client.WebhookEvent{ID: "evt_x", Type: "customer.created"})
	assert.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "other"))

	// completed but not yet paid sessions are acknowledged and left alone
	order, sessionID := f.orderWithSession(t, alice)
	f.stripe.SignEvent("pending", &client.WebhookEvent{ID: "evt_p", Type: client.EventCheckoutSessionCompleted, SessionID: sessionID})
	assert.NoError(t, f.payment.HandleWebhook(ctx, []byte("{}"), "pending"))

	unchanged, err := f.orderRepo.FindByID(ctx, f.db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, unchanged.PaymentStatus)
}

func TestPaymentService_ReconcileReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registration, err := f.purchase.CreateEventRegistration(ctx, alice, &dto.CreateEventRegistrationRequest{
		EventID: "fifa-cup", Attendees: 2, Amount: dec("30"),
	})
	require.NoError(t, err)

	resp, err := f.checkout.CreateCheckout(ctx, alice, &dto.CreateCheckoutRequest{
		Type: "event_registration", ReferenceID: registration.ID, Amount: registration.Amount,
	})
	require.NoError(t, err)
	f.stripe.MarkPaid(resp.SessionID, nil)

	result, err := f.payment.Reconcile(ctx, resp.SessionID, model.PaymentSourceWebhook, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseEventRegistration, result.Type)

	var stored model.EventRegistration
	require.NoError(t, f.db.First(&stored, "id = ?", registration.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, model.ReservationStatusConfirmed, stored.Status)
	assert.Equal(t, resp.SessionID, stored.StripeSessionID)
}

func TestPaymentService_ReconcileMissingReferenceRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stripe.PutSession(&client.CheckoutSession{
		ID:            "cs_orphan",
		PaymentStatus: "paid",
		Metadata:      map[string]string{"type": "party_request", "referenceId": "gone", "userId": alice.UserID},
	})

	_, err := f.payment.Reconcile(ctx, "cs_orphan", model.PaymentSourceWebhook, "evt_1")
	assert.ErrorIs(t, err, ErrNotFound)

	var processed int64
	require.NoError(t, f.db.Model(&model.ProcessedPayment{}).Count(&processed).Error)
	assert.Zero(t, processed)
}

func TestPaymentService_PaymentMethods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cards, err := f.payment.ListPaymentMethods(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, cards)

	f.stripe.Customers[alice.Email] = "cus_alice"
	f.stripe.Cards["cus_alice"] = []*client.Card{visa}

	cards, err = f.payment.ListPaymentMethods(ctx, alice)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "pm_visa", cards[0].PaymentMethodID)
	assert.Equal(t, "cus_alice", cards[0].CustomerID)

	err = f.payment.DeletePaymentMethod(ctx, bob, "pm_visa")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.stripe.Detached)

	require.NoError(t, f.payment.DeletePaymentMethod(ctx, alice, "pm_visa"))
	assert.Equal(t, []string{"pm_visa"}, f.stripe.Detached)

	remaining, err := f.savedCardRepo.ListByUser(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
