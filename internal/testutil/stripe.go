package testutil

import (
	"context"
	"errors"
	"fmt"
	"lounge-portal/internal/client"
	"sync"
)

// FakeStripe is an in-memory client.StripeClient. Sessions created through it
// start open and unpaid; tests flip them with MarkPaid or ExpireSession. A
// repeated idempotency key returns the session it first created.
type FakeStripe struct {
	mu sync.Mutex

	Customers map[string]string // email -> customer id
	Sessions  map[string]*client.CheckoutSession
	Cards     map[string][]*client.Card // customer id -> cards
	Requests  []*client.CheckoutSessionRequest
	Detached  []string
	Events    map[string]*client.WebhookEvent // signature -> event

	byIdempotencyKey map[string]string

	CreateErr error
	nextID    int
}

func NewFakeStripe() *FakeStripe {
	return &FakeStripe{
		Customers: map[string]string{},
		Sessions:  map[string]*client.CheckoutSession{},
		Cards:     map[string][]*client.Card{},
		Events:    map[string]*client.WebhookEvent{},

		byIdempotencyKey: map[string]string{},
	}
}

func (f *FakeStripe) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

// PutSession registers a session as if it had been created remotely.
func (f *FakeStripe) PutSession(session *client.CheckoutSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sessions[session.ID] = session
}

func (f *FakeStripe) MarkPaid(sessionID string, card *client.Card) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.Sessions[sessionID]
	session.Status = "complete"
	session.PaymentStatus = "paid"
	session.Card = card
}

func (f *FakeStripe) ExpireSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sessions[sessionID].Status = "expired"
}

// SignEvent registers an event that ConstructEvent returns for signature.
func (f *FakeStripe) SignEvent(signature string, event *client.WebhookEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events[signature] = event
}

func (f *FakeStripe) FindCustomer(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Customers[email], nil
}

func (f *FakeStripe) FindOrCreateCustomer(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.Customers[email]; ok {
		return id, nil
	}
	id := f.id("cus")
	f.Customers[email] = id
	return id, nil
}

func (f *FakeStripe) CreateCheckoutSession(ctx context.Context, req *client.CheckoutSessionRequest) (*client.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.Requests = append(f.Requests, req)

	if id, ok := f.byIdempotencyKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		copied := *f.Sessions[id]
		return &copied, nil
	}

	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	id := f.id("cs_test")
	session := &client.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		Status:        "open",
		PaymentStatus: "unpaid",
		CustomerID:    req.CustomerID,
		AmountTotal:   req.AmountCents,
		Metadata:      metadata,
	}
	f.Sessions[id] = session
	f.byIdempotencyKey[req.IdempotencyKey] = id

	copied := *session
	return &copied, nil
}

func (f *FakeStripe) GetCheckoutSession(ctx context.Context, sessionID string) (*client.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("get stripe checkout session: no such session %s", sessionID)
	}
	copied := *session
	return &copied, nil
}

func (f *FakeStripe) ConstructEvent(payload []byte, signature string) (*client.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.Events[signature]
	if !ok {
		return nil, errors.New("verify stripe signature: no signatures found matching the expected signature")
	}
	return event, nil
}

func (f *FakeStripe) ListCards(ctx context.Context, customerID string) ([]*client.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Cards[customerID], nil
}

func (f *FakeStripe) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Detached = append(f.Detached, paymentMethodID)
	return nil
}

// Ensure the fake keeps up with the interface.
var _ client.StripeClient = (*FakeStripe)(nil)
