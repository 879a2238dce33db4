package client

import (
	"context"
	"encoding/json"
	"fmt"
	"lounge-portal/internal/config"

	"github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

type StripeClient interface {
	FindCustomer(ctx context.Context, email string) (string, error)
	FindOrCreateCustomer(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
	ListCards(ctx context.Context, customerID string) ([]*Card, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}

type CheckoutSessionRequest struct {
	CustomerID     string
	Currency       string
	ProductName    string
	AmountCents    int64
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID            string
	URL           string
	Status        string // open, complete, expired
	PaymentStatus string
	CustomerID    string
	AmountTotal   int64
	Metadata      map[string]string
	Card          *Card
}

type Card struct {
	PaymentMethodID string
	Brand           string
	Last4           string
	ExpMonth        int64
	ExpYear         int64
}

type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

type stripeClientImpl struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		api:           stripeclient.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) FindCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list stripe customers: %w", err)
	}

	return "", nil
}

func (c *stripeClientImpl) FindOrCreateCustomer(ctx context.Context, email string) (string, error) {
	customerID, err := c.FindCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		return customerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	return customer.ID, nil
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
			Metadata:         req.Metadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return toCheckoutSession(session), nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.payment_method")

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get stripe checkout session: %w", err)
	}

	return toCheckoutSession(session), nil
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify stripe signature: %w", err)
	}

	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if event.Data != nil && len(event.Data.Raw) > 0 {
		var object struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		}
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return nil, fmt.Errorf("decode event object: %w", err)
		}
		if object.Object == "checkout.session" {
			result.SessionID = object.ID
		}
	}

	return result, nil
}

func (c *stripeClientImpl) ListCards(ctx context.Context, customerID string) ([]*Card, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var cards []*Card
	iter := c.api.PaymentMethods.List(params)
	for iter.Next() {
		if card := toCard(iter.PaymentMethod()); card != nil {
			cards = append(cards, card)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe payment methods: %w", err)
	}

	return cards, nil
}

func (c *stripeClientImpl) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	_, err := c.api.PaymentMethods.Detach(paymentMethodID, params)
	if err != nil {
		return fmt.Errorf("detach stripe payment method: %w", err)
	}

	return nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	session := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.Customer != nil {
		session.CustomerID = s.Customer.ID
	}
	if s.PaymentIntent != nil {
		session.Card = toCard(s.PaymentIntent.PaymentMethod)
	}

	return session
}

func toCard(pm *stripe.PaymentMethod) *Card {
	if pm == nil || pm.Card == nil {
		return nil
	}

	return &Card{
		PaymentMethodID: pm.ID,
		Brand:           string(pm.Card.Brand),
		Last4:           pm.Card.Last4,
		ExpMonth:        pm.Card.ExpMonth,
		ExpYear:         pm.Card.ExpYear,
	}
}
