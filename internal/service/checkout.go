package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/client"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const sessionStatusExpired = "expired"

// Session metadata keys read back during reconciliation.
const (
	MetaType        = "type"
	MetaReferenceID = "referenceId"
	MetaUserID      = "userId"
)

type CheckoutService interface {
	CreateCheckout(ctx context.Context, identity model.Identity, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db           *gorm.DB
	stripeClient client.StripeClient
	registry     *repository.PurchasableRegistry
	baseURL      string
	currency     string
	vatRate      decimal.Decimal
	log          *logrus.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	registry *repository.PurchasableRegistry,
	baseURL string,
	currency string,
	vatRate decimal.Decimal,
	log *logrus.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:           db,
		stripeClient: stripeClient,
		registry:     registry,
		baseURL:      baseURL,
		currency:     currency,
		vatRate:      vatRate,
		log:          log,
	}
}

func (s *checkoutServiceImpl) CreateCheckout(ctx context.Context, identity model.Identity, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	purchaseType, err := model.ParsePurchaseType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPurchaseType, req.Type)
	}
	purchasable, ok := s.registry.Lookup(purchaseType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPurchaseType, req.Type)
	}
	if req.ReferenceID == "" {
		return nil, fmt.Errorf("%w: referenceId is required", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	owned, err := purchasable.IsOwnedBy(ctx, s.db, req.ReferenceID, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("check purchase owner: %w", err)
	}
	if !owned {
		return nil, ErrNotFound
	}

	stored, err := purchasable.Amount(ctx, s.db, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("get purchase amount: %w", err)
	}
	if !req.Amount.Equal(stored) {
		return nil, fmt.Errorf("%w: got %s, stored %s", ErrAmountMismatch, req.Amount, stored)
	}

	logger := s.log.WithFields(logrus.Fields{
		"user_id":      identity.UserID,
		"type":         purchaseType,
		"reference_id": req.ReferenceID,
	})

	customerID, err := s.stripeClient.FindOrCreateCustomer(ctx, identity.Email)
	if err != nil {
		logger.WithError(err).Error("resolve billing customer")
		return nil, err
	}

	amount := model.ComputeCheckoutAmount(stored, s.vatRate)

	metadata := make(map[string]string, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[MetaType] = string(purchaseType)
	metadata[MetaReferenceID] = req.ReferenceID
	metadata[MetaUserID] = identity.UserID

	query := fmt.Sprintf("type=%s&ref=%s", url.QueryEscape(string(purchaseType)), url.QueryEscape(req.ReferenceID))

	sessionReq := &client.CheckoutSessionRequest{
		CustomerID:  customerID,
		Currency:    s.currency,
		ProductName: purchaseType.Label(),
		AmountCents: amount.Total,
		// Stripe substitutes {CHECKOUT_SESSION_ID} itself.
		SuccessURL:     fmt.Sprintf("%s/payment-success?session_id={CHECKOUT_SESSION_ID}&%s", s.baseURL, query),
		CancelURL:      fmt.Sprintf("%s/payment-cancelled?%s", s.baseURL, query),
		Metadata:       metadata,
		IdempotencyKey: fmt.Sprintf("checkout:%s:%s:%s:%d", identity.UserID, purchaseType, req.ReferenceID, amount.Total),
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, sessionReq)
	if err == nil && session.Status == sessionStatusExpired {
		// Stripe replayed a session that has since expired, start a new one
		logger.WithField("session_id", session.ID).Info("replayed checkout session expired, creating a new one")
		sessionReq.IdempotencyKey = fmt.Sprintf("%s:%d", sessionReq.IdempotencyKey, time.Now().UnixNano())
		session, err = s.stripeClient.CreateCheckoutSession(ctx, sessionReq)
	}
	if err != nil {
		logger.WithError(err).Error("create checkout session")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"session_id":  session.ID,
		"total_cents": amount.Total,
	}).Info("checkout session created")

	return &dto.CreateCheckoutResponse{
		URL:       session.URL,
		SessionID: session.ID,
	}, nil
}
