package service

import (
	"context"
	"errors"
	"fmt"
	"lounge-portal/internal/client"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	sessionPaymentPaid = "paid"

	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

type ReconcileResult struct {
	Type             model.PurchaseType
	ReferenceID      string
	AlreadyProcessed bool
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	VerifyPayment(ctx context.Context, identity model.Identity, sessionID string) (*ReconcileResult, error)
	Reconcile(ctx context.Context, sessionID, source, eventID string) (*ReconcileResult, error)
	ListPaymentMethods(ctx context.Context, identity model.Identity) ([]*model.SavedCard, error)
	DeletePaymentMethod(ctx context.Context, identity model.Identity, paymentMethodID string) error
}

type paymentServiceImpl struct {
	db                  *gorm.DB
	stripeClient        client.StripeClient
	registry            *repository.PurchasableRegistry
	processedRepo       repository.ProcessedPaymentRepository
	savedCardRepo       repository.SavedCardRepository
	notificationService NotificationService
	vatRate             decimal.Decimal
	log                 *logrus.Logger
}

func NewPaymentService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	registry *repository.PurchasableRegistry,
	processedRepo repository.ProcessedPaymentRepository,
	savedCardRepo repository.SavedCardRepository,
	notificationService NotificationService,
	vatRate decimal.Decimal,
	log *logrus.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:                  db,
		stripeClient:        stripeClient,
		registry:            registry,
		processedRepo:       processedRepo,
		savedCardRepo:       savedCardRepo,
		notificationService: notificationService,
		vatRate:             vatRate,
		log:                 log,
	}
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripeClient.ConstructEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	logger := s.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case client.EventCheckoutSessionCompleted, eventAsyncPaymentSucceeded:
	default:
		logger.Debug("ignoring stripe event")
		return nil
	}

	if event.SessionID == "" {
		return fmt.Errorf("%w: event carries no checkout session", ErrInvalidInput)
	}

	_, err = s.Reconcile(ctx, event.SessionID, model.PaymentSourceWebhook, event.ID)
	if errors.Is(err, ErrPaymentNotCompleted) {
		// delayed methods complete later with async_payment_succeeded
		logger.WithField("session_id", event.SessionID).Info("checkout completed without payment, waiting")
		return nil
	}
	if errors.Is(err, ErrAmountMismatch) {
		// redelivery cannot fix the amount, leave it for manual review
		logger.WithError(err).WithField("session_id", event.SessionID).Error("paid amount does not match purchase")
		return nil
	}

	return err
}

func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, identity model.Identity, sessionID string) (*ReconcileResult, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidInput)
	}

	session, err := s.stripeClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Metadata[MetaUserID] != identity.UserID {
		return nil, ErrForbidden
	}

	return s.reconcile(ctx, session, model.PaymentSourceVerify, "")
}

// Reconcile applies a paid checkout session exactly once. The session is
// always re-read from Stripe so both entry points act on the same state.
func (s *paymentServiceImpl) Reconcile(ctx context.Context, sessionID, source, eventID string) (*ReconcileResult, error) {
	session, err := s.stripeClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, session, source, eventID)
}

func (s *paymentServiceImpl) reconcile(ctx context.Context, session *client.CheckoutSession, source, eventID string) (*ReconcileResult, error) {
	if session.PaymentStatus != sessionPaymentPaid {
		return nil, ErrPaymentNotCompleted
	}

	purchaseType, err := model.ParsePurchaseType(session.Metadata[MetaType])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPurchaseType, session.Metadata[MetaType])
	}
	purchasable, ok := s.registry.Lookup(purchaseType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPurchaseType, purchaseType)
	}
	referenceID := session.Metadata[MetaReferenceID]
	if referenceID == "" {
		return nil, fmt.Errorf("%w: session carries no reference", ErrInvalidInput)
	}
	userID := session.Metadata[MetaUserID]

	logger := s.log.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"source":       source,
		"type":         purchaseType,
		"reference_id": referenceID,
	})

	result := &ReconcileResult{Type: purchaseType, ReferenceID: referenceID}
	var pending []*model.Notification

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.processedRepo.Claim(ctx, tx, &model.ProcessedPayment{
			SessionID:   session.ID,
			EventID:     eventID,
			Source:      source,
			Type:        string(purchaseType),
			ReferenceID: referenceID,
		})
		if err != nil {
			return fmt.Errorf("claim session: %w", err)
		}
		if !claimed {
			record, err := s.processedRepo.Find(ctx, tx, session.ID)
			if err != nil {
				return fmt.Errorf("load processed session: %w", err)
			}
			result.Type = model.PurchaseType(record.Type)
			result.ReferenceID = record.ReferenceID
			result.AlreadyProcessed = true
			return nil
		}

		stored, err := purchasable.Amount(ctx, tx, referenceID)
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s amount: %w", purchaseType, err)
		}
		if expected := model.ComputeCheckoutAmount(stored, s.vatRate).Total; session.AmountTotal != expected {
			return fmt.Errorf("%w: charged %d cents, expected %d", ErrAmountMismatch, session.AmountTotal, expected)
		}

		changed, err := purchasable.MarkPaid(ctx, tx, referenceID, session.ID)
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("mark %s paid: %w", purchaseType, err)
		}

		if session.Card != nil && userID != "" {
			err := s.savedCardRepo.Upsert(ctx, tx, &model.SavedCard{
				PaymentMethodID: session.Card.PaymentMethodID,
				UserID:          userID,
				CustomerID:      session.CustomerID,
				Brand:           session.Card.Brand,
				Last4:           session.Card.Last4,
				ExpMonth:        session.Card.ExpMonth,
				ExpYear:         session.Card.ExpYear,
			})
			if err != nil {
				return fmt.Errorf("save card: %w", err)
			}
		}

		if !changed {
			return nil
		}

		pending = append(pending, RoleNotification(
			model.RoleStaff,
			fmt.Sprintf("New paid %s", purchaseType.Label()),
			fmt.Sprintf("Reference %s", referenceID),
		))
		if userID != "" {
			pending = append(pending, UserNotification(
				userID,
				"Payment received",
				fmt.Sprintf("Your %s is confirmed.", purchaseType.Label()),
			))
		}
		for _, n := range pending {
			if err := s.notificationService.Create(ctx, tx, n); err != nil {
				return fmt.Errorf("store notification: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		logger.WithError(err).Error("reconcile payment")
		return nil, err
	}

	for _, n := range pending {
		s.notificationService.Publish(n)
	}

	if result.AlreadyProcessed {
		logger.Info("session already reconciled")
	} else {
		logger.Info("payment reconciled")
	}

	return result, nil
}

// ListPaymentMethods refreshes the saved card cache from Stripe and returns it.
func (s *paymentServiceImpl) ListPaymentMethods(ctx context.Context, identity model.Identity) ([]*model.SavedCard, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	customerID, err := s.stripeClient.FindCustomer(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	if customerID != "" {
		cards, err := s.stripeClient.ListCards(ctx, customerID)
		if err != nil {
			return nil, err
		}

		for _, card := range cards {
			err := s.savedCardRepo.Upsert(ctx, s.db, &model.SavedCard{
				PaymentMethodID: card.PaymentMethodID,
				UserID:          identity.UserID,
				CustomerID:      customerID,
				Brand:           card.Brand,
				Last4:           card.Last4,
				ExpMonth:        card.ExpMonth,
				ExpYear:         card.ExpYear,
			})
			if err != nil {
				return nil, fmt.Errorf("cache card: %w", err)
			}
		}
	}

	return s.savedCardRepo.ListByUser(ctx, identity.UserID)
}

func (s *paymentServiceImpl) DeletePaymentMethod(ctx context.Context, identity model.Identity, paymentMethodID string) error {
	if !identity.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if paymentMethodID == "" {
		return fmt.Errorf("%w: paymentMethodId is required", ErrInvalidInput)
	}

	if _, err := s.savedCardRepo.Get(ctx, identity.UserID, paymentMethodID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("get saved card: %w", err)
	}

	if err := s.stripeClient.DetachPaymentMethod(ctx, paymentMethodID); err != nil {
		s.log.WithError(err).WithField("payment_method_id", paymentMethodID).Error("detach payment method")
		return err
	}

	return s.savedCardRepo.Delete(ctx, identity.UserID, paymentMethodID)
}
