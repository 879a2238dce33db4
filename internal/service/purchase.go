package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PurchaseService interface {
	CreateOrder(ctx context.Context, identity model.Identity) (*model.Order, error)
	CreateRoomBooking(ctx context.Context, identity model.Identity, req *dto.CreateRoomBookingRequest) (*model.RoomBooking, error)
	CreateEventRegistration(ctx context.Context, identity model.Identity, req *dto.CreateEventRegistrationRequest) (*model.EventRegistration, error)
	CreatePartyRequest(ctx context.Context, identity model.Identity, req *dto.CreatePartyRequestRequest) (*model.PartyRequest, error)
	ListMine(ctx context.Context, identity model.Identity, purchaseType string) (any, error)
}

type purchaseServiceImpl struct {
	db              *gorm.DB
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	reservationRepo repository.ReservationRepository
	log             *logrus.Logger
}

func NewPurchaseService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	reservationRepo repository.ReservationRepository,
	log *logrus.Logger,
) PurchaseService {
	return &purchaseServiceImpl{
		db:              db,
		cartRepo:        cartRepo,
		orderRepo:       orderRepo,
		reservationRepo: reservationRepo,
		log:             log,
	}
}

// CreateOrder snapshots the caller's active cart total into a pending order.
// Lines are copied into the order only once the payment is reconciled.
func (s *purchaseServiceImpl) CreateOrder(ctx context.Context, identity model.Identity) (*model.Order, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.cartRepo.GetActive(ctx, s.db, identity.UserID)
	if repository.IsNotFound(err) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("get active cart: %w", err)
	}
	if len(cart.Items) == 0 || !cart.Total.IsPositive() {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		CartID:        cart.ID,
		Total:         cart.Total,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	if err := s.orderRepo.Create(ctx, s.db, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  identity.UserID,
		"order_id": order.ID,
		"cart_id":  cart.ID,
	}).Info("order created")

	return order, nil
}

func (s *purchaseServiceImpl) CreateRoomBooking(ctx context.Context, identity model.Identity, req *dto.CreateRoomBookingRequest) (*model.RoomBooking, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.RoomID) == "" || req.StartsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("%w: room_id and a slot with ends_at after starts_at are required", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	booking := &model.RoomBooking{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		RoomID:        req.RoomID,
		StartsAt:      req.StartsAt.UTC(),
		EndsAt:        req.EndsAt.UTC(),
		Amount:        req.Amount.Round(2),
		Status:        model.ReservationStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}

	taken, err := s.reservationRepo.HasOverlappingBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("check room availability: %w", err)
	}
	if taken {
		return nil, ErrSlotTaken
	}

	if err := s.reservationRepo.CreateRoomBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("store room booking: %w", err)
	}

	return booking, nil
}

func (s *purchaseServiceImpl) CreateEventRegistration(ctx context.Context, identity model.Identity, req *dto.CreateEventRegistrationRequest) (*model.EventRegistration, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.EventID) == "" || req.Attendees <= 0 {
		return nil, fmt.Errorf("%w: event_id and at least one attendee are required", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	registration := &model.EventRegistration{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		EventID:       req.EventID,
		Attendees:     req.Attendees,
		Amount:        req.Amount.Round(2),
		Status:        model.ReservationStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	if err := s.reservationRepo.CreateEventRegistration(ctx, registration); err != nil {
		return nil, fmt.Errorf("store event registration: %w", err)
	}

	return registration, nil
}

func (s *purchaseServiceImpl) CreatePartyRequest(ctx context.Context, identity model.Identity, req *dto.CreatePartyRequestRequest) (*model.PartyRequest, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if req.PartyDate.IsZero() || req.GuestCount <= 0 {
		return nil, fmt.Errorf("%w: party_date and guest_count are required", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	request := &model.PartyRequest{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		PartyDate:     req.PartyDate.UTC(),
		GuestCount:    req.GuestCount,
		Notes:         req.Notes,
		Amount:        req.Amount.Round(2),
		Status:        model.ReservationStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	if err := s.reservationRepo.CreatePartyRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("store party request: %w", err)
	}

	return request, nil
}

func (s *purchaseServiceImpl) ListMine(ctx context.Context, identity model.Identity, purchaseType string) (any, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	t, err := model.ParsePurchaseType(purchaseType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPurchaseType, purchaseType)
	}

	switch t {
	case model.PurchaseOrder:
		return s.orderRepo.ListByUser(ctx, identity.UserID)
	case model.PurchaseRoomBooking:
		return s.reservationRepo.ListRoomBookings(ctx, identity.UserID)
	case model.PurchaseEventRegistration:
		return s.reservationRepo.ListEventRegistrations(ctx, identity.UserID)
	default:
		return s.reservationRepo.ListPartyRequests(ctx, identity.UserID)
	}
}
