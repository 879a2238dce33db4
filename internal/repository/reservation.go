package repository

import (
	"context"
	"lounge-portal/internal/model"

	"gorm.io/gorm"
)

// ReservationRepository stores the non-order purchasables: room bookings,
// event registrations and party requests.
type ReservationRepository interface {
	CreateRoomBooking(ctx context.Context, booking *model.RoomBooking) error
	CreateEventRegistration(ctx context.Context, registration *model.EventRegistration) error
	CreatePartyRequest(ctx context.Context, request *model.PartyRequest) error

	ListRoomBookings(ctx context.Context, userID string) ([]*model.RoomBooking, error)
	ListEventRegistrations(ctx context.Context, userID string) ([]*model.EventRegistration, error)
	ListPartyRequests(ctx context.Context, userID string) ([]*model.PartyRequest, error)

	HasOverlappingBooking(ctx context.Context, booking *model.RoomBooking) (bool, error)
}

type reservationRepoImpl struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepoImpl{
		db: db,
	}
}

func (r *reservationRepoImpl) CreateRoomBooking(ctx context.Context, booking *model.RoomBooking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *reservationRepoImpl) CreateEventRegistration(ctx context.Context, registration *model.EventRegistration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *reservationRepoImpl) CreatePartyRequest(ctx context.Context, request *model.PartyRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *reservationRepoImpl) ListRoomBookings(ctx context.Context, userID string) ([]*model.RoomBooking, error) {
	var bookings []*model.RoomBooking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("starts_at ASC").
		Find(&bookings).Error

	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *reservationRepoImpl) ListEventRegistrations(ctx context.Context, userID string) ([]*model.EventRegistration, error) {
	var registrations []*model.EventRegistration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&registrations).Error

	if err != nil {
		return nil, err
	}

	return registrations, nil
}

func (r *reservationRepoImpl) ListPartyRequests(ctx context.Context, userID string) ([]*model.PartyRequest, error) {
	var requests []*model.PartyRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("party_date ASC").
		Find(&requests).Error

	if err != nil {
		return nil, err
	}

	return requests, nil
}

// HasOverlappingBooking reports whether a non-cancelled booking of the same
// room intersects the requested slot.
func (r *reservationRepoImpl) HasOverlappingBooking(ctx context.Context, booking *model.RoomBooking) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RoomBooking{}).
		Where("room_id = ?", booking.RoomID).
		Where("status <> ?", model.ReservationStatusCancelled).
		Where("starts_at < ? AND ends_at > ?", booking.EndsAt, booking.StartsAt).
		Count(&count).Error

	return count > 0, err
}
