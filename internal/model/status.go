package model

const (
	CartStatusActive    = "active"
	CartStatusCompleted = "completed"
	CartStatusMerged    = "merged"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Order statuses. "new" means paid and waiting for the kitchen.
const (
	OrderStatusPending   = "pending"
	OrderStatusNew       = "new"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Statuses shared by bookings, event registrations and party requests.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

const (
	PaymentSourceWebhook = "webhook"
	PaymentSourceVerify  = "verify"
)
