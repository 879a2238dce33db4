package service

import "errors"

var (
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownPurchaseType = errors.New("unknown purchase type")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrStaleWrite          = errors.New("concurrent update, retry")
	ErrInvalidTransition   = errors.New("invalid or conflicting status transition")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrSlotTaken           = errors.New("room already booked for this slot")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrAmountMismatch      = errors.New("amount does not match the stored total")
)
