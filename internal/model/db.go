package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID     string `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID string `gorm:"size:64;index;not null" json:"user_id"`
	// ActiveUserID mirrors UserID while the cart is active and is NULL
	// afterwards; a unique index on it allows one active cart per user.
	ActiveUserID *string         `gorm:"size:64" json:"active_user_id"`
	Status       string          `gorm:"size:16;index;not null" json:"status"` // active, completed, merged
	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax"`
	Fees         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fees"`
	Tip          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tip"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Version      int64           `gorm:"not null" json:"version"`
	Items        []*CartItem     `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID         string          `gorm:"primaryKey;size:36;not null" json:"id"`
	CartID     string          `gorm:"size:36;uniqueIndex:idx_cart_items_cart_menu;not null" json:"cart_id"`
	MenuItemID string          `gorm:"size:64;uniqueIndex:idx_cart_items_cart_menu;not null" json:"menu_item_id"` // external reference
	Name       string          `gorm:"size:128;not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Qty        int32           `gorm:"not null" json:"qty"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type MenuItem struct {
	ID        string          `gorm:"primaryKey;size:64;not null" json:"id"` // snack sku
	Name      string          `gorm:"size:128;not null" json:"name"`
	Category  string          `gorm:"size:32;index;not null" json:"category"` // SNACK, DRINK, COMBO
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Available bool            `gorm:"not null" json:"available"`
}

type Order struct {
	ID              string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID          string          `gorm:"size:64;index;not null" json:"user_id"`
	CartID          string          `gorm:"size:36;index;not null" json:"cart_id"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status          string          `gorm:"size:16;index;not null" json:"status"`         // pending, new, preparing, ready, completed, cancelled
	PaymentStatus   string          `gorm:"size:16;index;not null" json:"payment_status"` // unpaid, paid
	StripeSessionID string          `gorm:"size:128;index" json:"stripe_session_id"`
	Items           []*OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID         string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID    string          `gorm:"size:36;uniqueIndex:idx_order_items_order_menu;not null" json:"order_id"`
	MenuItemID string          `gorm:"size:64;uniqueIndex:idx_order_items_order_menu;not null" json:"menu_item_id"`
	Name       string          `gorm:"size:128;not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Qty        int32           `gorm:"not null" json:"qty"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
	CreatedAt  time.Time       `json:"created_at"`
}

type RoomBooking struct {
	ID              string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID          string          `gorm:"size:64;index;not null" json:"user_id"`
	RoomID          string          `gorm:"size:64;index;not null" json:"room_id"`
	StartsAt        time.Time       `gorm:"not null" json:"starts_at"`
	EndsAt          time.Time       `gorm:"not null" json:"ends_at"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          string          `gorm:"size:16;index;not null" json:"status"` // pending, confirmed, cancelled
	PaymentStatus   string          `gorm:"size:16;index;not null" json:"payment_status"`
	StripeSessionID string          `gorm:"size:128;index" json:"stripe_session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type EventRegistration struct {
	ID              string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID          string          `gorm:"size:64;index;not null" json:"user_id"`
	EventID         string          `gorm:"size:64;index;not null" json:"event_id"`
	Attendees       int32           `gorm:"not null" json:"attendees"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          string          `gorm:"size:16;index;not null" json:"status"`
	PaymentStatus   string          `gorm:"size:16;index;not null" json:"payment_status"`
	StripeSessionID string          `gorm:"size:128;index" json:"stripe_session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PartyRequest struct {
	ID              string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID          string          `gorm:"size:64;index;not null" json:"user_id"`
	PartyDate       time.Time       `gorm:"not null" json:"party_date"`
	GuestCount      int32           `gorm:"not null" json:"guest_count"`
	Notes           string          `gorm:"size:1024" json:"notes"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          string          `gorm:"size:16;index;not null" json:"status"`
	PaymentStatus   string          `gorm:"size:16;index;not null" json:"payment_status"`
	StripeSessionID string          `gorm:"size:128;index" json:"stripe_session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SavedCard caches display fields of a card held by Stripe. Not authoritative.
type SavedCard struct {
	PaymentMethodID string    `gorm:"primaryKey;size:128;not null" json:"payment_method_id"`
	UserID          string    `gorm:"size:64;index;not null" json:"user_id"`
	CustomerID      string    `gorm:"size:128;index" json:"customer_id"`
	Brand           string    `gorm:"size:32" json:"brand"`
	Last4           string    `gorm:"size:4" json:"last4"`
	ExpMonth        int64     `json:"exp_month"`
	ExpYear         int64     `json:"exp_year"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Notification struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID    *string   `gorm:"size:64;index" json:"user_id"`
	Role      *string   `gorm:"size:32;index" json:"role"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	Body      string    `gorm:"size:1024" json:"body"`
	IsRead    bool      `gorm:"not null;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessedPayment is the idempotency record for reconciliation. One row per
// checkout session, written in the same transaction as the side effects.
type ProcessedPayment struct {
	SessionID   string    `gorm:"primaryKey;size:128;not null" json:"session_id"`
	EventID     string    `gorm:"size:128;index" json:"event_id"`
	Source      string    `gorm:"size:16;not null" json:"source"` // webhook, verify
	Type        string    `gorm:"size:32;not null" json:"type"`
	ReferenceID string    `gorm:"size:36;not null" json:"reference_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type ChatRoom struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	StaffOnly bool      `gorm:"not null" json:"staff_only"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	RoomID    string    `gorm:"size:36;index;not null" json:"room_id"`
	UserID    string    `gorm:"size:64;index;not null" json:"user_id"`
	Body      string    `gorm:"size:2048;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
