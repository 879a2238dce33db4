package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddToCartRequest names the menu item only. Name and price come from the
// catalogue.
type AddToCartRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Qty        int32  `json:"qty"`
}

type UpdateQuantityRequest struct {
	Qty int32 `json:"qty"`
}

type CreateCheckoutRequest struct {
	Type        string            `json:"type"`
	ReferenceID string            `json:"referenceId"`
	Amount      decimal.Decimal   `json:"amount"`
	Metadata    map[string]string `json:"metadata"`
}

type CreateCheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

type VerifyPaymentResponse struct {
	Success     bool   `json:"success"`
	Type        string `json:"type"`
	ReferenceID string `json:"referenceId"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type DeletePaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

type CreateRoomBookingRequest struct {
	RoomID   string          `json:"room_id"`
	StartsAt time.Time       `json:"starts_at"`
	EndsAt   time.Time       `json:"ends_at"`
	Amount   decimal.Decimal `json:"amount"`
}

type CreateEventRegistrationRequest struct {
	EventID   string          `json:"event_id"`
	Attendees int32           `json:"attendees"`
	Amount    decimal.Decimal `json:"amount"`
}

type CreatePartyRequestRequest struct {
	PartyDate  time.Time       `json:"party_date"`
	GuestCount int32           `json:"guest_count"`
	Notes      string          `json:"notes"`
	Amount     decimal.Decimal `json:"amount"`
}

type SendNotificationRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type NotificationListResponse struct {
	Unread        int64       `json:"unread"`
	Notifications interface{} `json:"notifications"`
}

type PostMessageRequest struct {
	Body string `json:"body"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type MeResponse struct {
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Role       string      `json:"role"`
	Guest      bool        `json:"guest"`
	SavedCards interface{} `json:"saved_cards"`
}
