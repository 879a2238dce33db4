package model

import "fmt"

// PurchaseType tags what a checkout session pays for. It travels in the
// session metadata and selects the reconciliation target.
type PurchaseType string

const (
	PurchaseOrder             PurchaseType = "order"
	PurchaseRoomBooking       PurchaseType = "room_booking"
	PurchaseEventRegistration PurchaseType = "event_registration"
	PurchasePartyRequest      PurchaseType = "party_request"
)

var purchaseLabels = map[PurchaseType]string{
	PurchaseOrder:             "Snack order",
	PurchaseRoomBooking:       "Room booking",
	PurchaseEventRegistration: "Event registration",
	PurchasePartyRequest:      "Party request",
}

func ParsePurchaseType(s string) (PurchaseType, error) {
	t := PurchaseType(s)
	if _, ok := purchaseLabels[t]; !ok {
		return "", fmt.Errorf("unknown purchase type %q", s)
	}
	return t, nil
}

func (t PurchaseType) Label() string {
	if label, ok := purchaseLabels[t]; ok {
		return label
	}
	return string(t)
}
