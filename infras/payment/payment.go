package payment

//go:generate go run go.uber.org/mock/mockgen -source=./payment.go -destination=./mocks/payment_mock.go -package=mocks

import (
	"context"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventCheckoutExpired   EventType = "checkout.session.expired"
	EventPaymentFailed     EventType = "payment_intent.payment_failed"
)

// Metadata keys attached to every checkout session. They are the only link
// between a gateway event and the order/transaction it settles.
const (
	MetadataUserID        = "user_id"
	MetadataListingID     = "listing_id"
	MetadataRoomType      = "room_type"
	MetadataOrderID       = "order_id"
	MetadataTransactionID = "transaction_id"
)

type CheckoutRequest struct {
	ListingID      string
	ListingName    string
	ListingAddress string
	RoomType       string
	UserID         string
	OrderID        string
	TransactionID  string
	Amount         float64
}

func (r CheckoutRequest) Metadata() map[string]string {
	return map[string]string{
		MetadataUserID:        r.UserID,
		MetadataListingID:     r.ListingID,
		MetadataRoomType:      r.RoomType,
		MetadataOrderID:       r.OrderID,
		MetadataTransactionID: r.TransactionID,
	}
}

type CheckoutSession struct {
	ID            string
	URL           string
	Paid          bool
	PaymentMethod string
	Metadata      map[string]string
}

// Event is a verified gateway notification. Session is set for checkout events,
// PaymentID for payment intent events.
type Event struct {
	ID        string
	Type      EventType
	Session   CheckoutSession
	PaymentID string
	Metadata  map[string]string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error)
	VerifyWebhook(ctx context.Context, payload []byte, signature string) (Event, error)
}
