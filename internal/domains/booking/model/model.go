package model

import (
	"messbook/shared/model"
	"slices"
)

const (
	OrderTableName       = "orders"
	OrderEntityName      = "order"
	TransactionTableName = "transactions"
	TransactionEntity    = "transaction"

	FieldID         = "id"
	FieldUserID     = "user_id"
	FieldListingID  = "listing_id"
	FieldRoomType   = "room_type"
	FieldStatus     = "status"
	FieldOrderID    = "order_id"
	FieldMethod     = "payment_method"
	FieldSessionRef = "session_ref"
)

type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
)

func (r RoomType) Valid() bool {
	return r == RoomTypeSingle || r == RoomTypeDouble
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	// OrderStatusPaid is written by older clients and occupies a seat like confirmed.
	OrderStatusPaid OrderStatus = "paid"
)

// ActiveStatuses are the order statuses that hold a seat.
var ActiveStatuses = []OrderStatus{OrderStatusConfirmed, OrderStatusPaid}

// CancellableStatuses are the order statuses a user may cancel from, in lifecycle order.
var CancellableStatuses = []OrderStatus{OrderStatusPending, OrderStatusConfirmed}

func (s OrderStatus) Active() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusExpired
}

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusCompleted TxStatus = "completed"
	TxStatusCancelled TxStatus = "cancelled"
	TxStatusExpired   TxStatus = "expired"
)

type Order struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	ListingID string      `db:"listing_id"`
	RoomType  RoomType    `db:"room_type"`
	Status    OrderStatus `db:"status"`
	model.Metadata
}

type Transaction struct {
	ID            string   `db:"id"`
	OrderID       string   `db:"order_id"`
	Amount        float64  `db:"amount"`
	Currency      string   `db:"currency"`
	Status        TxStatus `db:"status"`
	PaymentMethod string   `db:"payment_method"`
	SessionRef    string   `db:"session_ref"`
	model.Metadata
}

// OrderView is an order joined with its listing and, when one exists, its transaction.
type OrderView struct {
	ID              string      `db:"id"`
	UserID          string      `db:"user_id"`
	ListingID       string      `db:"listing_id"`
	RoomType        RoomType    `db:"room_type"`
	Status          OrderStatus `db:"status"`
	ListingOwnerID  string      `db:"listing_owner_id" table:"listings" column:"owner_id"`
	ListingName     string      `db:"listing_name" table:"listings" column:"name"`
	ListingLocation string      `db:"listing_location" table:"listings" column:"location"`
	ListingCategory string      `db:"listing_category" table:"listings" column:"category"`
	ListingAddress  string      `db:"listing_address" table:"listings" column:"address"`
	TransactionID   *string     `db:"transaction_id" table:"transactions" column:"id"`
	Amount          *float64    `db:"amount" table:"transactions" column:"amount"`
	Currency        *string     `db:"currency" table:"transactions" column:"currency"`
	TxStatus        *string     `db:"transaction_status" table:"transactions" column:"status"`
	PaymentMethod   *string     `db:"payment_method" table:"transactions" column:"payment_method"`
	SessionRef      *string     `db:"session_ref" table:"transactions" column:"session_ref"`
	model.Metadata
}

func (OrderView) GetJoinQuery() string {
	return "JOIN listings ON listings.id = orders.listing_id LEFT JOIN transactions ON transactions.order_id = orders.id"
}

func (v OrderView) Order() Order {
	return Order{
		ID:        v.ID,
		UserID:    v.UserID,
		ListingID: v.ListingID,
		RoomType:  v.RoomType,
		Status:    v.Status,
		Metadata:  v.Metadata,
	}
}
