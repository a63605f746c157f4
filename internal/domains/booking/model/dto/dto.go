package dto

import (
	"messbook/internal/domains/booking/model"
	"messbook/shared"
	"messbook/shared/constant"
	"messbook/shared/timezone"
	"time"
)

const CancelAction = "cancel"

type InitiateBookingRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	RoomType  string `json:"room_type"  validate:"required"`
}

type InitiateBookingResponse struct {
	RedirectURL   string `json:"redirect_url"`
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

type CancelBookingRequest struct {
	Action string `json:"action" validate:"required,eq=cancel"`
}

type HistoryRequest struct {
	UserID string `validate:"omitempty,uuid_or_all"`
}

// SeatAvailability is the seat ledger view of one listing.
type SeatAvailability struct {
	ListingID       string `json:"listing_id"`
	SingleAvailable int    `json:"single_available"`
	DoubleAvailable int    `json:"double_available"`
	TotalSingle     int    `json:"total_single"`
	TotalDouble     int    `json:"total_double"`
}

func (s SeatAvailability) Available(roomType model.RoomType) int {
	if roomType == model.RoomTypeDouble {
		return s.DoubleAvailable
	}

	return s.SingleAvailable
}

type ListingSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Category string `json:"category"`
	Address  string `json:"address"`
}

type TransactionSummary struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	RoomType    string              `json:"room_type"`
	Status      string              `json:"status"`
	CreatedAt   string              `json:"created_at"`
	Listing     ListingSummary      `json:"listing"`
	Transaction *TransactionSummary `json:"transaction"`
}

func (r *OrderResponse) FromModel(view model.OrderView) {
	r.ID = view.ID
	r.UserID = view.UserID
	r.RoomType = string(view.RoomType)
	r.Status = string(view.Status)
	r.CreatedAt = timezone.Format(view.CreatedAt, constant.DateFormat)
	r.Listing = ListingSummary{
		ID:       view.ListingID,
		Name:     view.ListingName,
		Location: view.ListingLocation,
		Category: view.ListingCategory,
		Address:  view.ListingAddress,
	}

	r.Transaction = nil
	if view.TransactionID != nil {
		r.Transaction = &TransactionSummary{
			ID:            *view.TransactionID,
			Amount:        deref(view.Amount),
			Currency:      deref(view.Currency),
			Status:        deref(view.TxStatus),
			PaymentMethod: deref(view.PaymentMethod),
		}
	}
}

func deref[T any](value *T) T {
	var zero T
	if value == nil {
		return zero
	}

	return *value
}

type GetOrdersResponse struct {
	Orders    []OrderResponse `json:"orders"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetOrdersResponse) FromModels(views []model.OrderView, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Orders = make([]OrderResponse, len(views))
	for i, view := range views {
		r.Orders[i].FromModel(view)
	}
}

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
	EventRefundRequired   EventType = "payment.refund_required"
)

// BookingEvent is published to the booking topic keyed by order id.
type BookingEvent struct {
	Type           EventType `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	ListingID      string    `json:"listing_id"`
	RoomType       string    `json:"room_type"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType, order model.Order, status model.OrderStatus) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ListingID:  order.ListingID,
		RoomType:   string(order.RoomType),
		Status:     string(status),
		OccurredAt: timezone.Now(),
	}
}
