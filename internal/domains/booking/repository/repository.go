package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"messbook/internal/domains/booking/model"
	gDto "messbook/shared/dto"
)

// ConfirmOutcome reports what a capacity-checked confirmation did to the order.
type ConfirmOutcome int

const (
	// ConfirmApplied moved the order from pending to confirmed.
	ConfirmApplied ConfirmOutcome = iota
	// ConfirmNotPending changed nothing because the order had already left pending.
	ConfirmNotPending
	// ConfirmCapacityExhausted cancelled the pending order because its tier was full.
	ConfirmCapacityExhausted
)

type Order interface {
	Insert(ctx context.Context, order model.Order) error
	GetByID(ctx context.Context, id string) (model.Order, error)
	FindPending(ctx context.Context, userID, listingID string, roomType model.RoomType) (model.Order, error)
	CountActive(ctx context.Context, listingID string, roomType model.RoomType) (int, error)
	TransitionStatus(ctx context.Context, id string, from []model.OrderStatus, to model.OrderStatus, actor string) (bool, error)
	ConfirmWithinCapacity(ctx context.Context, order model.Order, actor string) (ConfirmOutcome, error)
	GetView(ctx context.Context, id string) (model.OrderView, error)
	ListViews(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.OrderView, error)
	CountViews(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type Transaction interface {
	Insert(ctx context.Context, transaction model.Transaction) error
	GetByOrderID(ctx context.Context, orderID string) (model.Transaction, error)
	TransitionStatus(ctx context.Context, orderID string, from []model.TxStatus, to model.TxStatus, paymentMethod, actor string) (bool, error)
	SetSessionRef(ctx context.Context, id, sessionRef, actor string) error
}
