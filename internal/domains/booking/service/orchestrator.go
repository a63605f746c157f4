package service

//go:generate go run go.uber.org/mock/mockgen -source=./orchestrator.go -destination=../mocks/orchestrator_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"messbook/config"
	"messbook/infras/otel"
	"messbook/infras/payment"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/repository"
	listingModel "messbook/internal/domains/listing/model"
	"messbook/permissions"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	"messbook/shared/failure"
	gModel "messbook/shared/model"
	gRepo "messbook/shared/repository"
	"messbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Booking starts bookings and serves order reads.
type Booking interface {
	InitiateBooking(ctx context.Context, principal permissions.Principal, req dto.InitiateBookingRequest) (dto.InitiateBookingResponse, error)
	Get(ctx context.Context, principal permissions.Principal, id string) (dto.OrderResponse, error)
	History(ctx context.Context, principal permissions.Principal, req dto.HistoryRequest, params gDto.QueryParams) (dto.GetOrdersResponse, error)
}

type orchestratorImpl struct {
	ledger       SeatLedger
	orders       repository.Order
	transactions repository.Transaction
	gateway      payment.Gateway
	cfg          *config.Config
	otel         otel.Otel
}

func NewBooking(
	ledger SeatLedger,
	orders repository.Order,
	transactions repository.Transaction,
	gateway payment.Gateway,
	cfg *config.Config,
	otel otel.Otel,
) Booking {
	return &orchestratorImpl{
		ledger:       ledger,
		orders:       orders,
		transactions: transactions,
		gateway:      gateway,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *orchestratorImpl) InitiateBooking(ctx context.Context, principal permissions.Principal, req dto.InitiateBookingRequest) (res dto.InitiateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".InitiateBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	roomType := model.RoomType(req.RoomType)
	if !roomType.Valid() {
		return res, failure.BadRequestFromString("room type must be single or double") // nolint:wrapcheck
	}

	order, err := s.orders.FindPending(ctx, principal.UserID, req.ListingID, roomType)
	found := err == nil

	if err != nil && !errors.Is(err, gRepo.ErrNotFound) {
		log.Error().Err(err).Msg("failed to find pending order")

		return res, fmt.Errorf("failed to find pending order: %w", err)
	}

	listing, err := s.ledger.EnsureAvailable(ctx, req.ListingID, roomType)
	if err != nil {
		return res, err
	}

	if !found {
		order, err = s.createOrder(ctx, principal, listing.ID, roomType)
		if err != nil {
			return res, err
		}
	}

	transaction, err := s.ensureTransaction(ctx, principal, order, listing)
	if err != nil {
		return res, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		ListingID:      listing.ID,
		ListingName:    listing.Name,
		ListingAddress: listing.Address,
		RoomType:       string(roomType),
		UserID:         principal.UserID,
		OrderID:        order.ID,
		TransactionID:  transaction.ID,
		Amount:         transaction.Amount,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("failed to create checkout session")

		return res, failure.UpstreamFailure("failed to create checkout session", err) // nolint:wrapcheck
	}

	if err := s.transactions.SetSessionRef(ctx, transaction.ID, session.ID, principal.UserID); err != nil {
		log.Warn().Err(err).Str("transaction_id", transaction.ID).Msg("failed to store checkout session reference")
	}

	log.Info().
		Str("order_id", order.ID).
		Str("transaction_id", transaction.ID).
		Bool("reused", found).
		Msg("booking initiated")

	return dto.InitiateBookingResponse{
		RedirectURL:   session.URL,
		OrderID:       order.ID,
		TransactionID: transaction.ID,
	}, nil
}

// createOrder inserts a pending order. Losing the race on the pending-order unique index
// means a concurrent request already created it, so that order is reused.
func (s *orchestratorImpl) createOrder(ctx context.Context, principal permissions.Principal, listingID string, roomType model.RoomType) (model.Order, error) {
	order := model.Order{
		ID:        uuid.NewString(),
		UserID:    principal.UserID,
		ListingID: listingID,
		RoomType:  roomType,
		Status:    model.OrderStatusPending,
		Metadata:  gModel.NewMetadata(timezone.Now(), principal.UserID),
	}

	err := s.orders.Insert(ctx, order)
	if err == nil {
		return order, nil
	}

	if !gRepo.IsUniqueViolation(err) {
		log.Error().Err(err).Msg("failed to create order")

		return order, fmt.Errorf("failed to create order: %w", err)
	}

	existing, err := s.orders.FindPending(ctx, principal.UserID, listingID, roomType)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload pending order")

		return existing, fmt.Errorf("failed to reload pending order: %w", err)
	}

	return existing, nil
}

// ensureTransaction returns the order's transaction, creating it at the tier price if missing.
func (s *orchestratorImpl) ensureTransaction(ctx context.Context, principal permissions.Principal, order model.Order, listing listingModel.Listing) (model.Transaction, error) {
	transaction, err := s.transactions.GetByOrderID(ctx, order.ID)
	if err == nil {
		return transaction, nil
	}

	if !errors.Is(err, gRepo.ErrNotFound) {
		log.Error().Err(err).Msg("failed to get transaction")

		return transaction, fmt.Errorf("failed to get transaction: %w", err)
	}

	amount := listing.SinglePrice
	if order.RoomType == model.RoomTypeDouble {
		amount = listing.DoublePrice
	}

	transaction = model.Transaction{
		ID:       uuid.NewString(),
		OrderID:  order.ID,
		Amount:   amount,
		Currency: s.cfg.Payment.Stripe.Currency,
		Status:   model.TxStatusPending,
		Metadata: gModel.NewMetadata(timezone.Now(), principal.UserID),
	}

	err = s.transactions.Insert(ctx, transaction)
	if err == nil {
		return transaction, nil
	}

	if gRepo.IsUniqueViolation(err) {
		if existing, getErr := s.transactions.GetByOrderID(ctx, order.ID); getErr == nil {
			return existing, nil
		}
	}

	log.Error().Err(err).Str("order_id", order.ID).Msg("failed to create transaction")

	return transaction, fmt.Errorf("failed to create transaction: %w", err)
}

func (s *orchestratorImpl) Get(ctx context.Context, principal permissions.Principal, id string) (res dto.OrderResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	view, err := getAccessibleView(ctx, s.orders, principal, id)
	if err != nil {
		return res, err
	}

	res.FromModel(view)

	return res, nil
}

func (s *orchestratorImpl) History(ctx context.Context, principal permissions.Principal, req dto.HistoryRequest, params gDto.QueryParams) (res dto.GetOrdersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".History")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID := req.UserID
	if userID == "" {
		userID = principal.UserID
	}

	if !principal.CanViewHistory(userID) {
		return res, failure.ForbiddenError
	}

	filter := gDto.FilterGroup{}
	if userID != constant.All {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field: model.FieldUserID, Value: userID, Operator: gDto.FilterOperatorEq, Table: model.OrderTableName,
		})
	}

	params.RestrictSort(constant.FieldCreatedAt, model.FieldStatus)

	total, err := s.orders.CountViews(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count orders")

		return res, fmt.Errorf("failed to count orders: %w", err)
	}

	views, err := s.orders.ListViews(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get orders")

		return res, fmt.Errorf("failed to get orders: %w", err)
	}

	res.FromModels(views, total, params.Limit)

	return res, nil
}

// getAccessibleView loads an order view the principal may act on.
func getAccessibleView(ctx context.Context, orders repository.Order, principal permissions.Principal, id string) (model.OrderView, error) {
	view, err := orders.GetView(ctx, id)
	if errors.Is(err, gRepo.ErrNotFound) {
		return view, failure.NotFound("order not found") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to get order")

		return view, fmt.Errorf("failed to get order: %w", err)
	}

	if !principal.CanAccessOrder(view.UserID, view.ListingOwnerID) {
		return view, failure.ForbiddenError
	}

	return view, nil
}
