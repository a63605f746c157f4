package service

//go:generate go run go.uber.org/mock/mockgen -source=./reconciler.go -destination=../mocks/reconciler_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"messbook/config"
	"messbook/infras/kafka"
	"messbook/infras/otel"
	"messbook/infras/payment"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/repository"
	"messbook/permissions"
	"messbook/shared"
	"messbook/shared/cache"
	"messbook/shared/constant"
	"messbook/shared/failure"
	gRepo "messbook/shared/repository"
	"slices"

	"github.com/rs/zerolog/log"
)

const (
	cacheWebhookEvent = "booking:webhook"
	// actorGateway is recorded as modified_by for transitions driven by gateway events.
	actorGateway = "payment-gateway"
)

type settleResult int

const (
	settleConfirmed settleResult = iota
	settleExhausted
	settleClosed
)

func (r settleResult) String() string {
	switch r {
	case settleConfirmed:
		return "confirmed"
	case settleExhausted:
		return "exhausted"
	default:
		return "closed"
	}
}

// Reconciler applies payment outcomes and user cancellations to orders and transactions.
// Every transition is conditional, so replaying any call is safe.
type Reconciler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	OnPaymentCompleted(ctx context.Context, metadata map[string]string, paymentMethod string) error
	OnPaymentExpired(ctx context.Context, metadata map[string]string) error
	OnPaymentFailed(ctx context.Context, event payment.Event)
	CancelBooking(ctx context.Context, principal permissions.Principal, orderID string) error
	ConfirmAfterRedirect(ctx context.Context, principal permissions.Principal, orderID string) (dto.OrderResponse, error)
}

type reconcilerImpl struct {
	orders       repository.Order
	transactions repository.Transaction
	gateway      payment.Gateway
	publisher    kafka.Publisher
	cache        cache.RedisCache
	cfg          *config.Config
	otel         otel.Otel
}

func NewReconciler(
	orders repository.Order,
	transactions repository.Transaction,
	gateway payment.Gateway,
	publisher kafka.Publisher,
	cache cache.RedisCache,
	cfg *config.Config,
	otel otel.Otel,
) Reconciler {
	return &reconcilerImpl{
		orders:       orders,
		transactions: transactions,
		gateway:      gateway,
		publisher:    publisher,
		cache:        cache,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *reconcilerImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleWebhook")
	defer scope.End()
	defer scope.TraceIfError(err)

	event, err := s.gateway.VerifyWebhook(ctx, payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		log.Warn().Err(err).Msg("rejected webhook with invalid signature")

		return failure.InvalidSignature("invalid webhook signature") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to verify webhook")

		return fmt.Errorf("failed to verify webhook: %w", err)
	}

	cacheKey := shared.BuildCacheKey(cacheWebhookEvent, event.ID)

	if seen, err := s.cache.Exists(ctx, cacheKey); err == nil && seen {
		log.Info().Str("event_id", event.ID).Msg("webhook event already processed")

		return nil
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		if !event.Session.Paid {
			log.Info().Str("session_id", event.Session.ID).Msg("checkout completed without payment, waiting for settlement")

			break
		}

		err = s.OnPaymentCompleted(ctx, event.Session.Metadata, event.Session.PaymentMethod)
	case payment.EventCheckoutExpired:
		err = s.OnPaymentExpired(ctx, event.Session.Metadata)
	case payment.EventPaymentFailed:
		s.OnPaymentFailed(ctx, event)
	default:
		log.Debug().Str("type", string(event.Type)).Msg("ignoring webhook event")
	}

	if err != nil {
		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, true, s.cfg.Cache.WebhookEventTTL); err != nil {
			log.Error().Err(err).Msg("failed to remember processed webhook event")
		}
	}()

	return nil
}

func (s *reconcilerImpl) OnPaymentCompleted(ctx context.Context, metadata map[string]string, paymentMethod string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OnPaymentCompleted")
	defer scope.End()
	defer scope.TraceIfError(err)

	order, err := s.correlate(ctx, metadata)
	if err != nil {
		return err
	}

	result, err := s.settle(ctx, order, paymentMethod, actorGateway)
	if err != nil {
		return err
	}

	log.Info().Str("order_id", order.ID).Stringer("result", result).Msg("payment completion applied")

	return nil
}

func (s *reconcilerImpl) OnPaymentExpired(ctx context.Context, metadata map[string]string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OnPaymentExpired")
	defer scope.End()
	defer scope.TraceIfError(err)

	order, err := s.correlate(ctx, metadata)
	if err != nil {
		return err
	}

	applied, err := s.orders.TransitionStatus(ctx, order.ID, []model.OrderStatus{model.OrderStatusPending}, model.OrderStatusExpired, actorGateway)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire order")

		return fmt.Errorf("failed to expire order: %w", err)
	}

	// A replay after a partial failure finds the order already expired; finish the transaction.
	if !applied && order.Status != model.OrderStatusExpired {
		log.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("expiry ignored, order no longer pending")

		return nil
	}

	if _, err = s.transactions.TransitionStatus(ctx, order.ID, []model.TxStatus{model.TxStatusPending}, model.TxStatusExpired, "", actorGateway); err != nil {
		log.Error().Err(err).Msg("failed to expire transaction")

		return fmt.Errorf("failed to expire transaction: %w", err)
	}

	if applied {
		s.publish(ctx, dto.NewBookingEvent(dto.EventBookingExpired, order, model.OrderStatusExpired))
	}

	return nil
}

func (s *reconcilerImpl) OnPaymentFailed(ctx context.Context, event payment.Event) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OnPaymentFailed")
	defer scope.End()

	log.Warn().
		Str("event_id", event.ID).
		Str("payment_id", event.PaymentID).
		Str("order_id", event.Metadata[payment.MetadataOrderID]).
		Msg("payment failed")
}

func (s *reconcilerImpl) CancelBooking(ctx context.Context, principal permissions.Principal, orderID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	view, err := getAccessibleView(ctx, s.orders, principal, orderID)
	if err != nil {
		return err
	}

	if !slices.Contains(model.CancellableStatuses, view.Status) {
		return failure.InvalidState("Order cannot be cancelled in current status") // nolint:wrapcheck
	}

	previous, err := s.cancelOrder(ctx, orderID, view.Status, principal.UserID)
	if err != nil {
		return err
	}

	from := []model.TxStatus{model.TxStatusPending, model.TxStatusCompleted}

	if _, err = s.transactions.TransitionStatus(ctx, orderID, from, model.TxStatusCancelled, "", principal.UserID); err != nil {
		log.Error().Err(err).Msg("failed to cancel transaction")

		return fmt.Errorf("failed to cancel transaction: %w", err)
	}

	event := dto.NewBookingEvent(dto.EventBookingCancelled, view.Order(), model.OrderStatusCancelled)
	event.PreviousStatus = string(previous)
	s.publish(ctx, event)

	log.Info().Str("order_id", orderID).Str("previous_status", string(previous)).Str("by", principal.UserID).Msg("order cancelled")

	return nil
}

// cancelOrder cancels from one status at a time, starting at the last observed one, and returns
// the status the row actually left. Orders only move forward through CancellableStatuses.
func (s *reconcilerImpl) cancelOrder(ctx context.Context, orderID string, observed model.OrderStatus, actor string) (model.OrderStatus, error) {
	for _, from := range model.CancellableStatuses[slices.Index(model.CancellableStatuses, observed):] {
		applied, err := s.orders.TransitionStatus(ctx, orderID, []model.OrderStatus{from}, model.OrderStatusCancelled, actor)
		if err != nil {
			log.Error().Err(err).Msg("failed to cancel order")

			return "", fmt.Errorf("failed to cancel order: %w", err)
		}

		if applied {
			return from, nil
		}
	}

	return "", failure.InvalidState("Order cannot be cancelled in current status") // nolint:wrapcheck
}

func (s *reconcilerImpl) ConfirmAfterRedirect(ctx context.Context, principal permissions.Principal, orderID string) (res dto.OrderResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ConfirmAfterRedirect")
	defer scope.End()
	defer scope.TraceIfError(err)

	view, err := getAccessibleView(ctx, s.orders, principal, orderID)
	if err != nil {
		return res, err
	}

	switch {
	case view.Status.Active():
		res.FromModel(view)

		return res, nil
	case view.Status != model.OrderStatusPending:
		return res, failure.InvalidState("Order cannot be confirmed in current status") // nolint:wrapcheck
	}

	if view.TransactionID == nil {
		return res, failure.NotFound("transaction not found") // nolint:wrapcheck
	}

	if view.SessionRef == nil || *view.SessionRef == "" {
		return res, failure.InvalidState("payment has not been completed") // nolint:wrapcheck
	}

	session, err := s.gateway.GetCheckoutSession(ctx, *view.SessionRef)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("failed to get checkout session")

		return res, failure.UpstreamFailure("failed to get checkout session", err) // nolint:wrapcheck
	}

	if !session.Paid {
		return res, failure.InvalidState("payment has not been completed") // nolint:wrapcheck
	}

	result, err := s.settle(ctx, view.Order(), session.PaymentMethod, principal.UserID)
	if err != nil {
		return res, err
	}

	switch result {
	case settleExhausted:
		return res, failure.NoAvailability(fmt.Sprintf("no %s seats available", view.RoomType)) // nolint:wrapcheck
	case settleClosed:
		return res, failure.InvalidState("Order cannot be confirmed in current status") // nolint:wrapcheck
	}

	view, err = s.orders.GetView(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload order")

		return res, fmt.Errorf("failed to reload order: %w", err)
	}

	res.FromModel(view)

	return res, nil
}

// correlate resolves the order a gateway event refers to through the session metadata.
func (s *reconcilerImpl) correlate(ctx context.Context, metadata map[string]string) (model.Order, error) {
	orderID := metadata[payment.MetadataOrderID]
	if orderID == "" || metadata[payment.MetadataTransactionID] == "" {
		log.Error().Interface("metadata", metadata).Msg("payment event without order correlation")

		return model.Order{}, failure.MissingCorrelation("missing order metadata") // nolint:wrapcheck
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, gRepo.ErrNotFound) {
		return order, failure.NotFound("order not found") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to get order")

		return order, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// settle applies a captured payment to order. The seat is re-checked under the listing lock;
// a payment that cannot be honoured is recorded and flagged for refund.
func (s *reconcilerImpl) settle(ctx context.Context, order model.Order, paymentMethod, actor string) (settleResult, error) {
	if order.Status == model.OrderStatusPending {
		outcome, err := s.orders.ConfirmWithinCapacity(ctx, order, actor)
		if errors.Is(err, gRepo.ErrNotFound) {
			return settleClosed, failure.NotFound("listing not found") // nolint:wrapcheck
		}

		if err != nil {
			log.Error().Err(err).Msg("failed to confirm order")

			return settleClosed, fmt.Errorf("failed to confirm order: %w", err)
		}

		switch outcome {
		case repository.ConfirmApplied:
			s.publish(ctx, dto.NewBookingEvent(dto.EventBookingConfirmed, order, model.OrderStatusConfirmed))

			return settleConfirmed, s.completeTransaction(ctx, order.ID, paymentMethod, actor)
		case repository.ConfirmCapacityExhausted:
			log.Warn().Str("order_id", order.ID).Str("room_type", string(order.RoomType)).Msg("tier full at confirmation, order cancelled")

			if err := s.completeTransaction(ctx, order.ID, paymentMethod, actor); err != nil {
				return settleExhausted, err
			}

			s.publishRefund(ctx, order, model.OrderStatusCancelled, "no seats left at confirmation")

			return settleExhausted, nil
		}

		order, err = s.orders.GetByID(ctx, order.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to reload order")

			return settleClosed, fmt.Errorf("failed to reload order: %w", err)
		}
	}

	if order.Status.Active() {
		return settleConfirmed, s.completeTransaction(ctx, order.ID, paymentMethod, actor)
	}

	// Money arrived for an order that was cancelled or expired meanwhile. The transaction
	// transition makes the refund request fire once per order.
	from := []model.TxStatus{model.TxStatusPending, model.TxStatusCancelled, model.TxStatusExpired}

	recorded, err := s.transactions.TransitionStatus(ctx, order.ID, from, model.TxStatusCompleted, paymentMethod, actor)
	if err != nil {
		log.Error().Err(err).Msg("failed to record late payment")

		return settleClosed, fmt.Errorf("failed to record late payment: %w", err)
	}

	if recorded {
		s.publishRefund(ctx, order, order.Status, "payment received for closed order")
	}

	return settleClosed, nil
}

func (s *reconcilerImpl) completeTransaction(ctx context.Context, orderID, paymentMethod, actor string) error {
	_, err := s.transactions.TransitionStatus(ctx, orderID, []model.TxStatus{model.TxStatusPending}, model.TxStatusCompleted, paymentMethod, actor)
	if err != nil {
		log.Error().Err(err).Msg("failed to complete transaction")

		return fmt.Errorf("failed to complete transaction: %w", err)
	}

	return nil
}

func (s *reconcilerImpl) publishRefund(ctx context.Context, order model.Order, status model.OrderStatus, reason string) {
	event := dto.NewBookingEvent(dto.EventRefundRequired, order, status)
	event.Reason = reason
	s.publish(ctx, event)
}

// publish is best effort; the database is the source of truth.
func (s *reconcilerImpl) publish(ctx context.Context, event dto.BookingEvent) {
	if err := s.publisher.Publish(ctx, kafka.Message{Key: event.OrderID, Value: event}); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Str("order_id", event.OrderID).Msg("failed to publish booking event")
	}
}
