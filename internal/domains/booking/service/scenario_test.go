package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"messbook/config"
	"messbook/infras/otel/mocks"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/service"
	listingModel "messbook/internal/domains/listing/model"
	"messbook/permissions"
	cacheMocks "messbook/shared/cache/mocks"
	"messbook/shared/failure"
)

const (
	listingID = "6f1c2f4e-8a51-4c1e-9d0a-2b7d8f1e3c55"
	ownerID   = "owner-1"
)

var (
	alice = permissions.Principal{UserID: "user-alice", Role: permissions.RoleUser}
	bob   = permissions.Principal{UserID: "user-bob", Role: permissions.RoleUser}
)

type harness struct {
	store      *memStore
	ledger     service.SeatLedger
	booking    service.Booking
	reconciler service.Reconciler
	events     *recorder
}

func newHarness(t *testing.T, singleSeats, doubleSeats int) *harness {
	t.Helper()

	store := newMemStore(listingModel.Listing{
		ID:          listingID,
		OwnerID:     ownerID,
		Name:        "Green House",
		Address:     "House 12, Road 5",
		SingleSeats: singleSeats,
		SinglePrice: 5000,
		DoubleSeats: doubleSeats,
		DoublePrice: 3500,
		IsActive:    true,
	})

	cfg := &config.Config{}
	cfg.Payment.Stripe.Currency = "bdt"
	cfg.Cache.WebhookEventTTL = 60

	redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
	redisCache.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	redisCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	otl := mocks.NewOtel()
	gateway := newFakeGateway()
	events := &recorder{}

	orders := orderRepo{store}
	transactions := transactionRepo{store}
	ledger := service.NewSeatLedger(listingRepo{store}, orders, otl)

	return &harness{
		store:      store,
		ledger:     ledger,
		booking:    service.NewBooking(ledger, orders, transactions, gateway, cfg, otl),
		reconciler: service.NewReconciler(orders, transactions, gateway, events, redisCache, cfg, otl),
		events:     events,
	}
}

func (h *harness) initiate(t *testing.T, principal permissions.Principal, roomType model.RoomType) dto.InitiateBookingResponse {
	t.Helper()

	res, err := h.booking.InitiateBooking(context.Background(), principal, dto.InitiateBookingRequest{
		ListingID: listingID,
		RoomType:  string(roomType),
	})
	require.NoError(t, err)

	return res
}

func (h *harness) available(t *testing.T) dto.SeatAvailability {
	t.Helper()

	seats, err := h.ledger.AvailableSeats(context.Background(), listingID)
	require.NoError(t, err)

	return seats
}

func (h *harness) complete(t *testing.T, res dto.InitiateBookingResponse) {
	t.Helper()

	err := h.reconciler.OnPaymentCompleted(context.Background(), map[string]string{
		"order_id":       res.OrderID,
		"transaction_id": res.TransactionID,
	}, "stripe_card")
	require.NoError(t, err)
}

func TestScenario_LastSeatGoesToFirstConfirmation(t *testing.T) {
	h := newHarness(t, 1, 0)

	first := h.initiate(t, alice, model.RoomTypeSingle)
	second := h.initiate(t, bob, model.RoomTypeSingle)
	assert.NotEqual(t, first.OrderID, second.OrderID, "pending orders do not hold a seat")

	_, err := h.reconciler.ConfirmAfterRedirect(context.Background(), alice, first.OrderID)
	require.NoError(t, err)

	_, err = h.reconciler.ConfirmAfterRedirect(context.Background(), bob, second.OrderID)
	assert.Equal(t, failure.KindNoAvailability, failure.GetKind(err))

	assert.Equal(t, model.OrderStatusConfirmed, h.store.order(first.OrderID).Status)
	assert.Equal(t, model.OrderStatusCancelled, h.store.order(second.OrderID).Status)

	tx, _ := h.store.transaction(second.OrderID)
	assert.Equal(t, model.TxStatusCompleted, tx.Status, "captured payment is recorded for the refund")
	assert.Equal(t, 1, h.events.count(dto.EventRefundRequired))
	assert.Equal(t, 0, h.available(t).SingleAvailable)

	_, err = h.booking.InitiateBooking(context.Background(), bob, dto.InitiateBookingRequest{ListingID: listingID, RoomType: "single"})
	assert.Equal(t, failure.KindNoAvailability, failure.GetKind(err))
}

func TestScenario_RetryReusesPendingOrder(t *testing.T) {
	h := newHarness(t, 2, 0)

	first := h.initiate(t, alice, model.RoomTypeSingle)
	second := h.initiate(t, alice, model.RoomTypeSingle)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Len(t, h.store.orders, 1)
	assert.Len(t, h.store.transactions, 1)
}

func TestScenario_DuplicateCompletionAppliedOnce(t *testing.T) {
	h := newHarness(t, 3, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)

	h.complete(t, res)
	h.complete(t, res)

	assert.Equal(t, model.OrderStatusConfirmed, h.store.order(res.OrderID).Status)

	tx, _ := h.store.transaction(res.OrderID)
	assert.Equal(t, model.TxStatusCompleted, tx.Status)
	assert.Equal(t, "stripe_card", tx.PaymentMethod)

	assert.Equal(t, 2, h.available(t).SingleAvailable)
	assert.Equal(t, 1, h.events.count(dto.EventBookingConfirmed))
}

func TestScenario_CancellingConfirmedReleasesSeat(t *testing.T) {
	h := newHarness(t, 2, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)
	h.complete(t, res)
	assert.Equal(t, 1, h.available(t).SingleAvailable)

	require.NoError(t, h.reconciler.CancelBooking(context.Background(), alice, res.OrderID))

	assert.Equal(t, model.OrderStatusCancelled, h.store.order(res.OrderID).Status)

	tx, _ := h.store.transaction(res.OrderID)
	assert.Equal(t, model.TxStatusCancelled, tx.Status)
	assert.Equal(t, 2, h.available(t).SingleAvailable)
}

func TestScenario_CancellingTwiceIsInvalidState(t *testing.T) {
	h := newHarness(t, 2, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)
	require.NoError(t, h.reconciler.CancelBooking(context.Background(), alice, res.OrderID))

	err := h.reconciler.CancelBooking(context.Background(), alice, res.OrderID)
	assert.Equal(t, failure.KindInvalidState, failure.GetKind(err))
}

func TestProperty_CancellingPendingReleasesNothing(t *testing.T) {
	h := newHarness(t, 2, 0)

	confirmed := h.initiate(t, bob, model.RoomTypeSingle)
	h.complete(t, confirmed)

	pending := h.initiate(t, alice, model.RoomTypeSingle)
	before := h.available(t).SingleAvailable

	require.NoError(t, h.reconciler.CancelBooking(context.Background(), alice, pending.OrderID))
	assert.Equal(t, before, h.available(t).SingleAvailable)
}

func TestProperty_TerminalOrdersStayTerminal(t *testing.T) {
	h := newHarness(t, 2, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)
	metadata := map[string]string{"order_id": res.OrderID, "transaction_id": res.TransactionID}

	require.NoError(t, h.reconciler.OnPaymentExpired(context.Background(), metadata))
	assert.Equal(t, model.OrderStatusExpired, h.store.order(res.OrderID).Status)

	// A late completion is acknowledged, flagged for refund once, and changes nothing.
	h.complete(t, res)
	h.complete(t, res)
	require.NoError(t, h.reconciler.OnPaymentExpired(context.Background(), metadata))

	assert.Equal(t, model.OrderStatusExpired, h.store.order(res.OrderID).Status)
	assert.Equal(t, 1, h.events.count(dto.EventRefundRequired))
	assert.Equal(t, 2, h.available(t).SingleAvailable)

	err := h.reconciler.CancelBooking(context.Background(), alice, res.OrderID)
	assert.Equal(t, failure.KindInvalidState, failure.GetKind(err))
}

func TestProperty_ExpiryDoesNotTouchConfirmedOrder(t *testing.T) {
	h := newHarness(t, 1, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)
	h.complete(t, res)

	err := h.reconciler.OnPaymentExpired(context.Background(), map[string]string{
		"order_id": res.OrderID, "transaction_id": res.TransactionID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusConfirmed, h.store.order(res.OrderID).Status)

	tx, _ := h.store.transaction(res.OrderID)
	assert.Equal(t, model.TxStatusCompleted, tx.Status)
}

func TestProperty_ConcurrentConfirmationsNeverOverbook(t *testing.T) {
	const seats, students = 3, 12

	h := newHarness(t, 0, seats)

	bookings := make([]dto.InitiateBookingResponse, students)
	for i := range students {
		principal := permissions.Principal{UserID: "student-" + string(rune('a'+i)), Role: permissions.RoleUser}
		bookings[i] = h.initiate(t, principal, model.RoomTypeDouble)
	}

	var wg sync.WaitGroup
	for _, res := range bookings {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = h.reconciler.OnPaymentCompleted(context.Background(), map[string]string{
				"order_id": res.OrderID, "transaction_id": res.TransactionID,
			}, "stripe_card")
		}()
	}
	wg.Wait()

	confirmed := 0
	for _, res := range bookings {
		if h.store.order(res.OrderID).Status == model.OrderStatusConfirmed {
			confirmed++
		}
	}

	assert.Equal(t, seats, confirmed)
	assert.Equal(t, 0, h.available(t).DoubleAvailable)
	assert.Equal(t, students-seats, h.events.count(dto.EventRefundRequired))
}

func TestProperty_LegacyPaidOrdersHoldSeats(t *testing.T) {
	h := newHarness(t, 1, 0)

	res := h.initiate(t, alice, model.RoomTypeSingle)

	h.store.mu.Lock()
	order := h.store.orders[res.OrderID]
	order.Status = model.OrderStatusPaid
	h.store.orders[res.OrderID] = order
	h.store.mu.Unlock()

	assert.Equal(t, 0, h.available(t).SingleAvailable)

	view, err := h.reconciler.ConfirmAfterRedirect(context.Background(), alice, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "paid", view.Status)
}
