package service_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/lib/pq"

	"messbook/infras/kafka"
	"messbook/infras/payment"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/repository"
	listingModel "messbook/internal/domains/listing/model"
	gDto "messbook/shared/dto"
	gRepo "messbook/shared/repository"
)

// memStore keeps listings, orders and transactions in memory with the same
// conditional-update semantics as the postgres repositories.
type memStore struct {
	mu           sync.Mutex
	listings     map[string]listingModel.Listing
	orders       map[string]model.Order
	transactions map[string]model.Transaction
	sequence     []string
}

func newMemStore(listings ...listingModel.Listing) *memStore {
	store := &memStore{
		listings:     map[string]listingModel.Listing{},
		orders:       map[string]model.Order{},
		transactions: map[string]model.Transaction{},
	}

	for _, listing := range listings {
		store.listings[listing.ID] = listing
	}

	return store
}

func filterValue(filter gDto.FilterGroup, field string) (any, bool) {
	for _, f := range filter.Filters {
		if f, ok := f.(gDto.Filter); ok && f.Field == field {
			return f.Value, true
		}
	}

	return nil, false
}

func (s *memStore) order(id string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orders[id]
}

func (s *memStore) transaction(orderID string) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactions {
		if tx.OrderID == orderID {
			return tx, true
		}
	}

	return model.Transaction{}, false
}

func (s *memStore) countActiveLocked(listingID string, roomType model.RoomType) int {
	count := 0

	for _, order := range s.orders {
		if order.ListingID == listingID && order.RoomType == roomType && order.Status.Active() {
			count++
		}
	}

	return count
}

// listingRepo

type listingRepo struct{ *memStore }

func (r listingRepo) Insert(_ context.Context, listing listingModel.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listings[listing.ID] = listing

	return nil
}

func (r listingRepo) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (listingModel.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, _ := filterValue(filter, listingModel.FieldID)

	listing, ok := r.listings[fmt.Sprint(id)]
	if !ok {
		return listing, gRepo.ErrNotFound
	}

	return listing, nil
}

func (r listingRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]listingModel.Listing, error) {
	return nil, nil
}

func (r listingRepo) Count(context.Context, gDto.FilterGroup) (int, error) {
	return len(r.listings), nil
}

func (r listingRepo) Update(context.Context, map[string]any, gDto.FilterGroup) (int64, error) {
	return 0, nil
}

// orderRepo

type orderRepo struct{ *memStore }

func (r orderRepo) Insert(_ context.Context, order model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.Status == model.OrderStatusPending && order.Status == model.OrderStatusPending &&
			existing.UserID == order.UserID && existing.ListingID == order.ListingID && existing.RoomType == order.RoomType {
			return &pq.Error{Code: "23505"}
		}
	}

	r.orders[order.ID] = order
	r.sequence = append(r.sequence, order.ID)

	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return order, gRepo.ErrNotFound
	}

	return order, nil
}

func (r orderRepo) FindPending(_ context.Context, userID, listingID string, roomType model.RoomType) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range r.orders {
		if order.UserID == userID && order.ListingID == listingID && order.RoomType == roomType && order.Status == model.OrderStatusPending {
			return order, nil
		}
	}

	return model.Order{}, gRepo.ErrNotFound
}

func (r orderRepo) CountActive(_ context.Context, listingID string, roomType model.RoomType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.countActiveLocked(listingID, roomType), nil
}

func (r orderRepo) TransitionStatus(_ context.Context, id string, from []model.OrderStatus, to model.OrderStatus, actor string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || !slices.Contains(from, order.Status) {
		return false, nil
	}

	order.Status = to
	order.ModifiedBy = actor
	r.orders[id] = order

	return true, nil
}

func (r orderRepo) ConfirmWithinCapacity(_ context.Context, order model.Order, actor string) (repository.ConfirmOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[order.ListingID]
	if !ok {
		return repository.ConfirmNotPending, gRepo.ErrNotFound
	}

	total := listing.SingleSeats
	if order.RoomType == model.RoomTypeDouble {
		total = listing.DoubleSeats
	}

	target, outcome := model.OrderStatusConfirmed, repository.ConfirmApplied
	if r.countActiveLocked(order.ListingID, order.RoomType) >= total {
		target, outcome = model.OrderStatusCancelled, repository.ConfirmCapacityExhausted
	}

	current := r.orders[order.ID]
	if current.Status != model.OrderStatusPending {
		return repository.ConfirmNotPending, nil
	}

	current.Status = target
	current.ModifiedBy = actor
	r.orders[order.ID] = current

	return outcome, nil
}

func (r orderRepo) viewLocked(order model.Order) model.OrderView {
	listing := r.listings[order.ListingID]

	view := model.OrderView{
		ID:              order.ID,
		UserID:          order.UserID,
		ListingID:       order.ListingID,
		RoomType:        order.RoomType,
		Status:          order.Status,
		ListingOwnerID:  listing.OwnerID,
		ListingName:     listing.Name,
		ListingLocation: listing.Location,
		ListingCategory: listing.Category,
		ListingAddress:  listing.Address,
		Metadata:        order.Metadata,
	}

	for _, tx := range r.transactions {
		if tx.OrderID == order.ID {
			id, amount, currency, status, method, ref := tx.ID, tx.Amount, tx.Currency, string(tx.Status), tx.PaymentMethod, tx.SessionRef
			view.TransactionID, view.Amount, view.Currency = &id, &amount, &currency
			view.TxStatus, view.PaymentMethod, view.SessionRef = &status, &method, &ref
		}
	}

	return view
}

func (r orderRepo) GetView(_ context.Context, id string) (model.OrderView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return model.OrderView{}, gRepo.ErrNotFound
	}

	return r.viewLocked(order), nil
}

func (r orderRepo) matching(filter gDto.FilterGroup) []model.OrderView {
	userID, scoped := filterValue(filter, model.FieldUserID)

	views := []model.OrderView{}

	for _, id := range r.sequence {
		order := r.orders[id]
		if scoped && order.UserID != userID {
			continue
		}

		views = append(views, r.viewLocked(order))
	}

	return views
}

func (r orderRepo) ListViews(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup) ([]model.OrderView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.matching(filter), nil
}

func (r orderRepo) CountViews(_ context.Context, filter gDto.FilterGroup) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.matching(filter)), nil
}

// transactionRepo

type transactionRepo struct{ *memStore }

func (r transactionRepo) Insert(_ context.Context, transaction model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.transactions {
		if existing.OrderID == transaction.OrderID {
			return &pq.Error{Code: "23505"}
		}
	}

	r.transactions[transaction.ID] = transaction

	return nil
}

func (r transactionRepo) GetByOrderID(_ context.Context, orderID string) (model.Transaction, error) {
	tx, ok := r.transaction(orderID)
	if !ok {
		return tx, gRepo.ErrNotFound
	}

	return tx, nil
}

func (r transactionRepo) TransitionStatus(_ context.Context, orderID string, from []model.TxStatus, to model.TxStatus, paymentMethod, actor string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, tx := range r.transactions {
		if tx.OrderID != orderID || !slices.Contains(from, tx.Status) {
			continue
		}

		tx.Status = to
		tx.ModifiedBy = actor

		if paymentMethod != "" {
			tx.PaymentMethod = paymentMethod
		}

		r.transactions[id] = tx

		return true, nil
	}

	return false, nil
}

func (r transactionRepo) SetSessionRef(_ context.Context, id, sessionRef, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.transactions[id]
	tx.SessionRef = sessionRef
	r.transactions[id] = tx

	return nil
}

// fakeGateway issues one session per order and reports it paid.
type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]payment.CheckoutSession
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]payment.CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session := payment.CheckoutSession{
		ID:            "cs_" + req.OrderID,
		URL:           "https://checkout.example.com/" + req.OrderID,
		Paid:          true,
		PaymentMethod: "stripe_card",
		Metadata:      req.Metadata(),
	}
	g.sessions[session.ID] = session

	return session, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, sessionID string) (payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return session, fmt.Errorf("no such checkout session: %s", sessionID)
	}

	return session, nil
}

func (g *fakeGateway) VerifyWebhook(context.Context, []byte, string) (payment.Event, error) {
	return payment.Event{}, payment.ErrInvalidSignature
}

// recorder captures published booking events.
type recorder struct {
	mu     sync.Mutex
	events []dto.BookingEvent
}

func (r *recorder) Publish(_ context.Context, messages ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, message := range messages {
		r.events = append(r.events, message.Value.(dto.BookingEvent))
	}

	return nil
}

func (r *recorder) Close() error {
	return nil
}

func (r *recorder) count(eventType dto.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}

	return count
}
