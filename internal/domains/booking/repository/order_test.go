package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messbook/infras/otel/mocks"
	"messbook/infras/postgres"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/repository"
	gRepo "messbook/shared/repository"
)

const (
	orderID   = "0b7e3f52-4a5c-4d38-9a41-3f0e8c6b2d11"
	listingID = "6f1c2f4e-8a51-4c1e-9d0a-2b7d8f1e3c55"
)

const (
	lockQuery    = `SELECT single_seats, double_seats FROM listings WHERE id = \$1 FOR UPDATE`
	countQuery   = `SELECT COUNT\(\*\) FROM orders WHERE listing_id = \$1 AND room_type = \$2 AND status = ANY\(\$3\)`
	updateOrders = `UPDATE orders SET modified_at = \$1, modified_by = \$2, status = \$3\s+WHERE \(id = \$4 AND status = ANY\(\$5\)\)`
)

func newConnection(t *testing.T) (*postgres.Connection, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &postgres.Connection{
		Read:  sqlx.NewDb(db, "postgres"),
		Write: sqlx.NewDb(db, "postgres"),
	}, mock
}

func pendingOrder(roomType model.RoomType) model.Order {
	return model.Order{ID: orderID, UserID: "user-1", ListingID: listingID, RoomType: roomType, Status: model.OrderStatusPending}
}

func TestOrder_TransitionStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "row still pending", affected: 1, want: true},
		{name: "another writer won", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newConnection(t)
			repo := repository.NewOrder(conn, mocks.NewOtel())

			mock.ExpectExec(updateOrders).
				WithArgs(sqlmock.AnyArg(), "system", "expired", orderID, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			applied, err := repo.TransitionStatus(context.Background(), orderID,
				[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusExpired, "system")
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrder_ConfirmWithinCapacity(t *testing.T) {
	tests := []struct {
		name       string
		roomType   model.RoomType
		single     int
		double     int
		active     int
		wantStatus string
		affected   int64
		want       repository.ConfirmOutcome
	}{
		{name: "seat left confirms", roomType: model.RoomTypeSingle, single: 2, active: 1, wantStatus: "confirmed", affected: 1, want: repository.ConfirmApplied},
		{name: "double tier counted separately", roomType: model.RoomTypeDouble, single: 0, double: 1, active: 0, wantStatus: "confirmed", affected: 1, want: repository.ConfirmApplied},
		{name: "full tier cancels", roomType: model.RoomTypeSingle, single: 1, active: 1, wantStatus: "cancelled", affected: 1, want: repository.ConfirmCapacityExhausted},
		{name: "already confirmed is untouched", roomType: model.RoomTypeSingle, single: 1, active: 1, wantStatus: "cancelled", affected: 0, want: repository.ConfirmNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newConnection(t)
			repo := repository.NewOrder(conn, mocks.NewOtel())

			mock.ExpectBegin()
			mock.ExpectQuery(lockQuery).
				WithArgs(listingID).
				WillReturnRows(sqlmock.NewRows([]string{"single_seats", "double_seats"}).AddRow(tt.single, tt.double))
			mock.ExpectQuery(countQuery).
				WithArgs(listingID, string(tt.roomType), sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.active))
			mock.ExpectExec(updateOrders).
				WithArgs(sqlmock.AnyArg(), "system", tt.wantStatus, orderID, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			outcome, err := repo.ConfirmWithinCapacity(context.Background(), pendingOrder(tt.roomType), "system")
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrder_ConfirmWithinCapacityRollsBack(t *testing.T) {
	t.Run("missing listing", func(t *testing.T) {
		conn, mock := newConnection(t)
		repo := repository.NewOrder(conn, mocks.NewOtel())

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(listingID).WillReturnRows(sqlmock.NewRows([]string{"single_seats", "double_seats"}))
		mock.ExpectRollback()

		_, err := repo.ConfirmWithinCapacity(context.Background(), pendingOrder(model.RoomTypeSingle), "system")
		assert.ErrorIs(t, err, gRepo.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update failure", func(t *testing.T) {
		conn, mock := newConnection(t)
		repo := repository.NewOrder(conn, mocks.NewOtel())

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"single_seats", "double_seats"}).AddRow(3, 0))
		mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(updateOrders).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.ConfirmWithinCapacity(context.Background(), pendingOrder(model.RoomTypeSingle), "system")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrder_FindPending(t *testing.T) {
	conn, mock := newConnection(t)
	repo := repository.NewOrder(conn, mocks.NewOtel())

	mock.ExpectPrepare(`SELECT (.+) FROM orders\s+WHERE \(user_id = \$1 AND listing_id = \$2 AND room_type = \$3 AND status = \$4\)\s+LIMIT 1`).
		ExpectQuery().
		WithArgs("user-1", listingID, "single", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "listing_id", "room_type", "status"}).
			AddRow(orderID, "user-1", listingID, "single", "pending"))

	order, err := repo.FindPending(context.Background(), "user-1", listingID, model.RoomTypeSingle)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_TransitionStatus(t *testing.T) {
	conn, mock := newConnection(t)
	repo := repository.NewTransaction(conn, mocks.NewOtel())

	mock.ExpectExec(`UPDATE transactions SET modified_at = \$1, modified_by = \$2, payment_method = \$3, status = \$4\s+WHERE \(order_id = \$5 AND status = ANY\(\$6\)\)`).
		WithArgs(sqlmock.AnyArg(), "system", "stripe_card", "completed", orderID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.TransitionStatus(context.Background(), orderID,
		[]model.TxStatus{model.TxStatusPending}, model.TxStatusCompleted, "stripe_card", "system")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
