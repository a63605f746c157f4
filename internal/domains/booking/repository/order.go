package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"messbook/infras/otel"
	"messbook/infras/postgres"
	"messbook/internal/domains/booking/model"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	"messbook/shared/logger"
	gRepo "messbook/shared/repository"
	"messbook/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	lockListingSeatsQuery = `SELECT single_seats, double_seats FROM listings WHERE id = $1 FOR UPDATE`
	countActiveQuery      = `SELECT COUNT(*) FROM orders WHERE listing_id = $1 AND room_type = $2 AND status = ANY($3)`
)

type listingSeats struct {
	Single int `db:"single_seats"`
	Double int `db:"double_seats"`
}

func (s listingSeats) total(roomType model.RoomType) int {
	if roomType == model.RoomTypeDouble {
		return s.Double
	}

	return s.Single
}

type orderRepository struct {
	gRepo.Repository[model.Order]
	views gRepo.Repository[model.OrderView]
	db    *postgres.Connection
	otel  otel.Otel
}

func NewOrder(db *postgres.Connection, otel otel.Otel) Order {
	return &orderRepository{
		Repository: gRepo.NewRepository[model.Order](model.OrderEntityName, model.OrderTableName, model.FieldID, db, otel),
		views:      gRepo.NewRepository[model.OrderView](model.OrderEntityName, model.OrderTableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (model.Order, error) {
	return r.Get(ctx, byID(model.OrderTableName, id)) //nolint:wrapcheck
}

// FindPending returns the open order for (user, listing, tier), or gRepo.ErrNotFound.
func (r *orderRepository) FindPending(ctx context.Context, userID, listingID string, roomType model.RoomType) (model.Order, error) {
	filter := gDto.FilterGroup{Filters: []any{
		gDto.Filter{Field: model.FieldUserID, Value: userID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldListingID, Value: listingID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldRoomType, Value: string(roomType), Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldStatus, Value: string(model.OrderStatusPending), Operator: gDto.FilterOperatorEq},
	}}

	return r.Get(ctx, filter) //nolint:wrapcheck
}

func (r *orderRepository) CountActive(ctx context.Context, listingID string, roomType model.RoomType) (int, error) {
	filter := gDto.FilterGroup{Filters: []any{
		gDto.Filter{Field: model.FieldListingID, Value: listingID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldRoomType, Value: string(roomType), Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldStatus, Value: orderStatuses(model.ActiveStatuses), Operator: gDto.FilterOperatorAny},
	}}

	return r.Count(ctx, filter) //nolint:wrapcheck
}

// TransitionStatus moves the order to `to` only while its status is one of from.
// It reports false when another writer got there first.
func (r *orderRepository) TransitionStatus(ctx context.Context, id string, from []model.OrderStatus, to model.OrderStatus, actor string) (bool, error) {
	affected, err := r.Update(ctx, statusUpdate(string(to), actor), transitionFilter(model.FieldID, id, orderStatuses(from)))
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	return affected > 0, nil
}

// ConfirmWithinCapacity re-counts the tier with the listing row locked, then confirms the
// pending order, or cancels it when every seat is already taken.
func (r *orderRepository) ConfirmWithinCapacity(ctx context.Context, order model.Order, actor string) (outcome ConfirmOutcome, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".order.ConfirmWithinCapacity")
	defer scope.End()

	err = r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var seats listingSeats
		if err := tx.GetContext(ctx, &seats, lockListingSeatsQuery, order.ListingID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return gRepo.ErrNotFound
			}

			return fmt.Errorf("failed to lock listing seats: %w", err)
		}

		var active int
		if err := tx.GetContext(ctx, &active, countActiveQuery, order.ListingID, string(order.RoomType), pq.Array(orderStatuses(model.ActiveStatuses))); err != nil {
			return fmt.Errorf("failed to count active orders: %w", err)
		}

		target := model.OrderStatusConfirmed
		outcome = ConfirmApplied

		if active >= seats.total(order.RoomType) {
			target = model.OrderStatusCancelled
			outcome = ConfirmCapacityExhausted
		}

		filter := transitionFilter(model.FieldID, order.ID, orderStatuses([]model.OrderStatus{model.OrderStatusPending}))

		affected, err := r.UpdateTx(ctx, tx, statusUpdate(string(target), actor), filter)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if affected == 0 {
			outcome = ConfirmNotPending
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, gRepo.ErrNotFound) {
			logger.ErrorWithStack(err)
		}

		scope.TraceError(err)

		return outcome, err
	}

	return outcome, nil
}

func (r *orderRepository) GetView(ctx context.Context, id string) (model.OrderView, error) {
	return r.views.Get(ctx, byID(model.OrderTableName, id)) //nolint:wrapcheck
}

func (r *orderRepository) ListViews(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.OrderView, error) {
	return r.views.GetAll(ctx, params, filter) //nolint:wrapcheck
}

func (r *orderRepository) CountViews(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	return r.views.Count(ctx, filter) //nolint:wrapcheck
}

func byID(table, id string) gDto.FilterGroup {
	return gDto.FilterGroup{Filters: []any{
		gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: table},
	}}
}

// transitionFilter matches the row whose field equals key only while its status is one of from.
func transitionFilter(field, key string, from []string) gDto.FilterGroup {
	return gDto.FilterGroup{Filters: []any{
		gDto.Filter{Field: field, Value: key, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldStatus, ArgName: "from_status", Value: from, Operator: gDto.FilterOperatorAny},
	}}
}

func statusUpdate(status, actor string) map[string]any {
	return map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}
}

func orderStatuses(statuses []model.OrderStatus) []string {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}

	return values
}
