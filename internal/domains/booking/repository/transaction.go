package repository

import (
	"context"
	"messbook/infras/otel"
	"messbook/infras/postgres"
	"messbook/internal/domains/booking/model"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	gRepo "messbook/shared/repository"
	"messbook/shared/timezone"
)

type transactionRepository struct {
	gRepo.Repository[model.Transaction]
}

func NewTransaction(db *postgres.Connection, otel otel.Otel) Transaction {
	return &transactionRepository{
		Repository: gRepo.NewRepository[model.Transaction](model.TransactionEntity, model.TransactionTableName, model.FieldID, db, otel),
	}
}

func (r *transactionRepository) GetByOrderID(ctx context.Context, orderID string) (model.Transaction, error) {
	filter := gDto.FilterGroup{Filters: []any{
		gDto.Filter{Field: model.FieldOrderID, Value: orderID, Operator: gDto.FilterOperatorEq},
	}}

	return r.Get(ctx, filter) //nolint:wrapcheck
}

// TransitionStatus updates the transaction of orderID only while its status is one of from.
// An empty paymentMethod leaves the stored method untouched.
func (r *transactionRepository) TransitionStatus(ctx context.Context, orderID string, from []model.TxStatus, to model.TxStatus, paymentMethod, actor string) (bool, error) {
	mod := statusUpdate(string(to), actor)
	if paymentMethod != "" {
		mod[model.FieldMethod] = paymentMethod
	}

	values := make([]string, len(from))
	for i, status := range from {
		values[i] = string(status)
	}

	affected, err := r.Update(ctx, mod, transitionFilter(model.FieldOrderID, orderID, values))
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	return affected > 0, nil
}

func (r *transactionRepository) SetSessionRef(ctx context.Context, id, sessionRef, actor string) error {
	mod := map[string]any{
		model.FieldSessionRef:    sessionRef,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	_, err := r.Update(ctx, mod, byID(model.TransactionTableName, id))

	return err //nolint:wrapcheck
}
