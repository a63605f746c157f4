package repository_test

import (
	"context"
	"errors"
	"fmt"
	"messbook/infras/otel/mocks"
	"messbook/infras/postgres"
	"messbook/shared/dto"
	"messbook/shared/repository"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type room struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	OwnerName string `db:"owner_name" table:"users" column:"name"`
}

func (room) GetJoinQuery() string {
	return "JOIN users ON users.id = rooms.owner_id"
}

func newRepo(t *testing.T) (repository.Repository[room], sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn := &postgres.Connection{
		Read:  sqlx.NewDb(db, "postgres"),
		Write: sqlx.NewDb(db, "postgres"),
	}

	return repository.NewRepository[room]("room", "rooms", "id", conn, mocks.NewOtel()), mock
}

func TestRepository_InsertColumnsSkipJoinedFields(t *testing.T) {
	repo, _ := newRepo(t)

	assert.Equal(t, []string{"id", "name"}, repo.InsertColumns)
}

func TestRepository_Insert(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO rooms \(id, name\) VALUES \(\$1, \$2\)`).
		WithArgs("r-1", "Green House").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), room{ID: "r-1", Name: "Green House"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get(t *testing.T) {
	filter := dto.FilterGroup{Filters: []any{
		dto.Filter{Field: "id", Value: "r-1", Operator: dto.FilterOperatorEq, Table: "rooms"},
	}}

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepo(t)

		mock.ExpectPrepare(`SELECT rooms.id, rooms.name, users.name AS owner_name FROM rooms JOIN users ON users.id = rooms.owner_id`).
			ExpectQuery().
			WithArgs("r-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_name"}).AddRow("r-1", "Green House", "Karim"))

		got, err := repo.Get(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, room{ID: "r-1", Name: "Green House", OwnerName: "Karim"}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepo(t)

		mock.ExpectPrepare(`SELECT (.+) FROM rooms`).
			ExpectQuery().
			WithArgs("r-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_name"}))

		_, err := repo.Get(context.Background(), filter)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRepository_Update(t *testing.T) {
	filter := dto.FilterGroup{Filters: []any{
		dto.Filter{Field: "id", Value: "r-1", Operator: dto.FilterOperatorEq},
		dto.Filter{Field: "name", ArgName: "expected_name", Value: "Old", Operator: dto.FilterOperatorEq},
	}}

	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  bool
	}{
		{name: "transition applied", affected: 1},
		{name: "guard did not match", affected: 0},
		{name: "database error", execErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)

			exec := mock.ExpectExec(`UPDATE rooms SET name = \$1\s+WHERE \(id = \$2 AND name = \$3\)`).
				WithArgs("New", "r-1", "Old")
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			affected, err := repo.Update(context.Background(), map[string]any{"name": "New"}, filter)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.affected, affected)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_UpdateRequiresFilter(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.Update(context.Background(), map[string]any{"name": "New"}, dto.FilterGroup{})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("failed to insert data (order): %w", &pq.Error{Code: "23505"})

	assert.True(t, repository.IsUniqueViolation(wrapped))
	assert.False(t, repository.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, repository.IsUniqueViolation(errors.New("connection reset")))
}
