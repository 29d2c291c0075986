package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderForInsert() *Order {
	return &Order{
		OrderNumber:   "20261019-001-ABCDEFGH",
		AccessToken:   "token",
		StoreID:       1,
		SeatID:        4,
		TotalAmount:   decimal.NewFromInt(9000),
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPaid,
		Items: []OrderItem{
			NewItem(100, "Americano", 2, decimal.NewFromInt(4500), nil),
		},
	}
}

func TestRepository_CreateForPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)
		o := newOrderForInsert()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT order_id FROM payments WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(nil))
		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(o.OrderNumber, o.AccessToken, int64(1), int64(4), o.TotalAmount,
				StatusPending, PaymentStatusPaid, nil, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(77, now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WithArgs(int64(77), int64(100), "Americano", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), []byte("[]")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`UPDATE payments SET order_id = \$1, updated_at = now\(\) WHERE id = \$2 AND order_id IS NULL`).
			WithArgs(int64(77), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.CreateForPayment(ctx, o, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(77), o.ID)
		assert.Equal(t, int64(77), o.Items[0].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyBound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT order_id FROM payments`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(33))
		mock.ExpectRollback()

		err = repo.CreateForPayment(ctx, newOrderForInsert(), 5)
		var already *ErrAlreadyMaterialized
		require.True(t, errors.As(err, &already))
		assert.Equal(t, int64(33), already.OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LostRaceRollsBack", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT order_id FROM payments`).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(nil))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(78, now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		mock.ExpectExec(`UPDATE payments SET order_id`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.CreateForPayment(ctx, newOrderForInsert(), 5)
		var already *ErrAlreadyMaterialized
		assert.True(t, errors.As(err, &already))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateOrderNumber", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT order_id FROM payments`).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(nil))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})
		mock.ExpectRollback()

		err = repo.CreateForPayment(ctx, newOrderForInsert(), 5)
		assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PaymentMissing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT order_id FROM payments`).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
		mock.ExpectRollback()

		err = repo.CreateForPayment(ctx, newOrderForInsert(), 5)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "payment 5 not found")
	})
}

var orderCols = []string{
	"id", "order_number", "access_token", "store_id", "seat_id", "total_amount",
	"status", "payment_status", "customer_request", "customer_name", "customer_phone",
	"created_at", "updated_at",
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE id = \$1`).
			WithArgs(int64(77)).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
				77, "20261019-001-ABCDEFGH", "tok", 1, 4, "9000",
				"PENDING", "PAID", "no ice", nil, nil, now, now,
			))
		mock.ExpectQuery(`FROM order_items WHERE order_id = \$1 ORDER BY id`).
			WithArgs(int64(77)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "order_id", "menu_id", "menu_name", "quantity", "unit_price", "total_price", "options",
			}).AddRow(1, 77, 100, "Americano", 2, "4500", "9000", []byte(`[{"name":"Ice","price":"0"}]`)))

		o, err := repo.GetByID(ctx, 77)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(9000)))
		require.NotNil(t, o.CustomerRequest)
		assert.Equal(t, "no ice", *o.CustomerRequest)
		assert.Nil(t, o.CustomerName)
		require.Len(t, o.Items, 1)
		assert.Equal(t, "Ice", o.Items[0].Options[0].Name)
		assert.True(t, o.Items[0].TotalPrice.Equal(decimal.NewFromInt(9000)))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE id = \$1`).
			WithArgs(int64(78)).
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, err := repo.GetByID(ctx, 78)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_ListByStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	status := StatusPending

	mock.ExpectQuery(`FROM orders WHERE store_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(int64(1), status, int32(20), int32(20)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			77, "n", "tok", 1, 4, "9000", "PENDING", "PAID", nil, nil, nil, time.Now(), time.Now(),
		))

	orders, err := repo.ListByStore(context.Background(), ListFilter{StoreID: 1, Status: &status, Page: 2})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET status = \$1, payment_status = \$2, updated_at = now\(\) WHERE id = \$3 AND status = \$4`).
			WithArgs(StatusPreparing, PaymentStatusPaid, int64(77), StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.UpdateStatus(ctx, 77, StatusPending, StatusPreparing, PaymentStatusPaid))
	})

	t.Run("StatusMovedUnderneath", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, 77, StatusPending, StatusPreparing, PaymentStatusPaid), ErrStatusChanged)
	})
}
