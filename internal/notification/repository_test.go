package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()
	n := &Notification{Type: TypeOrderReceived, Audience: AudienceAdmin, StoreID: 1, OrderID: 2, Title: "t", Message: "m"}

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(TypeOrderReceived, AudienceAdmin, int64(1), int64(2), "t", "m").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))

	require.NoError(t, repo.Save(context.Background(), n))
	assert.Equal(t, int64(11), n.ID)
	assert.Equal(t, now, n.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	cols := []string{"id", "type", "audience", "store_id", "order_id", "title", "message", "is_read", "created_at"}

	t.Run("UnreadOnly", func(t *testing.T) {
		mock.ExpectQuery(`FROM notifications WHERE store_id = \$1 AND audience = 'ADMIN' AND is_read = false ORDER BY created_at DESC LIMIT \$2`).
			WithArgs(int64(1), 50).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(1, "ORDER_RECEIVED", "ADMIN", 1, 2, "New order", "m", false, time.Now()))

		list, err := repo.ListByStore(context.Background(), 1, true, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, TypeOrderReceived, list[0].Type)
		assert.False(t, list[0].IsRead)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`FROM notifications`).WillReturnError(errors.New("db error"))
		_, err := repo.ListByStore(context.Background(), 1, false, 10)
		assert.Error(t, err)
	})
}

func TestRepository_MarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications SET is_read = true`).
			WithArgs(int64(3), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.MarkRead(context.Background(), 3, 1))
	})

	t.Run("OtherStore", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications SET is_read = true`).
			WithArgs(int64(3), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.MarkRead(context.Background(), 3, 2), ErrNotificationNotFound)
	})
}
