package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_ValidateSeat(t *testing.T) {
	ctx := context.Background()
	query := `SELECT s.is_active, st.id FROM stores s LEFT JOIN seats st`

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		dbErr   error
		wantErr error
	}{
		{
			name: "Valid",
			rows: sqlmock.NewRows([]string{"is_active", "id"}).AddRow(true, 3),
		},
		{
			name:    "SeatOfOtherStore",
			rows:    sqlmock.NewRows([]string{"is_active", "id"}).AddRow(true, nil),
			wantErr: ErrInvalidSeat,
		},
		{
			name:    "StoreClosed",
			rows:    sqlmock.NewRows([]string{"is_active", "id"}).AddRow(false, 3),
			wantErr: ErrStoreClosed,
		},
		{
			name:    "StoreMissing",
			dbErr:   sql.ErrNoRows,
			wantErr: ErrStoreNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectQuery(query).WithArgs(int64(7), int64(3))
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			err = NewRepository(db).ValidateSeat(ctx, 7, 3)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
