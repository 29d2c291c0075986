package store

import (
	"context"
	"database/sql"
	"errors"
)

// Directory answers whether a seat may place orders at a store.
type Directory interface {
	ValidateSeat(ctx context.Context, storeID, seatID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Directory {
	return &repository{db: db}
}

func (r *repository) ValidateSeat(ctx context.Context, storeID, seatID int64) error {
	var (
		active  bool
		seatRef sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT s.is_active, st.id
		FROM stores s
		LEFT JOIN seats st ON st.store_id = s.id AND st.id = $2 AND st.deleted_at IS NULL
		WHERE s.id = $1
	`, storeID, seatID).Scan(&active, &seatRef)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStoreNotFound
	}
	if err != nil {
		return err
	}
	if !active {
		return ErrStoreClosed
	}
	if !seatRef.Valid {
		return ErrInvalidSeat.WithMessage("seat %d does not belong to store %d", seatID, storeID)
	}
	return nil
}
