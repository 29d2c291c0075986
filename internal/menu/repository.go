package menu

import (
	"context"
	"database/sql"
	"errors"
)

// Catalog resolves menu ids to their current name, price and availability.
type Catalog interface {
	GetMenu(ctx context.Context, id int64) (*Menu, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Catalog {
	return &repository{db: db}
}

func (r *repository) GetMenu(ctx context.Context, id int64) (*Menu, error) {
	var m Menu
	err := r.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, price, is_available
		FROM menus
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&m.ID, &m.StoreID, &m.Name, &m.Price, &m.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
