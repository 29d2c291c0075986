package notification

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListByStore(ctx context.Context, storeID int64, unreadOnly bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, storeID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, n *Notification) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (type, audience, store_id, order_id, title, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, n.Type, n.Audience, n.StoreID, n.OrderID, n.Title, n.Message).Scan(&n.ID, &n.CreatedAt)
}

func (r *repository) ListByStore(ctx context.Context, storeID int64, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, type, audience, store_id, order_id, title, message, is_read, created_at
		FROM notifications
		WHERE store_id = $1 AND audience = 'ADMIN'`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.Type, &n.Audience, &n.StoreID, &n.OrderID,
			&n.Title, &n.Message, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, id, storeID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND store_id = $2
	`, id, storeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
