package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"qrorder-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateForPayment inserts o and its items and binds it to the payment in one
	// transaction. It returns *ErrAlreadyMaterialized when the payment already has an order.
	CreateForPayment(ctx context.Context, o *Order, paymentID int64) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListByStore(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to OrderStatus, paymentStatus PaymentStatus) error
}

type ListFilter struct {
	StoreID int64
	Status  *OrderStatus
	Limit   int32
	Page    int32
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, order_number, access_token, store_id, seat_id, total_amount,
	status, payment_status, customer_request, customer_name, customer_phone,
	created_at, updated_at`

func (r *repository) CreateForPayment(ctx context.Context, o *Order, paymentID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateForPayment"),
		zap.Int64("payment_id", paymentID),
		zap.String("order_number", o.OrderNumber),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Lock the payment row; concurrent confirmations queue here.
	var existing sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT order_id FROM payments WHERE id = $1 FOR UPDATE
	`, paymentID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payment %d not found", paymentID)
	}
	if err != nil {
		return err
	}
	if existing.Valid {
		log.Info("payment already bound to order", zap.Int64("order_id", existing.Int64))
		return &ErrAlreadyMaterialized{OrderID: existing.Int64}
	}

	// 2. Insert order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, access_token, store_id, seat_id, total_amount,
			status, payment_status, customer_request, customer_name, customer_phone
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at
	`,
		o.OrderNumber,
		o.AccessToken,
		o.StoreID,
		o.SeatID,
		o.TotalAmount,
		o.Status,
		o.PaymentStatus,
		o.CustomerRequest,
		o.CustomerName,
		o.CustomerPhone,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("order number or access token collision", zap.Error(err))
			return ErrDuplicateOrderNumber.Wrap(err)
		}
		return err
	}

	// 3. Insert items
	for i := range o.Items {
		item := &o.Items[i]
		opts := item.Options
		if opts == nil {
			opts = []ItemOption{}
		}
		options, err := json.Marshal(opts)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, menu_id, menu_name, quantity,
				unit_price, total_price, options
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`,
			o.ID,
			item.MenuID,
			item.MenuName,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			options,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
		item.OrderID = o.ID
	}

	// 4. Bind payment -> order exactly once
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET order_id = $1, updated_at = now()
		WHERE id = $2 AND order_id IS NULL
	`, o.ID, paymentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("payment bound concurrently, rolling back")
		return &ErrAlreadyMaterialized{}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("order materialized", zap.Int64("order_id", o.ID))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.loadOrder(ctx, row)
}

func (r *repository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return r.loadOrder(ctx, row)
}

func (r *repository) loadOrder(ctx context.Context, row *sql.Row) (*Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.fetchItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repository) fetchItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_id, menu_name, quantity, unit_price, total_price, options
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var (
			it      OrderItem
			options []byte
		)
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.MenuID, &it.MenuName, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice, &options,
		); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &it.Options); err != nil {
				return nil, fmt.Errorf("decode options of item %d: %w", it.ID, err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ListByStore(ctx context.Context, filter ListFilter) ([]*Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1`
	args := []any{filter.StoreID}
	if filter.Status != nil {
		query += ` AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, *filter.Status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus only succeeds while the stored status is still from.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to OrderStatus, paymentStatus PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, to, paymentStatus, id, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusChanged
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*Order, error) {
	var (
		o                    Order
		request, name, phone sql.NullString
	)
	err := s.Scan(
		&o.ID, &o.OrderNumber, &o.AccessToken, &o.StoreID, &o.SeatID, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &request, &name, &phone,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.CustomerRequest = nullString(request)
	o.CustomerName = nullString(name)
	o.CustomerPhone = nullString(phone)
	return &o, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}
