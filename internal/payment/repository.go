package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrorder-be/internal/logger"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the durable record of payment attempts.
type Ledger interface {
	// CreatePending inserts a READY payment under a freshly generated merchant order id.
	CreatePending(ctx context.Context, amount decimal.Decimal, orderName string, snapshot CartSnapshot) (*Payment, error)
	FindByMerchantOrderID(ctx context.Context, merchantOrderID string) (*Payment, error)
	FindByPaymentKey(ctx context.Context, paymentKey string) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	// ApplyConfirmation records the gateway result while the payment is still confirmable.
	ApplyConfirmation(ctx context.Context, p *Payment, result *GatewayResult) error
	ApplyCancellation(ctx context.Context, p *Payment, result *GatewayResult, reason string) error

	// SaveWebhook logs a webhook delivery. isDuplicate is true when the same
	// event was already processed; unprocessed events are handed out again.
	SaveWebhook(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		merchantOrderID string,
		payload json.RawMessage,
	) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db    *sql.DB
	newID func() string
}

func NewRepository(db *sql.DB) Ledger {
	return &repository{db: db, newID: NewMerchantOrderID}
}

// NewMerchantOrderID returns a time-ordered id accepted by the gateway
// (6 to 64 characters of [A-Za-z0-9_-]).
func NewMerchantOrderID() string {
	return "ORD-" + ulid.Make().String()
}

const paymentColumns = `
	id, merchant_order_id, payment_key, order_name, amount, status, method,
	metadata, order_id, approved_at, canceled_at, cancel_reason, created_at, updated_at`

func (r *repository) CreatePending(
	ctx context.Context,
	amount decimal.Decimal,
	orderName string,
	snapshot CartSnapshot,
) (*Payment, error) {
	metadata, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}

	p := &Payment{
		MerchantOrderID: r.newID(),
		OrderName:       orderName,
		Amount:          amount,
		Status:          StatusReady,
		Metadata:        snapshot,
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO payments (merchant_order_id, order_name, amount, status, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.MerchantOrderID, p.OrderName, p.Amount, p.Status, metadata,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			logger.FromCtx(ctx).Warn("merchant order id collision",
				zap.String("merchant_order_id", p.MerchantOrderID),
			)
			return nil, ErrDuplicateMerchantOrderID.Wrap(err)
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) FindByMerchantOrderID(ctx context.Context, merchantOrderID string) (*Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE merchant_order_id = $1`, merchantOrderID)
}

func (r *repository) FindByPaymentKey(ctx context.Context, paymentKey string) (*Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_key = $1`, paymentKey)
}

func (r *repository) FindByOrderID(ctx context.Context, orderID int64) (*Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*Payment, error) {
	var (
		p            Payment
		paymentKey   sql.NullString
		method       sql.NullString
		metadata     []byte
		orderID      sql.NullInt64
		approvedAt   sql.NullTime
		canceledAt   sql.NullTime
		cancelReason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.MerchantOrderID, &paymentKey, &p.OrderName, &p.Amount, &p.Status, &method,
		&metadata, &orderID, &approvedAt, &canceledAt, &cancelReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of payment %d: %w", p.ID, err)
		}
	}
	if paymentKey.Valid {
		p.PaymentKey = &paymentKey.String
	}
	p.Method = method.String
	if orderID.Valid {
		p.OrderID = &orderID.Int64
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	if canceledAt.Valid {
		p.CanceledAt = &canceledAt.Time
	}
	if cancelReason.Valid {
		p.CancelReason = &cancelReason.String
	}
	return &p, nil
}

func (r *repository) ApplyConfirmation(ctx context.Context, p *Payment, result *GatewayResult) error {
	approvedAt := result.ApprovedAt
	if approvedAt == nil && result.Status == StatusDone {
		now := time.Now()
		approvedAt = &now
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, payment_key = $2, method = $3, approved_at = $4, updated_at = now()
		WHERE id = $5 AND status IN ('READY', 'IN_PROGRESS', 'WAITING_FOR_DEPOSIT')
	`, result.Status, result.PaymentKey, result.Method, approvedAt, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePaymentKey.Wrap(err)
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentAlreadyProcessed
	}

	key := result.PaymentKey
	p.Status = result.Status
	p.PaymentKey = &key
	p.Method = result.Method
	p.ApprovedAt = approvedAt
	return nil
}

func (r *repository) ApplyCancellation(ctx context.Context, p *Payment, result *GatewayResult, reason string) error {
	canceledAt := time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, canceled_at = $2, cancel_reason = $3, updated_at = now()
		WHERE id = $4 AND status IN ('DONE', 'PARTIAL_CANCELED')
	`, result.Status, canceledAt, reason, p.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotCancelable
	}

	p.Status = result.Status
	p.CanceledAt = &canceledAt
	p.CancelReason = &reason
	return nil
}

func (r *repository) SaveWebhook(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	merchantOrderID string,
	payload json.RawMessage,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_type,
		event_id,
		merchant_order_id,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET payload = EXCLUDED.payload
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		provider,
		eventType,
		eventID,
		merchantOrderID,
		[]byte(payload),
	).Scan(&id)

	if err != nil {
		// A redelivery of an already processed event returns no row.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}
