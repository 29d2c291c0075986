package order

import (
	"context"
	"crypto/subtle"

	"qrorder-be/internal/logger"
	"qrorder-be/internal/notification"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// GetForCustomer returns the order only when token matches its access token.
	GetForCustomer(ctx context.Context, orderNumber, token string) (*Order, error)
	ListStoreOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	// ChangeStatus is the staff-driven transition. storeID scopes the order to the caller's store.
	ChangeStatus(ctx context.Context, storeID, orderID int64, requested OrderStatus) (*Order, error)
	// CancelForRefund moves a refunded order to CANCELLED when it is still cancellable.
	CancelForRefund(ctx context.Context, orderID int64) (*Order, error)
}

type service struct {
	repo     Repository
	notifier notification.Notifier
}

func NewService(repo Repository, notifier notification.Notifier) Service {
	return &service{repo: repo, notifier: notifier}
}

func (s *service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetForCustomer(ctx context.Context, orderNumber, token string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(o.AccessToken), []byte(token)) != 1 {
		logger.FromCtx(ctx).Warn("order access token mismatch", zap.String("order_number", orderNumber))
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListStoreOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.ListByStore(ctx, filter)
}

func (s *service) ChangeStatus(ctx context.Context, storeID, orderID int64, requested OrderStatus) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ChangeStatus"),
		zap.Int64("order_id", orderID),
		zap.String("requested", string(requested)),
	)

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		log.Warn("order belongs to another store", zap.Int64("store_id", storeID))
		return nil, ErrOrderNotFound
	}

	if err := s.transition(ctx, o, requested, ""); err != nil {
		log.Warn("status change rejected", zap.String("current", string(o.Status)), zap.Error(err))
		return nil, err
	}

	log.Info("order status changed")
	return o, nil
}

func (s *service) CancelForRefund(ctx context.Context, orderID int64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, StatusCancelled, PaymentStatusRefunded); err != nil {
		return nil, err
	}
	return o, nil
}

// transition applies requested. A non-empty paymentStatus overrides the one Apply derives.
func (s *service) transition(ctx context.Context, o *Order, requested OrderStatus, paymentStatus PaymentStatus) error {
	from, fromPayment := o.Status, o.PaymentStatus
	if err := Apply(o, requested); err != nil {
		return err
	}
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	if err := s.repo.UpdateStatus(ctx, o.ID, from, o.Status, o.PaymentStatus); err != nil {
		o.Status, o.PaymentStatus = from, fromPayment
		return err
	}

	switch o.Status {
	case StatusCompleted:
		s.notify(ctx, o, notification.TypeOrderCompleted, notification.AudienceCustomer)
	case StatusCancelled:
		s.notify(ctx, o, notification.TypeOrderCancelled, notification.AudienceCustomer)
		s.notify(ctx, o, notification.TypeOrderCancelled, notification.AudienceAdmin)
	}
	return nil
}

func (s *service) notify(ctx context.Context, o *Order, t notification.Type, audience notification.Audience) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notification.Event{
		Type:        t,
		Audience:    audience,
		StoreID:     o.StoreID,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalAmount,
	})
}
