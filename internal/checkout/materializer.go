package checkout

import (
	"context"
	"errors"
	"fmt"

	"qrorder-be/internal/logger"
	"qrorder-be/internal/menu"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"

	"go.uber.org/zap"
)

const maxNumberAttempts = 3

// Materializer turns a confirmed payment into exactly one order.
type Materializer interface {
	Materialize(ctx context.Context, p *payment.Payment, result *payment.GatewayResult) (*order.Order, error)
}

type materializer struct {
	ledger   payment.Ledger
	orders   order.Repository
	catalog  menu.Catalog
	numbers  *order.NumberGenerator
	notifier notification.Notifier
}

func NewMaterializer(
	ledger payment.Ledger,
	orders order.Repository,
	catalog menu.Catalog,
	numbers *order.NumberGenerator,
	notifier notification.Notifier,
) Materializer {
	return &materializer{
		ledger:   ledger,
		orders:   orders,
		catalog:  catalog,
		numbers:  numbers,
		notifier: notifier,
	}
}

func (m *materializer) Materialize(ctx context.Context, p *payment.Payment, result *payment.GatewayResult) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Materialize"),
		zap.Int64("payment_id", p.ID),
		zap.String("merchant_order_id", p.MerchantOrderID),
	)

	if !p.Amount.Equal(result.TotalAmount) {
		log.Error("confirmed amount differs from ledgered amount",
			zap.String("ledger_amount", p.Amount.String()),
			zap.String("gateway_amount", result.TotalAmount.String()),
		)
		return nil, ErrAmountMismatch.WithMessage(
			"payment amount %s does not match confirmed amount %s", p.Amount.String(), result.TotalAmount.String())
	}

	if p.OrderID != nil {
		log.Info("payment already materialized", zap.Int64("order_id", *p.OrderID))
		return m.orders.GetByID(ctx, *p.OrderID)
	}

	items, err := resolveCart(ctx, m.catalog, p.Metadata)
	if err != nil {
		log.Warn("cart could not be resolved against catalog", zap.Error(err))
		return nil, err
	}
	if total := order.SumItems(items); !total.Equal(p.Amount) {
		// Money has moved but the catalog changed under the cart. The payment
		// stays DONE without an order until staff cancel it.
		log.Error("catalog total differs from paid amount",
			zap.String("catalog_total", total.String()),
			zap.String("paid", p.Amount.String()),
		)
		return nil, ErrCartTotalMismatch.WithMessage(
			"current menu prices sum to %s but %s was paid", total.String(), p.Amount.String())
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		o, err := order.New(m.numbers, p.Metadata.StoreID, p.Metadata.SeatID, cloneItems(items))
		if err != nil {
			return nil, err
		}
		o.CustomerRequest = p.Metadata.CustomerRequest
		o.CustomerName = p.Metadata.CustomerName
		o.CustomerPhone = p.Metadata.CustomerPhone

		err = m.orders.CreateForPayment(ctx, o, p.ID)
		if err == nil {
			p.OrderID = &o.ID
			log.Info("order materialized",
				zap.Int64("order_id", o.ID),
				zap.String("order_number", o.OrderNumber),
			)
			m.announce(ctx, o)
			return o, nil
		}

		var already *order.ErrAlreadyMaterialized
		if errors.As(err, &already) {
			log.Info("lost materialization race, returning existing order")
			return m.existing(ctx, p, already.OrderID)
		}
		if errors.Is(err, order.ErrDuplicateOrderNumber) && attempt < maxNumberAttempts {
			log.Warn("order number collision, regenerating", zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}
	return nil, order.ErrDuplicateOrderNumber
}

// resolveCart prices a cart snapshot with the catalog's current menu prices
// plus the snapshot's option prices.
func resolveCart(ctx context.Context, catalog menu.Catalog, cart payment.CartSnapshot) ([]order.OrderItem, error) {
	if len(cart.Items) == 0 {
		return nil, ErrInvalidCart.WithMessage("payment has an empty cart snapshot")
	}

	items := make([]order.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidCart.WithMessage("menu %d has quantity %d", it.MenuID, it.Quantity)
		}

		mn, err := catalog.GetMenu(ctx, it.MenuID)
		if errors.Is(err, menu.ErrMenuNotFound) {
			return nil, ErrMenuUnavailable.WithMessage("menu %d no longer exists", it.MenuID)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve menu %d: %w", it.MenuID, err)
		}
		if !mn.Available || mn.StoreID != cart.StoreID {
			return nil, ErrMenuUnavailable.WithMessage("%s is not available", mn.Name)
		}

		unit := mn.Price
		options := make([]order.ItemOption, 0, len(it.Options))
		for _, opt := range it.Options {
			unit = unit.Add(opt.Price)
			options = append(options, order.ItemOption{Name: opt.Name, Price: opt.Price})
		}
		items = append(items, order.NewItem(mn.ID, mn.Name, it.Quantity, unit, options))
	}
	return items, nil
}

// existing loads the order a concurrent call bound to p.
func (m *materializer) existing(ctx context.Context, p *payment.Payment, orderID int64) (*order.Order, error) {
	if orderID == 0 {
		fresh, err := m.ledger.FindByMerchantOrderID(ctx, p.MerchantOrderID)
		if err != nil {
			return nil, err
		}
		if fresh.OrderID == nil {
			return nil, fmt.Errorf("payment %d reported as materialized but has no order", p.ID)
		}
		orderID = *fresh.OrderID
	}
	p.OrderID = &orderID
	return m.orders.GetByID(ctx, orderID)
}

func (m *materializer) announce(ctx context.Context, o *order.Order) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(ctx, notification.Event{
		Type:        notification.TypeOrderReceived,
		Audience:    notification.AudienceAdmin,
		StoreID:     o.StoreID,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalAmount,
	})
	m.notifier.Notify(ctx, notification.Event{
		Type:        notification.TypePaymentCompleted,
		Audience:    notification.AudienceCustomer,
		StoreID:     o.StoreID,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalAmount,
	})
}

func cloneItems(items []order.OrderItem) []order.OrderItem {
	out := make([]order.OrderItem, len(items))
	copy(out, items)
	return out
}
