package checkout

import (
	"context"
	"errors"
	"strings"

	"qrorder-be/internal/logger"
	"qrorder-be/internal/menu"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"
	"qrorder-be/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxPrepareAttempts  = 3
	defaultCancelReason = "customer request"
)

// Workflow coordinates the ledger, the gateway and order materialization.
type Workflow interface {
	Prepare(ctx context.Context, req PrepareRequest) (*PaymentHandle, error)
	// Confirm is safe to replay: a payment that already produced an order
	// returns that order.
	Confirm(ctx context.Context, paymentKey, merchantOrderID string, amount decimal.Decimal) (*order.Order, error)
	Cancel(ctx context.Context, paymentKey, reason string) (*payment.Payment, error)
	// CancelOrder refunds the payment behind a store's order and cancels the order.
	CancelOrder(ctx context.Context, storeID, orderID int64, reason string) (*order.Order, error)
	GetPaymentByKey(ctx context.Context, paymentKey string) (*payment.Payment, error)
	GetPaymentByOrder(ctx context.Context, merchantOrderID string) (*payment.Payment, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

// RedirectURLs are the defaults handed to the gateway's payment UI.
type RedirectURLs struct {
	Success string
	Fail    string
}

type workflow struct {
	ledger       payment.Ledger
	gateway      payment.Gateway
	stores       store.Directory
	catalog      menu.Catalog
	materializer Materializer
	orders       order.Service
	urls         RedirectURLs
}

func NewWorkflow(
	ledger payment.Ledger,
	gateway payment.Gateway,
	stores store.Directory,
	catalog menu.Catalog,
	materializer Materializer,
	orders order.Service,
	urls RedirectURLs,
) Workflow {
	return &workflow{
		ledger:       ledger,
		gateway:      gateway,
		stores:       stores,
		catalog:      catalog,
		materializer: materializer,
		orders:       orders,
		urls:         urls,
	}
}

func (w *workflow) Prepare(ctx context.Context, req PrepareRequest) (*PaymentHandle, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Prepare"),
		zap.Int64("store_id", req.StoreID),
		zap.Int64("seat_id", req.SeatID),
	)

	snapshot, err := req.validate()
	if err != nil {
		log.Warn("cart rejected", zap.Error(err))
		return nil, err
	}
	if err := w.stores.ValidateSeat(ctx, req.StoreID, req.SeatID); err != nil {
		log.Warn("seat rejected", zap.Error(err))
		return nil, err
	}
	if err := w.checkPrices(ctx, snapshot, req.TotalAmount); err != nil {
		log.Warn("cart rejected against catalog", zap.Error(err))
		return nil, err
	}

	orderName := strings.TrimSpace(req.OrderName)
	var p *payment.Payment
	for attempt := 1; attempt <= maxPrepareAttempts; attempt++ {
		p, err = w.ledger.CreatePending(ctx, req.TotalAmount, orderName, snapshot)
		if err == nil {
			break
		}
		if !errors.Is(err, payment.ErrDuplicateMerchantOrderID) {
			log.Error("failed to ledger pending payment", zap.Error(err))
			return nil, err
		}
		log.Warn("merchant order id collision, regenerating", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	handle := &PaymentHandle{
		MerchantOrderID: p.MerchantOrderID,
		Amount:          p.Amount,
		OrderName:       p.OrderName,
		SuccessURL:      firstNonEmpty(req.SuccessURL, w.urls.Success),
		FailURL:         firstNonEmpty(req.FailURL, w.urls.Fail),
	}
	log.Info("payment prepared",
		zap.String("merchant_order_id", p.MerchantOrderID),
		zap.String("amount", p.Amount.String()),
	)
	return handle, nil
}

// checkPrices re-prices the cart from the catalog so a stale or tampered cart
// is refused before the customer is charged.
func (w *workflow) checkPrices(ctx context.Context, cart payment.CartSnapshot, claimed decimal.Decimal) error {
	items, err := resolveCart(ctx, w.catalog, cart)
	if err != nil {
		return err
	}
	if total := order.SumItems(items); !total.Equal(claimed) {
		return ErrCartTotalMismatch.WithMessage(
			"current menu prices sum to %s but the cart claims %s", total.String(), claimed.String())
	}
	return nil
}

func (w *workflow) Confirm(ctx context.Context, paymentKey, merchantOrderID string, amount decimal.Decimal) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Confirm"),
		zap.String("merchant_order_id", merchantOrderID),
		zap.String("payment_key", paymentKey),
	)

	p, err := w.ledger.FindByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if !p.Amount.Equal(amount) {
		log.Warn("confirm amount differs from prepared amount",
			zap.String("prepared", p.Amount.String()),
			zap.String("requested", amount.String()),
		)
		return nil, ErrAmountMismatch.WithMessage(
			"requested amount %s does not match prepared amount %s", amount.String(), p.Amount.String())
	}
	if p.PaymentKey != nil && *p.PaymentKey != paymentKey {
		return nil, ErrPaymentKeyMismatch
	}

	switch {
	case p.Status == payment.StatusDone && p.OrderID != nil:
		log.Info("confirm replayed, returning existing order", zap.Int64("order_id", *p.OrderID))
		return w.orders.GetOrder(ctx, *p.OrderID)
	case p.Status == payment.StatusDone:
		log.Warn("payment confirmed earlier without order, materializing from ledger")
		return w.materializer.Materialize(ctx, p, payment.ResultFromLedger(p))
	case !p.Status.Confirmable():
		return nil, payment.ErrPaymentAlreadyProcessed.WithMessage("payment is %s", p.Status)
	}

	result, err := w.gateway.Confirm(ctx, paymentKey, merchantOrderID, amount)
	if err != nil {
		if payment.ProviderCode(err) == payment.CodeAlreadyProcessed {
			log.Info("gateway reports payment already processed, reconciling")
			return w.reconcile(ctx, merchantOrderID)
		}
		return nil, err
	}
	if err := verifyResult(p, result); err != nil {
		log.Error("gateway result rejected, payment left unconfirmed",
			zap.String("gateway_order_id", result.MerchantOrderID),
			zap.String("gateway_amount", result.TotalAmount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := w.ledger.ApplyConfirmation(ctx, p, result); err != nil {
		if errors.Is(err, payment.ErrPaymentAlreadyProcessed) {
			log.Info("payment confirmed concurrently, reconciling")
			return w.reconcile(ctx, merchantOrderID)
		}
		log.Error("failed to record confirmation", zap.Error(err))
		return nil, err
	}
	if result.Status != payment.StatusDone {
		return nil, ErrPaymentNotDone.WithMessage("payment is %s", result.Status)
	}

	return w.materializer.Materialize(ctx, p, result)
}

// reconcile brings the ledger in line with the gateway for a payment the
// gateway already considers processed, then materializes it.
func (w *workflow) reconcile(ctx context.Context, merchantOrderID string) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("merchant_order_id", merchantOrderID))

	p, err := w.ledger.FindByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if p.OrderID != nil {
		return w.orders.GetOrder(ctx, *p.OrderID)
	}
	if p.Status == payment.StatusDone {
		return w.materializer.Materialize(ctx, p, payment.ResultFromLedger(p))
	}
	if !p.Status.Confirmable() {
		return nil, payment.ErrPaymentAlreadyProcessed.WithMessage("payment is %s", p.Status)
	}

	result, err := w.gateway.Lookup(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if result.Status != payment.StatusDone {
		log.Info("gateway payment not done", zap.String("status", string(result.Status)))
		return nil, ErrPaymentNotDone.WithMessage("payment is %s", result.Status)
	}
	if err := verifyResult(p, result); err != nil {
		log.Error("gateway lookup rejected, payment left unconfirmed",
			zap.String("gateway_order_id", result.MerchantOrderID),
			zap.String("gateway_amount", result.TotalAmount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := w.ledger.ApplyConfirmation(ctx, p, result); err != nil {
		if !errors.Is(err, payment.ErrPaymentAlreadyProcessed) {
			return nil, err
		}
		if p, err = w.ledger.FindByMerchantOrderID(ctx, merchantOrderID); err != nil {
			return nil, err
		}
		if p.OrderID != nil {
			return w.orders.GetOrder(ctx, *p.OrderID)
		}
	}
	return w.materializer.Materialize(ctx, p, result)
}

// verifyResult rejects a gateway result that does not describe the ledgered
// payment. It runs before the ledger is touched, so a rejected payment stays
// confirmable and never reaches the from-ledger materialization path.
func verifyResult(p *payment.Payment, result *payment.GatewayResult) error {
	if result.MerchantOrderID != p.MerchantOrderID {
		return payment.ErrMalformedGatewayResponse.WithMessage(
			"gateway answered for order %s, expected %s", result.MerchantOrderID, p.MerchantOrderID)
	}
	if !result.TotalAmount.Equal(p.Amount) {
		return ErrAmountMismatch.WithMessage(
			"payment amount %s does not match confirmed amount %s", p.Amount.String(), result.TotalAmount.String())
	}
	return nil
}

func (w *workflow) Cancel(ctx context.Context, paymentKey, reason string) (*payment.Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Cancel"),
		zap.String("payment_key", paymentKey),
	)

	p, err := w.ledger.FindByPaymentKey(ctx, paymentKey)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case payment.StatusDone:
	case payment.StatusCanceled:
		return nil, payment.ErrAlreadyCanceled
	default:
		return nil, payment.ErrPaymentNotCancelable.WithMessage("payment is %s", p.Status)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	result, err := w.gateway.Cancel(ctx, paymentKey, p.Amount, reason)
	if err != nil {
		return nil, err
	}
	if err := w.ledger.ApplyCancellation(ctx, p, result, reason); err != nil {
		log.Error("gateway cancelled but ledger update failed", zap.Error(err))
		return nil, err
	}
	log.Info("payment cancelled", zap.String("amount", p.Amount.String()))

	if p.OrderID != nil {
		if _, err := w.orders.CancelForRefund(ctx, *p.OrderID); err != nil {
			// Refund stands; the order keeps its status for staff to resolve.
			log.Warn("order not cancelled after refund", zap.Int64("order_id", *p.OrderID), zap.Error(err))
		}
	}
	return p, nil
}

func (w *workflow) CancelOrder(ctx context.Context, storeID, orderID int64, reason string) (*order.Order, error) {
	o, err := w.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, order.ErrOrderNotFound
	}
	if _, err := order.Transition(o.Status, order.StatusCancelled); err != nil {
		return nil, err
	}

	p, err := w.ledger.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.PaymentKey == nil {
		return nil, payment.ErrPaymentNotCancelable.WithMessage("payment %s has no payment key", p.MerchantOrderID)
	}
	if _, err := w.Cancel(ctx, *p.PaymentKey, reason); err != nil {
		return nil, err
	}
	return w.orders.GetOrder(ctx, orderID)
}

func (w *workflow) GetPaymentByKey(ctx context.Context, paymentKey string) (*payment.Payment, error) {
	return w.ledger.FindByPaymentKey(ctx, paymentKey)
}

func (w *workflow) GetPaymentByOrder(ctx context.Context, merchantOrderID string) (*payment.Payment, error) {
	return w.ledger.FindByMerchantOrderID(ctx, merchantOrderID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
