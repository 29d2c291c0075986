package checkout

import (
	"context"
	"encoding/json"

	"qrorder-be/internal/logger"
	"qrorder-be/internal/payment"

	"go.uber.org/zap"
)

const webhookProvider = "TOSS"

// WebhookEvent is a gateway status-change notification. Its amounts are
// never trusted; the payment is re-read from the gateway.
type WebhookEvent struct {
	ID              string
	Type            string
	MerchantOrderID string
	PaymentKey      string
	Status          payment.Status
	Payload         json.RawMessage
}

func (w *workflow) HandleWebhook(ctx context.Context, ev WebhookEvent) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "HandleWebhook"),
		zap.String("event_id", ev.ID),
		zap.String("merchant_order_id", ev.MerchantOrderID),
		zap.String("status", string(ev.Status)),
	)

	webhookID, duplicate, err := w.ledger.SaveWebhook(ctx, webhookProvider, ev.ID, ev.Type, ev.MerchantOrderID, ev.Payload)
	if err != nil {
		log.Error("failed to log webhook", zap.Error(err))
		return err
	}
	if duplicate {
		log.Info("webhook already processed")
		return nil
	}

	var procErr error
	switch ev.Status {
	case payment.StatusDone:
		_, procErr = w.reconcile(ctx, ev.MerchantOrderID)
	case payment.StatusCanceled:
		procErr = w.reconcileCancel(ctx, ev.MerchantOrderID)
	default:
		log.Info("webhook status ignored")
	}

	if procErr != nil {
		log.Error("webhook processing failed", zap.Error(procErr))
		if err := w.ledger.MarkWebhookFailed(ctx, webhookID, procErr.Error()); err != nil {
			log.Error("failed to mark webhook failed", zap.Error(err))
		}
		return procErr
	}

	if err := w.ledger.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
		return err
	}
	log.Info("webhook processed")
	return nil
}

// reconcileCancel records a cancellation made outside this service, for
// example from the gateway's merchant console.
func (w *workflow) reconcileCancel(ctx context.Context, merchantOrderID string) error {
	p, err := w.ledger.FindByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return err
	}
	if p.Status != payment.StatusDone {
		return nil
	}

	result, err := w.gateway.Lookup(ctx, merchantOrderID)
	if err != nil {
		return err
	}
	if result.Status != payment.StatusCanceled {
		return nil
	}

	if err := w.ledger.ApplyCancellation(ctx, p, result, "cancelled at gateway"); err != nil {
		return err
	}
	if p.OrderID != nil {
		if _, err := w.orders.CancelForRefund(ctx, *p.OrderID); err != nil {
			logger.FromCtx(ctx).Warn("order not cancelled after gateway refund",
				zap.Int64("order_id", *p.OrderID), zap.Error(err))
		}
	}
	return nil
}
