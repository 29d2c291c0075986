package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"qrorder-be/internal/apperror"
	"qrorder-be/internal/checkout"
	"qrorder-be/internal/logger"
	"qrorder-be/internal/payment"
	"qrorder-be/internal/utils"

	"go.uber.org/zap"
)

const (
	TransmissionIDHeader = "Tosspayments-Webhook-Transmission-Id"
	TokenHeader          = "X-Webhook-Token"

	eventPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	eventDepositCallback      = "DEPOSIT_CALLBACK"

	maxBodyBytes = 1 << 20
)

// statusData is the payment part of a webhook. PAYMENT_STATUS_CHANGED nests it
// under "data"; virtual account deposit callbacks send it at the top level.
type statusData struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
}

// Payload represents the JSON the gateway sends.
type Payload struct {
	EventType string      `json:"eventType"`
	CreatedAt string      `json:"createdAt"`
	Data      *statusData `json:"data"`
	statusData
}

type EventHandler interface {
	HandleWebhook(ctx context.Context, event checkout.WebhookEvent) error
}

type Handler struct {
	events EventHandler
	token  string
}

// NewWebhookHandler builds the handler. An empty token disables the shared-token check.
func NewWebhookHandler(events EventHandler, token string) *Handler {
	return &Handler{events: events, token: token}
}

func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("layer", "webhook"))

	if h.token != "" {
		got := r.Header.Get(TokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			log.Warn("webhook token mismatch")
			utils.WriteJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook token")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteJSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "failed to read body")
		return
	}
	defer r.Body.Close()

	event, err := ParseEvent(body, r.Header.Get(TransmissionIDHeader))
	if err != nil {
		log.Warn("invalid webhook payload", zap.Error(err))
		utils.WriteJSONError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))
	log.Info("webhook received", zap.String("merchant_order_id", event.MerchantOrderID))

	if err := h.events.HandleWebhook(r.Context(), event); err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindInternal, apperror.KindGatewayTransient:
			// a non-2xx answer makes the gateway deliver again
			utils.WriteJSONError(w, r, http.StatusInternalServerError, "WEBHOOK_FAILED", "failed to process webhook")
			return
		default:
			log.Warn("webhook acknowledged without effect", zap.Error(err))
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// ParseEvent decodes a webhook body. transmissionID is the gateway's delivery id;
// when absent, an id is derived from the event content so redeliveries still collapse.
func ParseEvent(body []byte, transmissionID string) (checkout.WebhookEvent, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return checkout.WebhookEvent{}, apperror.New(apperror.KindValidation, "INVALID_WEBHOOK", "invalid JSON payload").Wrap(err)
	}

	data := p.statusData
	eventType := p.EventType
	if p.Data != nil {
		data = *p.Data
	}
	if eventType == "" {
		eventType = eventDepositCallback
	}

	if data.OrderID == "" || data.Status == "" {
		return checkout.WebhookEvent{}, apperror.New(apperror.KindValidation, "INVALID_WEBHOOK", "webhook has no orderId or status")
	}
	status := payment.Status(data.Status)
	if !status.Valid() {
		return checkout.WebhookEvent{}, apperror.New(apperror.KindValidation, "INVALID_WEBHOOK", "unknown payment status "+data.Status)
	}

	id := strings.TrimSpace(transmissionID)
	if id == "" {
		id = strings.Join([]string{eventType, data.OrderID, data.Status, p.CreatedAt}, ":")
	}

	return checkout.WebhookEvent{
		ID:              id,
		Type:            eventType,
		MerchantOrderID: data.OrderID,
		PaymentKey:      data.PaymentKey,
		Status:          status,
		Payload:         json.RawMessage(body),
	}, nil
}
