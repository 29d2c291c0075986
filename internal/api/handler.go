package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"qrorder-be/internal/checkout"
	"qrorder-be/internal/middleware"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/order"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	workflow      checkout.Workflow
	orders        order.Service
	notifications notification.Repository
	hub           *notification.Hub
}

func NewHandler(
	workflow checkout.Workflow,
	orders order.Service,
	notifications notification.Repository,
	hub *notification.Hub,
) *Handler {
	return &Handler{
		workflow:      workflow,
		orders:        orders,
		notifications: notifications,
		hub:           hub,
	}
}

// Routes returns the REST and websocket surface. Staff claims are expected to be
// attached by the authenticator middleware further up the chain.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/payments", func(r chi.Router) {
		r.Post("/prepare", h.preparePayment)
		r.Post("/confirm", h.confirmPayment)
		r.Post("/cancel", h.cancelPayment)
		r.Get("/order/{orderId}", h.getPaymentByOrder)
		r.Get("/{paymentKey}", h.getPayment)
	})

	r.Get("/orders/{orderNumber}", h.getCustomerOrder)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireStaff)
		r.Get("/stores/{storeId}/orders", h.listStoreOrders)
		r.Patch("/orders/{orderId}/status", h.changeOrderStatus)
		r.Get("/stores/{storeId}/notifications", h.listNotifications)
		r.Patch("/notifications/{id}/read", h.markNotificationRead)
	})

	r.Get("/ws/stores/{storeId}", h.subscribeStore)
	r.Get("/ws/orders/{orderNumber}", h.subscribeOrder)

	return r
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return ErrInvalidBody.Wrap(err)
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidParam.WithMessage("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidParam.WithMessage("invalid %s %q", name, raw)
	}
	return n, nil
}

// staffStore returns the caller's store after checking it against the path's storeId.
func staffStore(r *http.Request) (int64, error) {
	claims, ok := middleware.StaffFromContext(r.Context())
	if !ok {
		return 0, ErrForbidden
	}
	storeID, err := pathInt64(r, "storeId")
	if err != nil {
		return 0, err
	}
	if storeID != claims.StoreID {
		return 0, ErrForbidden
	}
	return storeID, nil
}
