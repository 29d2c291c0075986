package api

import (
	"net/http"

	"qrorder-be/internal/logger"
	"qrorder-be/internal/middleware"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	storeID, err := staffStore(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	list, err := h.notifications.ListByStore(r.Context(), storeID, unreadOnly, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*notification.Notification{}
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.StaffFromContext(r.Context())

	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, claims.StoreID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// subscribeStore streams a store's staff notifications.
func (h *Handler) subscribeStore(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.StaffFromContext(r.Context())
	if !ok || claims.Role != middleware.RoleStaff {
		utils.WriteJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "staff authentication required")
		return
	}

	storeID, err := staffStore(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveChannel(w, r, notification.StoreChannel(storeID))
}

// subscribeOrder streams the notifications of a single order to the customer holding its token.
func (h *Handler) subscribeOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetForCustomer(r.Context(), chi.URLParam(r, "orderNumber"), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveChannel(w, r, notification.OrderChannel(o.ID))
}

func (h *Handler) serveChannel(w http.ResponseWriter, r *http.Request, channel string) {
	if err := h.hub.Serve(w, r, channel); err != nil {
		// the upgrader has already answered the client
		logger.FromCtx(r.Context()).Warn("websocket upgrade failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	logger.FromCtx(r.Context()).Info("websocket subscribed", zap.String("channel", channel))
}
