package api

import (
	"net/http"

	"qrorder-be/internal/middleware"
	"qrorder-be/internal/order"
	"qrorder-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type changeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) getCustomerOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetForCustomer(r.Context(), chi.URLParam(r, "orderNumber"), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order.ToView(o, false))
}

func (h *Handler) listStoreOrders(w http.ResponseWriter, r *http.Request) {
	storeID, err := staffStore(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := order.ListFilter{StoreID: storeID}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = &st
	}
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Page, filter.Limit = int32(page), int32(limit)

	orders, err := h.orders.ListStoreOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order.ToViews(orders))
}

// changeOrderStatus moves a store's order along its lifecycle. Cancelling also
// refunds the payment behind the order.
func (h *Handler) changeOrderStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.StaffFromContext(r.Context())

	orderID, err := pathInt64(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req changeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	requested, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var o *order.Order
	if requested == order.StatusCancelled {
		o, err = h.workflow.CancelOrder(r.Context(), claims.StoreID, orderID, req.Reason)
	} else {
		o, err = h.orders.ChangeStatus(r.Context(), claims.StoreID, orderID, requested)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order.ToView(o, false))
}
