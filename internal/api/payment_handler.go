package api

import (
	"net/http"
	"strings"

	"qrorder-be/internal/checkout"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"
	"qrorder-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type prepareItemRequest struct {
	MenuID   int64                `json:"menuId"`
	MenuName string               `json:"menuName"`
	Quantity int                  `json:"quantity"`
	Price    decimal.Decimal      `json:"price"`
	Options  []payment.CartOption `json:"options"`
}

type preparePaymentRequest struct {
	StoreID         int64                `json:"storeId"`
	SeatID          int64                `json:"seatId"`
	OrderItems      []prepareItemRequest `json:"orderItems"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	OrderName       string               `json:"orderName"`
	CustomerRequest *string              `json:"customerRequest"`
	CustomerName    *string              `json:"customerName"`
	CustomerPhone   *string              `json:"customerPhone"`
	SuccessURL      string               `json:"successUrl"`
	FailURL         string               `json:"failUrl"`
}

func (req preparePaymentRequest) toCheckout() checkout.PrepareRequest {
	items := make([]payment.CartItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, payment.CartItem{
			MenuID:    it.MenuID,
			MenuName:  it.MenuName,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Options:   it.Options,
		})
	}
	return checkout.PrepareRequest{
		StoreID:         req.StoreID,
		SeatID:          req.SeatID,
		Items:           items,
		TotalAmount:     req.TotalAmount,
		OrderName:       req.OrderName,
		CustomerRequest: req.CustomerRequest,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		SuccessURL:      req.SuccessURL,
		FailURL:         req.FailURL,
	}
}

type confirmPaymentRequest struct {
	PaymentKey string          `json:"paymentKey"`
	OrderID    string          `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
}

type cancelPaymentRequest struct {
	PaymentKey   string `json:"paymentKey"`
	CancelReason string `json:"cancelReason"`
}

func (h *Handler) preparePayment(w http.ResponseWriter, r *http.Request) {
	var req preparePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	handle, err := h.workflow.Prepare(r.Context(), req.toCheckout())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, handle)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.PaymentKey) == "" || strings.TrimSpace(req.OrderID) == "" {
		writeError(w, r, ErrInvalidBody.WithMessage("paymentKey and orderId are required"))
		return
	}

	o, err := h.workflow.Confirm(r.Context(), req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order.ToView(o, true))
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	var req cancelPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.PaymentKey) == "" {
		writeError(w, r, ErrInvalidBody.WithMessage("paymentKey is required"))
		return
	}

	p, err := h.workflow.Cancel(r.Context(), req.PaymentKey, req.CancelReason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, payment.ToView(p))
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.workflow.GetPaymentByKey(r.Context(), chi.URLParam(r, "paymentKey"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, payment.ToView(p))
}

func (h *Handler) getPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	p, err := h.workflow.GetPaymentByOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, payment.ToView(p))
}
