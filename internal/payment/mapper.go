package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// View is the JSON shape of a ledgered payment.
type View struct {
	OrderID      string          `json:"orderId"`
	PaymentKey   *string         `json:"paymentKey"`
	OrderName    string          `json:"orderName"`
	Amount       decimal.Decimal `json:"amount"`
	Status       Status          `json:"status"`
	Method       string          `json:"method,omitempty"`
	StoreID      int64           `json:"storeId"`
	SeatID       int64           `json:"seatId"`
	LinkedOrder  *int64          `json:"linkedOrderId,omitempty"`
	ApprovedAt   *time.Time      `json:"approvedAt,omitempty"`
	CanceledAt   *time.Time      `json:"canceledAt,omitempty"`
	CancelReason *string         `json:"cancelReason,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func ToView(p *Payment) *View {
	if p == nil {
		return nil
	}
	return &View{
		OrderID:      p.MerchantOrderID,
		PaymentKey:   p.PaymentKey,
		OrderName:    p.OrderName,
		Amount:       p.Amount,
		Status:       p.Status,
		Method:       p.Method,
		StoreID:      p.Metadata.StoreID,
		SeatID:       p.Metadata.SeatID,
		LinkedOrder:  p.OrderID,
		ApprovedAt:   p.ApprovedAt,
		CanceledAt:   p.CanceledAt,
		CancelReason: p.CancelReason,
		CreatedAt:    p.CreatedAt,
	}
}
