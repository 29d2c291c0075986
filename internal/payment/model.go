package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values are defined by the gateway.
type Status string

const (
	StatusReady             Status = "READY"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusWaitingForDeposit Status = "WAITING_FOR_DEPOSIT"
	StatusDone              Status = "DONE"
	StatusCanceled          Status = "CANCELED"
	StatusPartialCanceled   Status = "PARTIAL_CANCELED"
	StatusAborted           Status = "ABORTED"
	StatusExpired           Status = "EXPIRED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReady, StatusInProgress, StatusWaitingForDeposit, StatusDone,
		StatusCanceled, StatusPartialCanceled, StatusAborted, StatusExpired:
		return true
	}
	return false
}

// Confirmable reports whether a confirmation result may still be applied.
func (s Status) Confirmable() bool {
	return s == StatusReady || s == StatusInProgress || s == StatusWaitingForDeposit
}

type Payment struct {
	ID              int64
	MerchantOrderID string
	PaymentKey      *string
	OrderName       string
	Amount          decimal.Decimal
	Status          Status
	Method          string
	Metadata        CartSnapshot
	OrderID         *int64
	ApprovedAt      *time.Time
	CanceledAt      *time.Time
	CancelReason    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CartSnapshot is the cart captured at prepare time. It is the only input
// for materializing the order.
type CartSnapshot struct {
	StoreID         int64      `json:"storeId"`
	SeatID          int64      `json:"seatId"`
	Items           []CartItem `json:"items"`
	CustomerRequest *string    `json:"customerRequest,omitempty"`
	CustomerName    *string    `json:"customerName,omitempty"`
	CustomerPhone   *string    `json:"customerPhone,omitempty"`
}

type CartItem struct {
	MenuID    int64           `json:"menuId"`
	MenuName  string          `json:"menuName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Options   []CartOption    `json:"options,omitempty"`
}

type CartOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Total returns Σ (unit price + option prices) × quantity.
func (c CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LinePrice())
	}
	return total
}

func (it CartItem) LinePrice() decimal.Decimal {
	unit := it.UnitPrice
	for _, opt := range it.Options {
		unit = unit.Add(opt.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// GatewayResult is the normalized view of a gateway payment object.
type GatewayResult struct {
	PaymentKey      string
	MerchantOrderID string
	OrderName       string
	Status          Status
	TotalAmount     decimal.Decimal
	BalanceAmount   decimal.Decimal
	SuppliedAmount  decimal.Decimal
	VAT             decimal.Decimal
	Method          string
	RawMethod       string
	RequestedAt     *time.Time
	ApprovedAt      *time.Time
	Card            *CardDetail
	EasyPay         *EasyPayDetail
	VirtualAccount  *VirtualAccountDetail
	// Synthesized is set when the result was produced by the sandbox escape hatch.
	Synthesized bool
}

type CardDetail struct {
	IssuerCode        string
	Number            string
	InstallmentMonths int
	ApproveNo         string
}

type EasyPayDetail struct {
	Provider string
	Amount   decimal.Decimal
}

type VirtualAccountDetail struct {
	AccountNumber string
	BankCode      string
	DueDate       *time.Time
}

// ResultFromLedger rebuilds the confirmation result already recorded for p.
func ResultFromLedger(p *Payment) *GatewayResult {
	r := &GatewayResult{
		MerchantOrderID: p.MerchantOrderID,
		OrderName:       p.OrderName,
		Status:          p.Status,
		TotalAmount:     p.Amount,
		BalanceAmount:   p.Amount,
		Method:          p.Method,
		ApprovedAt:      p.ApprovedAt,
	}
	if p.PaymentKey != nil {
		r.PaymentKey = *p.PaymentKey
	}
	return r
}
