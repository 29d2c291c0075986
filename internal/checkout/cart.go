package checkout

import (
	"strings"

	"qrorder-be/internal/payment"

	"github.com/shopspring/decimal"
)

const maxOrderNameLength = 100

type PrepareRequest struct {
	StoreID         int64
	SeatID          int64
	Items           []payment.CartItem
	TotalAmount     decimal.Decimal
	OrderName       string
	CustomerRequest *string
	CustomerName    *string
	CustomerPhone   *string
	SuccessURL      string
	FailURL         string
}

// PaymentHandle is what the client needs to open the gateway's payment UI.
type PaymentHandle struct {
	MerchantOrderID string          `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
	OrderName       string          `json:"orderName"`
	SuccessURL      string          `json:"successUrl"`
	FailURL         string          `json:"failUrl"`
}

// validate checks the cart against the claimed total and returns the
// snapshot to ledger. Prices here are client claims; the workflow re-prices
// them against the catalog before ledgering and again at materialization.
func (r PrepareRequest) validate() (payment.CartSnapshot, error) {
	if r.StoreID <= 0 || r.SeatID <= 0 {
		return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("store and seat are required")
	}
	if len(r.Items) == 0 {
		return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("cart is empty")
	}
	name := strings.TrimSpace(r.OrderName)
	if name == "" {
		return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("order name is required")
	}
	if len([]rune(name)) > maxOrderNameLength {
		return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("order name is longer than %d characters", maxOrderNameLength)
	}

	items := make([]payment.CartItem, 0, len(r.Items))
	for i, it := range r.Items {
		switch {
		case it.MenuID <= 0:
			return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("item %d has no menu id", i)
		case it.Quantity <= 0:
			return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("item %d quantity must be positive", i)
		case !it.UnitPrice.IsPositive():
			return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("item %d price must be positive", i)
		}
		for _, opt := range it.Options {
			if opt.Price.IsNegative() {
				return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("item %d option %q has a negative price", i, opt.Name)
			}
		}
		items = append(items, it)
	}

	snapshot := payment.CartSnapshot{
		StoreID:         r.StoreID,
		SeatID:          r.SeatID,
		Items:           items,
		CustomerRequest: r.CustomerRequest,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
	}

	if !r.TotalAmount.IsPositive() {
		return payment.CartSnapshot{}, ErrInvalidCart.WithMessage("total amount must be positive")
	}
	if sum := snapshot.Total(); !sum.Equal(r.TotalAmount) {
		return payment.CartSnapshot{}, ErrAmountMismatch.WithMessage(
			"cart sums to %s but total amount is %s", sum.String(), r.TotalAmount.String())
	}
	return snapshot, nil
}
