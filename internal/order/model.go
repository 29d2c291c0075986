package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPreparing OrderStatus = "PREPARING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusPickedUp  OrderStatus = "PICKED_UP"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Order struct {
	ID              int64
	OrderNumber     string
	AccessToken     string
	StoreID         int64
	SeatID          int64
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	CustomerRequest *string
	CustomerName    *string
	CustomerPhone   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []OrderItem
}

// OrderItem prices are copies taken at materialization time and never follow later menu edits.
type OrderItem struct {
	ID         int64
	OrderID    int64
	MenuID     int64
	MenuName   string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Options    []ItemOption
}

type ItemOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// NewItem builds an item and computes its total from unit price and quantity.
func NewItem(menuID int64, menuName string, quantity int, unitPrice decimal.Decimal, options []ItemOption) OrderItem {
	return OrderItem{
		MenuID:     menuID,
		MenuName:   menuName,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Options:    options,
	}
}

// SumItems returns the sum of the items' total prices.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}
