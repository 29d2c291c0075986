package notification

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeOrderReceived    Type = "ORDER_RECEIVED"
	TypeOrderCompleted   Type = "ORDER_COMPLETED"
	TypeOrderCancelled   Type = "ORDER_CANCELLED"
	TypePaymentCompleted Type = "PAYMENT_COMPLETED"
)

type Audience string

const (
	AudienceAdmin    Audience = "ADMIN"
	AudienceCustomer Audience = "CUSTOMER"
)

type Notification struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Audience  Audience  `json:"audience"`
	StoreID   int64     `json:"storeId"`
	OrderID   int64     `json:"orderId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is what producers hand to a Notifier.
type Event struct {
	Type        Type
	Audience    Audience
	StoreID     int64
	OrderID     int64
	OrderNumber string
	Amount      decimal.Decimal
}

// Channel is the realtime address of a notification: the store for staff,
// the order for the customer who placed it.
func (n *Notification) Channel() string {
	if n.Audience == AudienceAdmin {
		return StoreChannel(n.StoreID)
	}
	return OrderChannel(n.OrderID)
}

func StoreChannel(storeID int64) string {
	return fmt.Sprintf("store:%d", storeID)
}

func OrderChannel(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

func (e Event) toNotification() *Notification {
	n := &Notification{
		Type:     e.Type,
		Audience: e.Audience,
		StoreID:  e.StoreID,
		OrderID:  e.OrderID,
	}
	switch e.Type {
	case TypeOrderReceived:
		n.Title = "New order"
		n.Message = fmt.Sprintf("Order %s received (%s KRW)", e.OrderNumber, e.Amount.StringFixed(0))
	case TypePaymentCompleted:
		n.Title = "Payment completed"
		n.Message = fmt.Sprintf("Payment of %s KRW for order %s is complete", e.Amount.StringFixed(0), e.OrderNumber)
	case TypeOrderCompleted:
		n.Title = "Order ready"
		n.Message = fmt.Sprintf("Order %s is ready for pickup", e.OrderNumber)
	case TypeOrderCancelled:
		n.Title = "Order cancelled"
		n.Message = fmt.Sprintf("Order %s has been cancelled", e.OrderNumber)
	default:
		n.Title = string(e.Type)
		n.Message = e.OrderNumber
	}
	return n
}
