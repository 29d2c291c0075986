package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// View is the JSON shape of an order. AccessToken is only set for the
// customer who paid for it.
type View struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	AccessToken     string          `json:"accessToken,omitempty"`
	StoreID         int64           `json:"storeId"`
	SeatID          int64           `json:"seatId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	CustomerRequest *string         `json:"customerRequest,omitempty"`
	CustomerName    *string         `json:"customerName,omitempty"`
	CustomerPhone   *string         `json:"customerPhone,omitempty"`
	Items           []ItemView      `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ItemView struct {
	ID         int64           `json:"id"`
	MenuID     int64           `json:"menuId"`
	MenuName   string          `json:"menuName"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Options    []ItemOption    `json:"options"`
}

func MapOrderItemToView(i OrderItem) ItemView {
	options := i.Options
	if options == nil {
		options = []ItemOption{}
	}
	return ItemView{
		ID:         i.ID,
		MenuID:     i.MenuID,
		MenuName:   i.MenuName,
		Quantity:   i.Quantity,
		UnitPrice:  i.UnitPrice,
		TotalPrice: i.TotalPrice,
		Options:    options,
	}
}

func ToView(o *Order, withToken bool) *View {
	if o == nil {
		return nil
	}

	items := make([]ItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, MapOrderItemToView(item))
	}

	v := &View{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		StoreID:         o.StoreID,
		SeatID:          o.SeatID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		CustomerRequest: o.CustomerRequest,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if withToken {
		v.AccessToken = o.AccessToken
	}
	return v
}

func ToViews(orders []*Order) []*View {
	views := make([]*View, 0, len(orders))
	for _, o := range orders {
		views = append(views, ToView(o, false))
	}
	return views
}
