package menu

import "github.com/shopspring/decimal"

type Menu struct {
	ID        int64           `json:"id"`
	StoreID   int64           `json:"storeId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}
