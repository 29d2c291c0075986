package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToView(t *testing.T) {
	o := sampleOrder(StatusPending)
	o.Items = []OrderItem{NewItem(1, "Americano", 2, decimal.NewFromInt(4500), nil)}

	t.Run("WithToken", func(t *testing.T) {
		v := ToView(o, true)
		require.NotNil(t, v)
		assert.Equal(t, o.AccessToken, v.AccessToken)
		assert.Equal(t, o.OrderNumber, v.OrderNumber)
		require.Len(t, v.Items, 1)
		assert.True(t, decimal.NewFromInt(9000).Equal(v.Items[0].TotalPrice))
		assert.NotNil(t, v.Items[0].Options, "options encode as []")
	})

	t.Run("WithoutToken", func(t *testing.T) {
		assert.Empty(t, ToView(o, false).AccessToken)
	})

	t.Run("Nil", func(t *testing.T) {
		assert.Nil(t, ToView(nil, true))
	})

	t.Run("List", func(t *testing.T) {
		views := ToViews([]*Order{o, sampleOrder(StatusPreparing)})
		assert.Len(t, views, 2)
		for _, v := range views {
			assert.Empty(t, v.AccessToken)
		}
	})
}
