package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the contract the checkout workflow needs from a payment provider.
type Gateway interface {
	// Confirm approves a payment the customer authorised in the provider's UI.
	// Transient failures are retried inside the client.
	Confirm(ctx context.Context, paymentKey, merchantOrderID string, amount decimal.Decimal) (*GatewayResult, error)
	// Cancel is attempted exactly once.
	Cancel(ctx context.Context, paymentKey string, cancelAmount decimal.Decimal, reason string) (*GatewayResult, error)
	Lookup(ctx context.Context, merchantOrderID string) (*GatewayResult, error)
}
