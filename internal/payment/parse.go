package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ParseResult reads a gateway payment object field by field. Optional fields
// fall back to named defaults. The total amount is required and never
// defaults to zero.
func ParseResult(body []byte) (*GatewayResult, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, ErrMalformedGatewayResponse.Wrap(err)
	}
	if m == nil {
		return nil, ErrMalformedGatewayResponse.WithMessage("empty gateway response")
	}

	r := &GatewayResult{
		PaymentKey:      stringField(m, "paymentKey", ""),
		MerchantOrderID: stringField(m, "orderId", ""),
		OrderName:       stringField(m, "orderName", ""),
		Status:          Status(stringField(m, "status", "")),
		RawMethod:       stringField(m, "method", ""),
	}
	switch {
	case r.PaymentKey == "":
		return nil, ErrMalformedGatewayResponse.WithMessage("gateway response missing paymentKey")
	case r.MerchantOrderID == "":
		return nil, ErrMalformedGatewayResponse.WithMessage("gateway response missing orderId")
	case !r.Status.Valid():
		return nil, ErrMalformedGatewayResponse.WithMessage("gateway response has unknown status %q", r.Status)
	}

	total, ok, err := amountField(m, "totalAmount")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMalformedGatewayResponse.WithMessage("gateway response missing totalAmount")
	}
	r.TotalAmount = total

	if r.BalanceAmount, err = optionalAmount(m, "balanceAmount", total); err != nil {
		return nil, err
	}
	if r.SuppliedAmount, err = optionalAmount(m, "suppliedAmount", decimal.Zero); err != nil {
		return nil, err
	}
	if r.VAT, err = optionalAmount(m, "vat", decimal.Zero); err != nil {
		return nil, err
	}

	r.RequestedAt = timeField(m, "requestedAt")
	r.ApprovedAt = timeField(m, "approvedAt")

	if card := objectField(m, "card"); card != nil {
		r.Card = &CardDetail{
			IssuerCode:        stringField(card, "issuerCode", ""),
			Number:            stringField(card, "number", ""),
			InstallmentMonths: intField(card, "installmentPlanMonths", 0),
			ApproveNo:         stringField(card, "approveNo", ""),
		}
	}

	easyPayProvider := ""
	if ep := objectField(m, "easyPay"); ep != nil {
		easyPayProvider = stringField(ep, "provider", "")
		amount, err := optionalAmount(ep, "amount", decimal.Zero)
		if err != nil {
			return nil, err
		}
		r.EasyPay = &EasyPayDetail{Provider: easyPayProvider, Amount: amount}
	}

	if va := objectField(m, "virtualAccount"); va != nil {
		r.VirtualAccount = &VirtualAccountDetail{
			AccountNumber: stringField(va, "accountNumber", ""),
			BankCode:      stringField(va, "bankCode", ""),
			DueDate:       timeField(va, "dueDate"),
		}
	}

	r.Method = ClassifyMethod(r.RawMethod, easyPayProvider)
	return r, nil
}

// parseErrorBody extracts the provider's {code, message} error envelope.
func parseErrorBody(body []byte) (code, message string) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return "", string(body)
	}
	return stringField(m, "code", ""), stringField(m, "message", "")
}

func stringField(m map[string]any, key, def string) string {
	v, ok := m[key].(string)
	if !ok {
		return def
	}
	return v
}

func objectField(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func intField(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func timeField(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// amountField reports ok=false when key is absent or null. A present value
// that is not a non-negative number is an error.
func amountField(m map[string]any, key string) (decimal.Decimal, bool, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return decimal.Zero, false, nil
	}

	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return decimal.Zero, false, ErrMalformedGatewayResponse.WithMessage("gateway field %s is not a number", key)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, ErrMalformedGatewayResponse.
			WithMessage("gateway field %s is not a number", key).
			Wrap(err)
	}
	if d.IsNegative() {
		return decimal.Zero, false, ErrMalformedGatewayResponse.WithMessage("gateway field %s is negative", key)
	}
	return d, true, nil
}

func optionalAmount(m map[string]any, key string, def decimal.Decimal) (decimal.Decimal, error) {
	d, ok, err := amountField(m, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return def, nil
	}
	return d, nil
}

func (r *GatewayResult) String() string {
	return fmt.Sprintf("%s/%s %s %s", r.MerchantOrderID, r.PaymentKey, r.Status, r.TotalAmount)
}
