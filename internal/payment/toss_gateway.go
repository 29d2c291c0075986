package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qrorder-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTossBaseURL = "https://api.tosspayments.com"
	sandboxRawMethod   = "간편결제"
)

type TossConfig struct {
	SecretKey string
	BaseURL   string
	// Sandbox enables synthesizing a DONE result when the provider fails with
	// one of SandboxCodes. It must never be set in production.
	Sandbox      bool
	SandboxCodes []string
}

type tossGateway struct {
	secretKey     string
	baseURL       string
	httpClient    *http.Client
	confirmPolicy RetryPolicy
	lookupPolicy  RetryPolicy
	cancelPolicy  RetryPolicy
	sandbox       bool
	sandboxCodes  map[string]bool
	now           func() time.Time
}

func NewTossGateway(cfg TossConfig) Gateway {
	if cfg.SecretKey == "" {
		logger.L().Warn("Toss secret key is empty")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultTossBaseURL
	}

	codes := make(map[string]bool, len(cfg.SandboxCodes))
	for _, c := range cfg.SandboxCodes {
		if c = strings.TrimSpace(c); c != "" {
			codes[c] = true
		}
	}
	if cfg.Sandbox {
		logger.L().Warn("payment gateway sandbox escape hatch enabled", zap.Strings("codes", cfg.SandboxCodes))
	}

	return &tossGateway{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		confirmPolicy: DefaultRetryPolicy(),
		lookupPolicy:  DefaultRetryPolicy(),
		cancelPolicy:  NoRetry(),
		sandbox:       cfg.Sandbox,
		sandboxCodes:  codes,
		now:           time.Now,
	}
}

func (g *tossGateway) Confirm(
	ctx context.Context,
	paymentKey string,
	merchantOrderID string,
	amount decimal.Decimal,
) (*GatewayResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_key", paymentKey),
		zap.String("merchant_order_id", merchantOrderID),
		zap.String("amount", amount.String()),
	)

	body, err := json.Marshal(map[string]any{
		"paymentKey": paymentKey,
		"orderId":    merchantOrderID,
		"amount":     json.Number(amount.String()),
	})
	if err != nil {
		return nil, err
	}

	var result *GatewayResult
	err = g.confirmPolicy.Do(ctx, func(attempt int) error {
		r, err := g.send(ctx, http.MethodPost, "/v1/payments/confirm", body, "confirm-"+paymentKey)
		if err != nil {
			log.Warn("confirm attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if r, ok := g.sandboxResult(err, paymentKey, merchantOrderID, amount); ok {
			log.Warn("gateway failure replaced by sandbox result", zap.Error(err))
			return r, nil
		}
		log.Error("payment confirmation failed", zap.Error(err))
		return nil, rejectionOf(err)
	}

	log.Info("payment confirmed by gateway",
		zap.String("status", string(result.Status)),
		zap.String("method", result.Method),
	)
	return result, nil
}

func (g *tossGateway) Cancel(
	ctx context.Context,
	paymentKey string,
	cancelAmount decimal.Decimal,
	reason string,
) (*GatewayResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_key", paymentKey),
		zap.String("cancel_amount", cancelAmount.String()),
	)

	body, err := json.Marshal(map[string]any{
		"cancelReason": reason,
		"cancelAmount": json.Number(cancelAmount.String()),
	})
	if err != nil {
		return nil, err
	}

	var result *GatewayResult
	path := "/v1/payments/" + url.PathEscape(paymentKey) + "/cancel"
	err = g.cancelPolicy.Do(ctx, func(int) error {
		r, err := g.send(ctx, http.MethodPost, path, body, "")
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		log.Error("payment cancellation failed", zap.Error(err))
		return nil, rejectionOf(err)
	}

	log.Info("payment cancelled by gateway", zap.String("status", string(result.Status)))
	return result, nil
}

func (g *tossGateway) Lookup(ctx context.Context, merchantOrderID string) (*GatewayResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("merchant_order_id", merchantOrderID))

	var result *GatewayResult
	path := "/v1/payments/orders/" + url.PathEscape(merchantOrderID)
	err := g.lookupPolicy.Do(ctx, func(attempt int) error {
		r, err := g.send(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			log.Warn("lookup attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var ge *GatewayError
		if errors.As(err, &ge) && ge.HTTPStatus == http.StatusNotFound {
			return nil, ErrPaymentNotFound.Wrap(ge)
		}
		return nil, rejectionOf(err)
	}
	return result, nil
}

// send performs one exchange. Failures are *GatewayError, except malformed
// success bodies and cancelled contexts.
func (g *tossGateway) send(ctx context.Context, method, path string, body []byte, idempotencyKey string) (*GatewayResult, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(g.secretKey+":")))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrGatewayUnavailable.Wrap(err)
		}
		return nil, &GatewayError{Code: CodeNetworkError, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{
			HTTPStatus: resp.StatusCode,
			Code:       CodeNetworkError,
			Transient:  true,
			Err:        fmt.Errorf("read gateway response: %w", err),
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return ParseResult(respBody)
	}

	code, message := parseErrorBody(respBody)
	return nil, &GatewayError{
		HTTPStatus: resp.StatusCode,
		Code:       code,
		Message:    message,
		Transient: resp.StatusCode >= 500 ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusRequestTimeout,
	}
}

func (g *tossGateway) sandboxResult(err error, paymentKey, merchantOrderID string, amount decimal.Decimal) (*GatewayResult, bool) {
	if !g.sandbox {
		return nil, false
	}
	var ge *GatewayError
	if !errors.As(err, &ge) || !g.sandboxCodes[ge.Code] {
		return nil, false
	}
	now := g.now()
	return &GatewayResult{
		PaymentKey:      paymentKey,
		MerchantOrderID: merchantOrderID,
		Status:          StatusDone,
		TotalAmount:     amount,
		BalanceAmount:   amount,
		Method:          MethodEasyPay,
		RawMethod:       sandboxRawMethod,
		RequestedAt:     &now,
		ApprovedAt:      &now,
		Synthesized:     true,
	}, true
}

// rejectionOf turns a permanent provider failure into ErrGatewayRejected.
// Errors that are already classified pass through.
func rejectionOf(err error) error {
	var ge *GatewayError
	if errors.As(err, &ge) && !ge.Transient {
		msg := ge.Message
		if msg == "" {
			msg = ErrGatewayRejected.Message
		}
		return ErrGatewayRejected.WithMessage("%s", msg).Wrap(ge)
	}
	return err
}

// ProviderCode returns the provider error code carried by err, if any.
func ProviderCode(err error) string {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
