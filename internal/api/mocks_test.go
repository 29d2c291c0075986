package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"qrorder-be/internal/checkout"
	"qrorder-be/internal/logger"
	"qrorder-be/internal/middleware"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) Prepare(ctx context.Context, req checkout.PrepareRequest) (*checkout.PaymentHandle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentHandle), args.Error(1)
}

func (m *MockWorkflow) Confirm(ctx context.Context, paymentKey, merchantOrderID string, amount decimal.Decimal) (*order.Order, error) {
	args := m.Called(ctx, paymentKey, merchantOrderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockWorkflow) Cancel(ctx context.Context, paymentKey, reason string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentKey, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockWorkflow) CancelOrder(ctx context.Context, storeID, orderID int64, reason string) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockWorkflow) GetPaymentByKey(ctx context.Context, paymentKey string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockWorkflow) GetPaymentByOrder(ctx context.Context, merchantOrderID string) (*payment.Payment, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockWorkflow) HandleWebhook(ctx context.Context, event checkout.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetForCustomer(ctx context.Context, orderNumber, token string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListStoreOrders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) ChangeStatus(ctx context.Context, storeID, orderID int64, requested order.OrderStatus) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderID, requested)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CancelForRefund(ctx context.Context, orderID int64) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByStore(ctx context.Context, storeID int64, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	args := m.Called(ctx, storeID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, storeID int64) error {
	args := m.Called(ctx, id, storeID)
	return args.Error(0)
}

type testEnv struct {
	workflow      *MockWorkflow
	orders        *MockOrderService
	notifications *MockNotificationRepository
	hub           *notification.Hub
	router        http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		workflow:      new(MockWorkflow),
		orders:        new(MockOrderService),
		notifications: new(MockNotificationRepository),
		hub:           notification.NewHub(""),
	}
	auth := middleware.NewAuthenticator(testSecret)
	h := NewHandler(env.workflow, env.orders, env.notifications, env.hub)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(auth.Middleware)
	r.Mount("/", h.Routes())
	env.router = r
	return env
}

func staffToken(t *testing.T, storeID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.StaffClaims{
		UserID:  7,
		StoreID: storeID,
		Role:    middleware.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func sampleOrder() *order.Order {
	return &order.Order{
		ID:            42,
		OrderNumber:   "20260301-001-ABCDEFGH",
		AccessToken:   "secret-access-token",
		StoreID:       1,
		SeatID:        4,
		TotalAmount:   decimal.NewFromInt(9000),
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentStatusPaid,
		Items: []order.OrderItem{
			order.NewItem(10, "Americano", 2, decimal.NewFromInt(4500), nil),
		},
	}
}

func samplePayment(status payment.Status) *payment.Payment {
	key := "tgen_20260301ABCD"
	return &payment.Payment{
		ID:              11,
		MerchantOrderID: "ORD-01HPJ3Z7Y8K9M2N3P4Q5R6S7T8",
		PaymentKey:      &key,
		OrderName:       "Americano x2",
		Amount:          decimal.NewFromInt(9000),
		Status:          status,
		Metadata:        payment.CartSnapshot{StoreID: 1, SeatID: 4},
	}
}
