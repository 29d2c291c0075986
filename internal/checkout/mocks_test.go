package checkout

import (
	"context"
	"encoding/json"
	"sync"

	"qrorder-be/internal/menu"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreatePending(ctx context.Context, amount decimal.Decimal, orderName string, snapshot payment.CartSnapshot) (*payment.Payment, error) {
	args := m.Called(ctx, amount, orderName, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockLedger) FindByMerchantOrderID(ctx context.Context, merchantOrderID string) (*payment.Payment, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockLedger) FindByPaymentKey(ctx context.Context, paymentKey string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockLedger) FindByOrderID(ctx context.Context, orderID int64) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockLedger) ApplyConfirmation(ctx context.Context, p *payment.Payment, result *payment.GatewayResult) error {
	args := m.Called(ctx, p, result)
	return args.Error(0)
}

func (m *MockLedger) ApplyCancellation(ctx context.Context, p *payment.Payment, result *payment.GatewayResult, reason string) error {
	args := m.Called(ctx, p, result, reason)
	return args.Error(0)
}

func (m *MockLedger) SaveWebhook(ctx context.Context, provider, eventID, eventType, merchantOrderID string, payload json.RawMessage) (int64, bool, error) {
	args := m.Called(ctx, provider, eventID, eventType, merchantOrderID, payload)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockLedger) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockLedger) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	args := m.Called(ctx, webhookID, reason)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Confirm(ctx context.Context, paymentKey, merchantOrderID string, amount decimal.Decimal) (*payment.GatewayResult, error) {
	args := m.Called(ctx, paymentKey, merchantOrderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayResult), args.Error(1)
}

func (m *MockGateway) Cancel(ctx context.Context, paymentKey string, cancelAmount decimal.Decimal, reason string) (*payment.GatewayResult, error) {
	args := m.Called(ctx, paymentKey, cancelAmount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayResult), args.Error(1)
}

func (m *MockGateway) Lookup(ctx context.Context, merchantOrderID string) (*payment.GatewayResult, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayResult), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ValidateSeat(ctx context.Context, storeID, seatID int64) error {
	args := m.Called(ctx, storeID, seatID)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetMenu(ctx context.Context, id int64) (*menu.Menu, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*menu.Menu), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateForPayment(ctx context.Context, o *order.Order, paymentID int64) error {
	args := m.Called(ctx, o, paymentID)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByStore(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to order.OrderStatus, paymentStatus order.PaymentStatus) error {
	args := m.Called(ctx, id, from, to, paymentStatus)
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

type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) Materialize(ctx context.Context, p *payment.Payment, result *payment.GatewayResult) (*order.Order, error) {
	args := m.Called(ctx, p, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

// recordingNotifier keeps every event it is handed.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

// --- Fixtures ---

func won(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func americanoCart() payment.CartSnapshot {
	return payment.CartSnapshot{
		StoreID: 7,
		SeatID:  3,
		Items: []payment.CartItem{
			{MenuID: 1, MenuName: "Americano", Quantity: 2, UnitPrice: won(4500)},
		},
	}
}

func readyPayment() *payment.Payment {
	return &payment.Payment{
		ID:              11,
		MerchantOrderID: "ORD-01HPJ3Z7Y8K9M2N3P4Q5R6S7T8",
		OrderName:       "Americano x2",
		Amount:          won(9000),
		Status:          payment.StatusReady,
		Metadata:        americanoCart(),
	}
}

func doneResult(amount int64) *payment.GatewayResult {
	return &payment.GatewayResult{
		PaymentKey:      "pk_1",
		MerchantOrderID: "ORD-01HPJ3Z7Y8K9M2N3P4Q5R6S7T8",
		Status:          payment.StatusDone,
		TotalAmount:     won(amount),
		BalanceAmount:   won(amount),
		Method:          payment.MethodCard,
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }
