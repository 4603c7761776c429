package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/ec-store/internal/domain/order"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	kind    string
	to      string
	summary email.OrderSummary
}

type mockMailer struct {
	sent []sent
	err  error
}

func (m *mockMailer) SendOrderConfirmation(to string, s email.OrderSummary) error {
	m.sent = append(m.sent, sent{"confirmation", to, s})
	return m.err
}

func (m *mockMailer) SendOrderCancellation(to string, s email.OrderSummary) error {
	m.sent = append(m.sent, sent{"cancellation", to, s})
	return m.err
}

type mockUsers struct {
	users map[string]*user.User
	err   error
}

func (m *mockUsers) Get(_ context.Context, id string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func newTestHandler() (*Handler, *mockMailer, *mockUsers) {
	mailer := &mockMailer{}
	users := &mockUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Email: "alice@example.com", Name: "Alice"},
	}}
	return NewHandler(mailer, users), mailer, users
}

func encodeEvent(t *testing.T, eventType, userID string) []byte {
	t.Helper()
	o := &order.Order{
		ID:     "o1",
		UserID: userID,
		Items: []order.LineItem{
			{ProductID: "p1", Name: "Lamp", Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
		},
		ItemsPrice:    decimal.NewFromInt(1000),
		TaxPrice:      decimal.NewFromInt(180),
		ShippingPrice: decimal.NewFromInt(49),
		TotalPrice:    decimal.NewFromInt(1229),
		Status:        order.StatusPending,
	}
	data, err := json.Marshal(order.Event{ID: "e1", OrderID: o.ID, UserID: userID, EventType: eventType, Data: o})
	require.NoError(t, err)
	return data
}

// ============================================
// HandleEvent Tests
// ============================================

func TestHandleEvent_OrderPlacedSendsConfirmation(t *testing.T) {
	h, mailer, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), []byte("o1"), encodeEvent(t, order.EventOrderPlaced, "u1"))

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	got := mailer.sent[0]
	assert.Equal(t, "confirmation", got.kind)
	assert.Equal(t, "alice@example.com", got.to)
	assert.Equal(t, "o1", got.summary.OrderID)
	assert.Equal(t, "Alice", got.summary.CustomerName)
	require.Len(t, got.summary.Items, 1)
	assert.Equal(t, "Lamp", got.summary.Items[0].Name)
	assert.True(t, decimal.NewFromInt(500).Equal(got.summary.Items[0].Price))
	assert.True(t, decimal.NewFromInt(180).Equal(got.summary.TaxPrice))
	assert.True(t, decimal.NewFromInt(1229).Equal(got.summary.TotalPrice))
}

func TestHandleEvent_OrderCancelledSendsCancellation(t *testing.T) {
	h, mailer, _ := newTestHandler()

	require.NoError(t, h.HandleEvent(context.Background(), nil, encodeEvent(t, order.EventOrderCancelled, "u1")))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "cancellation", mailer.sent[0].kind)
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	h, mailer, _ := newTestHandler()

	for _, eventType := range []string{order.EventOrderPaid, order.EventOrderShipped, order.EventOrderDelivered} {
		require.NoError(t, h.HandleEvent(context.Background(), nil, encodeEvent(t, eventType, "u1")))
	}
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_SkipsUndeliverable(t *testing.T) {
	h, mailer, _ := newTestHandler()
	ctx := context.Background()

	assert.NoError(t, h.HandleEvent(ctx, nil, []byte("{not json")))
	assert.NoError(t, h.HandleEvent(ctx, nil, encodeEvent(t, order.EventOrderPlaced, "ghost")))
	assert.NoError(t, h.HandleEvent(ctx, nil, []byte(`{"event_type":"OrderPlaced","order_id":"o1"}`)))
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_ReturnsDeliveryErrors(t *testing.T) {
	h, mailer, users := newTestHandler()
	ctx := context.Background()

	mailer.err = errors.New("smtp down")
	assert.ErrorContains(t, h.HandleEvent(ctx, nil, encodeEvent(t, order.EventOrderPlaced, "u1")), "smtp down")

	mailer.err = nil
	users.err = errors.New("mongo timeout")
	assert.ErrorContains(t, h.HandleEvent(ctx, nil, encodeEvent(t, order.EventOrderPlaced, "u1")), "mongo timeout")
}
