package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	mu      sync.Mutex
	calls   []string
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	m.mu.Lock()
	m.calls = append(m.calls, method+" "+path)
	m.mu.Unlock()

	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// testConfig returns a valid test configuration
func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:        "sk_test_123456789",
		WebhookSecret:    "whsec_test_123456789",
		Currency:         "usd",
		SuccessURL:       "https://shop.example/checkout/success?order={ORDER_ID}",
		CancelURL:        "https://shop.example/cart",
		WebhookTolerance: 5 * time.Minute,
	}
}

func newTestAdapter(t *testing.T, backend *mockBackend) *StripeAdapter {
	t.Helper()
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop(), WithBackend(backend))
	require.NoError(t, err)
	return adapter
}

func checkoutRequest(discount int64) apporder.GatewayCheckoutRequest {
	userID := uuid.New()
	return apporder.GatewayCheckoutRequest{
		OrderID:  uuid.New(),
		UserID:   &userID,
		Email:    "buyer@example.com",
		Currency: "usd",
		Items: []order.Item{
			{ProductID: uuid.New(), Name: "Desk Lamp", UnitPrice: 5000, Quantity: 2},
		},
		PointsUsed:     discount / 5,
		DiscountAmount: discount,
	}
}

// ============================================================================
// Config Tests
// ============================================================================

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *StripeConfig)
		wantErr string
	}{
		{"valid", func(c *StripeConfig) {}, ""},
		{"missing secret key", func(c *StripeConfig) { c.SecretKey = "" }, "secret key is required"},
		{"malformed secret key", func(c *StripeConfig) { c.SecretKey = "pk_test_123" }, "unexpected format"},
		{"missing webhook secret", func(c *StripeConfig) { c.WebhookSecret = "" }, "webhook secret"},
		{"missing currency", func(c *StripeConfig) { c.Currency = "" }, "currency"},
		{"missing urls", func(c *StripeConfig) { c.CancelURL = "" }, "URLs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStripeConfig_SuccessURLFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "https://shop.example/checkout/success?order=abc", cfg.SuccessURLFor("abc"))
	assert.True(t, cfg.IsTestMode())
}

// ============================================================================
// Checkout Tests
// ============================================================================

func TestStripeAdapter_CreateCheckoutSession(t *testing.T) {
	t.Run("without discount", func(t *testing.T) {
		var captured *stripe.CheckoutSessionParams
		backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			require.Equal(t, "/v1/checkout/sessions", path)
			captured = params.(*stripe.CheckoutSessionParams)
			return json.Marshal(map[string]any{
				"id":         "cs_test_1",
				"object":     "checkout.session",
				"url":        "https://checkout.stripe.com/c/pay/cs_test_1",
				"expires_at": 1700000000,
			})
		}}
		adapter := newTestAdapter(t, backend)
		req := checkoutRequest(0)

		sess, err := adapter.CreateCheckoutSession(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, "cs_test_1", sess.ID)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)
		assert.Equal(t, int64(1700000000), sess.ExpiresAt.Unix())

		require.NotNil(t, captured)
		assert.Equal(t, "payment", *captured.Mode)
		assert.Equal(t, "https://shop.example/checkout/success?order="+req.OrderID.String(), *captured.SuccessURL)
		assert.Equal(t, req.OrderID.String(), *captured.ClientReferenceID)
		assert.Equal(t, "buyer@example.com", *captured.CustomerEmail)
		require.Len(t, captured.LineItems, 1)
		assert.Equal(t, int64(5000), *captured.LineItems[0].PriceData.UnitAmount)
		assert.Equal(t, int64(2), *captured.LineItems[0].Quantity)
		assert.Equal(t, req.OrderID.String(), captured.Metadata[apporder.MetadataOrderID])
		assert.Equal(t, req.UserID.String(), captured.Metadata[apporder.MetadataUserID])
		assert.Equal(t, "0", captured.Metadata[apporder.MetadataPointsUsed])
		assert.Empty(t, captured.Discounts)
		assert.Equal(t, []string{http.MethodPost + " /v1/checkout/sessions"}, backend.calls)
	})

	t.Run("creates the coupon on first use", func(t *testing.T) {
		var captured *stripe.CheckoutSessionParams
		backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			switch {
			case method == http.MethodGet && strings.HasPrefix(path, "/v1/coupons/"):
				return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: http.StatusNotFound}
			case method == http.MethodPost && path == "/v1/coupons":
				p := params.(*stripe.CouponParams)
				assert.Equal(t, int64(2000), *p.AmountOff)
				assert.Equal(t, "once", *p.Duration)
				return json.Marshal(map[string]any{"id": *p.ID, "object": "coupon"})
			default:
				captured = params.(*stripe.CheckoutSessionParams)
				return json.Marshal(map[string]any{"id": "cs_test_2", "object": "checkout.session"})
			}
		}}
		adapter := newTestAdapter(t, backend)

		_, err := adapter.CreateCheckoutSession(context.Background(), checkoutRequest(2000))
		require.NoError(t, err)

		require.Len(t, captured.Discounts, 1)
		assert.Equal(t, CouponID("usd", 2000), *captured.Discounts[0].Coupon)
		assert.Equal(t, "2000", captured.Metadata[apporder.MetadataDiscountAmount])
		assert.Len(t, backend.calls, 3)
	})

	t.Run("reuses an existing coupon", func(t *testing.T) {
		backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			if strings.HasPrefix(path, "/v1/coupons/") {
				return json.Marshal(map[string]any{"id": CouponID("usd", 500), "object": "coupon"})
			}
			return json.Marshal(map[string]any{"id": "cs_test_3", "object": "checkout.session"})
		}}
		adapter := newTestAdapter(t, backend)

		_, err := adapter.CreateCheckoutSession(context.Background(), checkoutRequest(500))
		require.NoError(t, err)
		assert.Len(t, backend.calls, 2)
	})

	t.Run("gateway errors are wrapped", func(t *testing.T) {
		backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError, Msg: "boom"}
		}}
		adapter := newTestAdapter(t, backend)

		_, err := adapter.CreateCheckoutSession(context.Background(), checkoutRequest(0))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrGateway)
	})
}

// ============================================================================
// Webhook Tests
// ============================================================================

func signedPayload(t *testing.T, secret string, payload []byte, at time.Time) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}

func TestStripeAdapter_ConstructEvent(t *testing.T) {
	adapter := newTestAdapter(t, &mockBackend{})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","api_version":"2020-08-27","data":{"object":{"id":"cs_1"}}}`)

	t.Run("valid signature", func(t *testing.T) {
		event, err := adapter.ConstructEvent(payload, signedPayload(t, testConfig().WebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, stripe.EventTypeCheckoutSessionCompleted, event.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := adapter.ConstructEvent(payload, signedPayload(t, "whsec_other", payload, time.Now()))
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := adapter.ConstructEvent(payload, signedPayload(t, testConfig().WebhookSecret, payload, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signedPayload(t, testConfig().WebhookSecret, payload, time.Now())
		_, err := adapter.ConstructEvent([]byte(`{"id":"evt_2"}`), header)
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := adapter.ConstructEvent(payload, "")
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})
}
