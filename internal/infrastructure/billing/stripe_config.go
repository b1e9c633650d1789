package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// OrderIDPlaceholder is replaced with the order id in the success URL
const OrderIDPlaceholder = "{ORDER_ID}"

// StripeConfig holds the settings the Stripe gateway needs
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// WebhookSecret is the signing secret of the webhook endpoint (whsec_xxx)
	WebhookSecret string

	// Currency is the ISO code charged for every checkout (e.g. "usd")
	Currency string

	// SuccessURL is where the buyer lands after paying; it may contain {ORDER_ID}
	SuccessURL string

	// CancelURL is where the buyer lands after abandoning checkout
	CancelURL string

	// WebhookTolerance bounds the age of a signed webhook timestamp
	WebhookTolerance time.Duration
}

// NewStripeConfig builds the gateway settings from the application config
func NewStripeConfig(cfg config.StripeConfig) *StripeConfig {
	return &StripeConfig{
		SecretKey:        cfg.SecretKey,
		WebhookSecret:    cfg.WebhookSecret,
		Currency:         strings.ToLower(cfg.Currency),
		SuccessURL:       cfg.SuccessURL,
		CancelURL:        cfg.CancelURL,
		WebhookTolerance: cfg.WebhookTolerance,
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("stripe: secret key has an unexpected format")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe: webhook secret is required")
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe: currency is required")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return fmt.Errorf("stripe: success and cancel URLs are required")
	}
	return nil
}

// IsTestMode reports whether the key is a test-mode key
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.SecretKey, "sk_test") || strings.HasPrefix(c.SecretKey, "rk_test")
}

// SuccessURLFor substitutes the order id into the success URL
func (c *StripeConfig) SuccessURLFor(orderID string) string {
	return strings.ReplaceAll(c.SuccessURL, OrderIDPlaceholder, orderID)
}
