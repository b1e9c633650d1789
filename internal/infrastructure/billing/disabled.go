package billing

import (
	"context"

	"github.com/stripe/stripe-go/v81"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// DisabledGateway stands in for Stripe when stripe.enabled is false. Checkout
// fails with a gateway error and every webhook is rejected.
type DisabledGateway struct{}

// CreateCheckoutSession always fails
func (DisabledGateway) CreateCheckoutSession(context.Context, apporder.GatewayCheckoutRequest) (*apporder.GatewaySession, error) {
	return nil, shared.ErrGateway.WithMessage("Payments are not configured")
}

// ConstructEvent always fails verification
func (DisabledGateway) ConstructEvent([]byte, string) (stripe.Event, error) {
	return stripe.Event{}, shared.ErrInvalidSignature
}

var _ apporder.PaymentGateway = DisabledGateway{}
