package payment

import (
	"context"
	"fmt"

	"github.com/cimillas/charity-raffle/internal/domain"
)

// Unavailable stands in for the gateway when no credentials are configured.
type Unavailable struct{}

func (Unavailable) CreateCheckoutSession(context.Context, CheckoutRequest) (CheckoutSession, error) {
	return CheckoutSession{}, fmt.Errorf("%w: payments are not configured", domain.ErrPaymentCollaborator)
}
