package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Verifier checks the Stripe-Signature header against the endpoint secret
// and decodes the event.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, tolerance: webhook.DefaultTolerance}
}

// Verify returns domain.ErrInvalidSignature for a missing, stale or wrong
// signature; the payload is not inspected in that case.
func (v *Verifier) Verify(payload []byte, signature string) (payment.Event, error) {
	if v.secret == "" || signature == "" {
		return payment.Event{}, domain.ErrInvalidSignature
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return payment.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := payment.Event{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || ev.Data == nil {
		return out, nil
	}

	var cs stripego.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return payment.Event{}, fmt.Errorf("%w: decode checkout session: %v", domain.ErrInvalidRequest, err)
	}
	out.SessionID = cs.ID
	out.Metadata = cs.Metadata
	out.AmountTotal = cs.AmountTotal
	out.Currency = string(cs.Currency)
	if cs.CustomerDetails != nil {
		out.CustomerEmail = cs.CustomerDetails.Email
		out.CustomerName = cs.CustomerDetails.Name
	}
	return out, nil
}
