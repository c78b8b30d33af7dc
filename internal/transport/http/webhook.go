package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
)

// SignatureHeader carries the gateway's payload signature.
const SignatureHeader = "Stripe-Signature"

// PaymentEventHandler is the minimal interface needed by the webhook endpoint.
type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, payload []byte, signature string) (app.ReconcileResult, error)
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

// HandlePaymentWebhook serves POST /webhooks/payments. The raw body is passed
// through untouched because the signature covers its exact bytes. Anything
// but a 2xx makes the gateway redeliver.
func HandlePaymentWebhook(svc PaymentEventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.HandlePaymentEvent(r.Context(), payload, r.Header.Get(SignatureHeader))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSignature):
				writeError(w, http.StatusBadRequest, codeInvalidSignature, domain.ErrInvalidSignature.Error())
			case errors.Is(err, domain.ErrInvalidRequest):
				writeError(w, http.StatusBadRequest, codeInvalidRequest, domain.ErrInvalidRequest.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: string(res.Outcome)})
	}
}
