package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
)

func TestHandlePaymentWebhook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		result         app.ReconcileResult
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "confirmed",
			result:         app.ReconcileResult{Outcome: app.OutcomeConfirmed},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"outcome":"confirmed"`,
		},
		{
			name:           "duplicate still acknowledged",
			result:         app.ReconcileResult{Outcome: app.OutcomeDuplicate},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"received":true`,
		},
		{
			name:           "oversold acknowledged",
			result:         app.ReconcileResult{Outcome: app.OutcomeOversold},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"outcome":"oversold"`,
		},
		{
			name:           "bad signature",
			serviceErr:     fmt.Errorf("verify: %w", domain.ErrInvalidSignature),
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidSignature,
		},
		{
			name:           "malformed event",
			serviceErr:     domain.ErrInvalidRequest,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequest,
		},
		{
			name:           "storage failure asks for redelivery",
			serviceErr:     errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubEventHandler{result: tt.result, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewBufferString(`{"id":"evt_1"}`))
			rec := httptest.NewRecorder()

			HandlePaymentWebhook(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandlePaymentWebhook_PassesRawBodyAndSignature(t *testing.T) {
	t.Parallel()

	raw := "{\"id\":\"evt_1\",  \"type\":\"checkout.session.completed\"}\n"
	svc := &stubEventHandler{result: app.ReconcileResult{Outcome: app.OutcomeIgnored}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(raw))
	req.Header.Set(SignatureHeader, "t=1,v1=abc")
	rec := httptest.NewRecorder()

	HandlePaymentWebhook(svc).ServeHTTP(rec, req)

	if string(svc.payload) != raw {
		t.Fatalf("payload altered: %q", svc.payload)
	}
	if svc.signature != "t=1,v1=abc" {
		t.Fatalf("expected signature header to pass through, got %q", svc.signature)
	}
}
