package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
)

const testSecret = "whsec_test"

func signPayload(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%d.", ts.Unix())
	_, _ = mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const completedPayload = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "amount_total": 1500,
      "currency": "cad",
      "customer_details": {"email": "ada@example.com", "name": "Ada"},
      "metadata": {"type": "raffle_ticket", "entry_id": "e1", "raffle_id": "r1", "ticket_count": "3"}
    }
  }
}`

func TestVerifier_ValidSignature(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testSecret)
	payload := []byte(completedPayload)

	ev, err := v.Verify(payload, signPayload(testSecret, time.Now(), payload))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != payment.EventCheckoutCompleted {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.SessionID != "cs_test_1" || ev.AmountTotal != 1500 || ev.Currency != "cad" {
		t.Fatalf("unexpected session fields: %+v", ev)
	}
	if ev.Category() != payment.CategoryRaffleTicket || ev.Metadata[payment.MetaEntryID] != "e1" {
		t.Fatalf("unexpected metadata: %+v", ev.Metadata)
	}
	if ev.CustomerEmail != "ada@example.com" {
		t.Fatalf("expected customer email, got %q", ev.CustomerEmail)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	payload := []byte(completedPayload)
	tests := []struct {
		name   string
		secret string
		header string
	}{
		{name: "missing header", secret: testSecret, header: ""},
		{name: "wrong secret", secret: testSecret, header: signPayload("whsec_other", time.Now(), payload)},
		{name: "stale timestamp", secret: testSecret, header: signPayload(testSecret, time.Now().Add(-time.Hour), payload)},
		{name: "garbage header", secret: testSecret, header: "nonsense"},
		{name: "no secret configured", secret: "", header: signPayload("", time.Now(), payload)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewVerifier(tt.secret).Verify(payload, tt.header)
			if !errors.Is(err, domain.ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestVerifier_TamperedPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(completedPayload)
	header := signPayload(testSecret, time.Now(), payload)
	tampered := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_other"}}}`)

	if _, err := NewVerifier(testSecret).Verify(tampered, header); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifier_NonCheckoutEvent(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	ev, err := NewVerifier(testSecret).Verify(payload, signPayload(testSecret, time.Now(), payload))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.Type != "charge.refunded" || ev.SessionID != "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
