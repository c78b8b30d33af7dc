// Package payment holds the gateway-neutral shapes exchanged with the hosted
// checkout collaborator.
package payment

import "time"

// Metadata keys round-tripped through a checkout session.
const (
	MetaCategory    = "type"
	MetaEntryID     = "entry_id"
	MetaRaffleID    = "raffle_id"
	MetaTicketCount = "ticket_count"
	MetaToken       = "token"
)

// Metadata categories.
const (
	CategoryRaffleTicket = "raffle_ticket"
	CategoryDonation     = "donation"
)

// Event types delivered by the webhook.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// CheckoutRequest describes a single-line hosted checkout.
type CheckoutRequest struct {
	Name          string
	Description   string
	Currency      string
	UnitAmount    int64
	Quantity      int
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	ExpiresAt     time.Time
	Metadata      map[string]string
}

// Amount is the total charged, in minor units.
func (r CheckoutRequest) Amount() int64 {
	return r.UnitAmount * int64(r.Quantity)
}

// CheckoutSession is the collaborator's handle plus where to send the buyer.
// ExpiresAt is when the collaborator stops accepting payment, zero if unknown.
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Event is a verified webhook delivery. Session fields are populated for
// checkout.session.* events only.
type Event struct {
	ID            string
	Type          string
	SessionID     string
	Metadata      map[string]string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// Category returns the metadata category, empty when absent.
func (e Event) Category() string {
	return e.Metadata[MetaCategory]
}
