package domain

import "time"

// PaymentEvent is the dedupe record of a verified gateway event.
type PaymentEvent struct {
	ID         string
	Type       string
	SessionID  string
	ReceivedAt time.Time
}
