package domain

import "time"

// MinDonationAmount is the smallest accepted donation in minor units.
const MinDonationAmount int64 = 100

const DonationStatusCompleted = "completed"

// Donation is a completed one-off gift recorded from a payment event.
type Donation struct {
	ID         string
	SessionID  string
	Amount     int64
	Currency   string
	DonorEmail string
	DonorName  string
	Status     string
	CreatedAt  time.Time
}
