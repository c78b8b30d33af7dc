package domain

import "time"

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

// Transition is an input to the entry payment state machine.
type Transition string

const (
	// TransitionConfirm is a verified completed-payment event.
	TransitionConfirm Transition = "confirm"
	// TransitionReject is a verified payment that cannot be honoured (over cap).
	TransitionReject Transition = "reject"
)

// Apply returns the next status and whether it differs from s.
// Completed and failed are terminal: every transition on them is a no-op,
// so replaying an event any number of times yields the same state.
func (s EntryStatus) Apply(t Transition) (EntryStatus, bool) {
	if s != EntryStatusPending {
		return s, false
	}
	switch t {
	case TransitionConfirm:
		return EntryStatusCompleted, true
	case TransitionReject:
		return EntryStatusFailed, true
	default:
		return s, false
	}
}

// Participant identifies who bought the tickets.
type Participant struct {
	Name  string
	Email string
	Phone string
}

// Entry is one purchase attempt for a raffle.
type Entry struct {
	ID          string
	RaffleID    string
	Participant Participant
	TicketCount int
	Status      EntryStatus
	SessionID   *string
	CheckoutURL string
	// IdempotencyKey is optional and unique per raffle.
	IdempotencyKey string
	HoldExpiresAt  time.Time
	CreatedAt      time.Time
	CompletedAt    *time.Time
}
