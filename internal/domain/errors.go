package domain

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidTicketCount   = errors.New("ticket count must be at least 1")
	ErrParticipantRequired  = errors.New("participant name and email are required")
	ErrInvalidID            = errors.New("invalid id")
	ErrRaffleNotFound       = errors.New("raffle not found")
	ErrRaffleNotOpen        = errors.New("raffle is not open for entries")
	ErrSoldOut              = errors.New("not enough tickets available")
	ErrEntryNotFound        = errors.New("entry not found")
	ErrInvalidSignature     = errors.New("invalid payment event signature")
	ErrPaymentCollaborator  = errors.New("payment collaborator error")
	ErrNoEligibleEntries    = errors.New("no eligible entries")
	ErrInvalidWinner        = errors.New("winner must be a completed entry of this raffle")
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidTicketPrice   = errors.New("ticket price must be positive")
	ErrInvalidMaxTickets    = errors.New("max tickets must be positive")
	ErrInvalidSaleWindow    = errors.New("end date must be after start date")
	ErrInvalidDonation      = errors.New("donation amount below minimum")
	ErrSessionAlreadyLinked = errors.New("payment session already linked to another entry")
	ErrIdempotencyConflict  = errors.New("idempotency key already used for a different checkout")
)

// IsInvalidRequest reports whether err belongs to the malformed-input family.
func IsInvalidRequest(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidTicketCount),
		errors.Is(err, ErrParticipantRequired),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidTicketPrice),
		errors.Is(err, ErrInvalidMaxTickets),
		errors.Is(err, ErrInvalidSaleWindow),
		errors.Is(err, ErrInvalidDonation):
		return true
	}
	return false
}
