package domain

import (
	"strings"
	"time"
)

// Raffle is a fundraising campaign selling tickets at a fixed unit price.
// Prices are integer minor currency units.
type Raffle struct {
	ID          string
	Title       string
	Description string
	TicketPrice int64
	MaxTickets  *int
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	WinnerID    *string
	EventID     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RafflePhase string

const (
	RafflePhaseUpcoming RafflePhase = "upcoming"
	RafflePhaseOpen     RafflePhase = "open"
	RafflePhaseClosed   RafflePhase = "closed"
)

// PhaseAt classifies the raffle relative to now. Inactive raffles are closed.
func (r Raffle) PhaseAt(now time.Time) RafflePhase {
	switch {
	case !r.IsActive || now.After(r.EndDate):
		return RafflePhaseClosed
	case now.Before(r.StartDate):
		return RafflePhaseUpcoming
	default:
		return RafflePhaseOpen
	}
}

// OpenAt reports whether tickets can be bought at now (start <= now <= end).
func (r Raffle) OpenAt(now time.Time) bool {
	return r.PhaseAt(now) == RafflePhaseOpen
}

// RemainingTickets returns nil for uncapped raffles.
func (r Raffle) RemainingTickets(sold, reserved int) *int {
	if r.MaxTickets == nil {
		return nil
	}
	left := *r.MaxTickets - sold - reserved
	if left < 0 {
		left = 0
	}
	return &left
}

// TotalPrice multiplies in integer minor units.
func (r Raffle) TotalPrice(ticketCount int) int64 {
	return r.TicketPrice * int64(ticketCount)
}

// RaffleStats is the admin list view of a raffle.
type RaffleStats struct {
	Raffle
	EntryCount     int
	CompletedCount int
	TicketsSold    int
}

// RaffleAvailability pairs a raffle with its confirmed ticket total and the
// tickets held by unexpired pending entries.
type RaffleAvailability struct {
	Raffle          Raffle
	TicketsSold     int
	TicketsReserved int
}

// Validate checks the invariants every stored raffle must hold.
func (r Raffle) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.TicketPrice <= 0 {
		return ErrInvalidTicketPrice
	}
	if r.MaxTickets != nil && *r.MaxTickets <= 0 {
		return ErrInvalidMaxTickets
	}
	if !r.EndDate.After(r.StartDate) {
		return ErrInvalidSaleWindow
	}
	return nil
}
