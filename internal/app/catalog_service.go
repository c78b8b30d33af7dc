package app

import (
	"context"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
)

type CatalogRepository interface {
	// ListOpenRaffles returns active raffles with end_date >= now ordered by
	// start_date ascending, with their confirmed and held ticket totals.
	ListOpenRaffles(ctx context.Context, now time.Time) ([]domain.RaffleAvailability, error)
}

type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

// OpenRaffle is a catalog row: the raffle, whether tickets can be bought yet,
// and how many are left when capped.
type OpenRaffle struct {
	Raffle           domain.Raffle
	Phase            domain.RafflePhase
	TicketsSold      int
	TicketsRemaining *int
}

func (s *CatalogService) ListOpenRaffles(ctx context.Context) ([]OpenRaffle, error) {
	now := s.clock.Now()
	rows, err := s.repo.ListOpenRaffles(ctx, now)
	if err != nil {
		return nil, err
	}

	out := make([]OpenRaffle, 0, len(rows))
	for _, row := range rows {
		phase := row.Raffle.PhaseAt(now)
		if phase == domain.RafflePhaseClosed {
			continue
		}
		out = append(out, OpenRaffle{
			Raffle:           row.Raffle,
			Phase:            phase,
			TicketsSold:      row.TicketsSold,
			TicketsRemaining: row.Raffle.RemainingTickets(row.TicketsSold, row.TicketsReserved),
		})
	}
	return out, nil
}
