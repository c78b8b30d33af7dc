package app

import (
	"context"
	"testing"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
)

func TestCatalogService_ListOpenRaffles(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	raffles := []domain.Raffle{
		{ID: "later", IsActive: true, StartDate: now.Add(48 * time.Hour), EndDate: now.Add(72 * time.Hour)},
		{ID: "open", IsActive: true, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), MaxTickets: intPtr(10)},
		{ID: "ends-now", IsActive: true, StartDate: now.Add(-2 * time.Hour), EndDate: now},
		{ID: "ended", IsActive: true, StartDate: now.Add(-3 * time.Hour), EndDate: now.Add(-time.Second)},
		{ID: "inactive", IsActive: false, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
	}
	entries := []domain.Entry{
		{ID: "e1", RaffleID: "open", TicketCount: 4, Status: domain.EntryStatusCompleted},
		{ID: "e2", RaffleID: "open", TicketCount: 2, Status: domain.EntryStatusPending, HoldExpiresAt: now.Add(time.Minute)},
	}
	svc := NewCatalogService(newFakeStore(raffles, entries), clock.NewFixed(now))

	got, err := svc.ListOpenRaffles(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []struct {
		id    string
		phase domain.RafflePhase
	}{
		{"ends-now", domain.RafflePhaseOpen},
		{"open", domain.RafflePhaseOpen},
		{"later", domain.RafflePhaseUpcoming},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d raffles, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Raffle.ID != w.id || got[i].Phase != w.phase {
			t.Fatalf("item %d: expected %s/%s, got %s/%s", i, w.id, w.phase, got[i].Raffle.ID, got[i].Phase)
		}
	}

	open := got[1]
	if open.TicketsSold != 4 {
		t.Fatalf("expected 4 sold, got %d", open.TicketsSold)
	}
	if open.TicketsRemaining == nil || *open.TicketsRemaining != 4 {
		t.Fatalf("expected 4 remaining, got %v", open.TicketsRemaining)
	}
	if got[2].TicketsRemaining != nil {
		t.Fatalf("expected uncapped raffle to have no remaining figure")
	}
}
