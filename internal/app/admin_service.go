package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/gocarina/gocsv"
)

type AdminRepository interface {
	CreateRaffle(ctx context.Context, raffle domain.Raffle) error
	UpdateRaffle(ctx context.Context, raffle domain.Raffle) error
	DeleteRaffle(ctx context.Context, raffleID string) error
	GetRaffle(ctx context.Context, raffleID string) (domain.Raffle, error)
	ListRaffleStats(ctx context.Context) ([]domain.RaffleStats, error)
	ListCompletedEntries(ctx context.Context, raffleID string) ([]domain.Entry, error)
}

type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

// DefaultTicketPrice applies when a raffle is created without a price.
const DefaultTicketPrice int64 = 500

type CreateRaffleInput struct {
	Title       string
	Description string
	TicketPrice int64
	MaxTickets  *int
	StartDate   time.Time
	EndDate     time.Time
	IsActive    *bool
	EventID     *string
}

func (s *AdminService) CreateRaffle(ctx context.Context, in CreateRaffleInput) (domain.Raffle, error) {
	now := s.clock.Now()
	raffle := domain.Raffle{
		ID:          newUUID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		TicketPrice: in.TicketPrice,
		MaxTickets:  in.MaxTickets,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		IsActive:    true,
		EventID:     normalizeEventID(in.EventID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if raffle.TicketPrice == 0 {
		raffle.TicketPrice = DefaultTicketPrice
	}
	if in.IsActive != nil {
		raffle.IsActive = *in.IsActive
	}
	if err := raffle.Validate(); err != nil {
		return domain.Raffle{}, err
	}

	if err := s.repo.CreateRaffle(ctx, raffle); err != nil {
		return domain.Raffle{}, err
	}
	return raffle, nil
}

// UpdateRaffleInput carries a partial update: nil fields are left unchanged.
// ClearMaxTickets removes the cap; an empty EventID unlinks the event.
type UpdateRaffleInput struct {
	ID              string
	Title           *string
	Description     *string
	TicketPrice     *int64
	MaxTickets      *int
	ClearMaxTickets bool
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        *bool
	EventID         *string
}

func (s *AdminService) UpdateRaffle(ctx context.Context, in UpdateRaffleInput) (domain.Raffle, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.Raffle{}, domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, in.ID)
	if err != nil {
		return domain.Raffle{}, err
	}

	if in.Title != nil {
		raffle.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		raffle.Description = strings.TrimSpace(*in.Description)
	}
	if in.TicketPrice != nil {
		raffle.TicketPrice = *in.TicketPrice
	}
	switch {
	case in.ClearMaxTickets:
		raffle.MaxTickets = nil
	case in.MaxTickets != nil:
		raffle.MaxTickets = in.MaxTickets
	}
	if in.StartDate != nil {
		raffle.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		raffle.EndDate = in.EndDate.UTC()
	}
	if in.IsActive != nil {
		raffle.IsActive = *in.IsActive
	}
	if in.EventID != nil {
		raffle.EventID = normalizeEventID(in.EventID)
	}
	if err := raffle.Validate(); err != nil {
		return domain.Raffle{}, err
	}

	raffle.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateRaffle(ctx, raffle); err != nil {
		return domain.Raffle{}, err
	}
	return raffle, nil
}

func (s *AdminService) DeleteRaffle(ctx context.Context, raffleID string) error {
	if strings.TrimSpace(raffleID) == "" {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteRaffle(ctx, raffleID)
}

func (s *AdminService) ListRaffles(ctx context.Context) ([]domain.RaffleStats, error) {
	return s.repo.ListRaffleStats(ctx)
}

// RaffleDetail is a raffle with its paid entries, newest first.
type RaffleDetail struct {
	Raffle      domain.Raffle
	Entries     []domain.Entry
	TicketsSold int
}

func (s *AdminService) GetRaffle(ctx context.Context, raffleID string) (RaffleDetail, error) {
	if strings.TrimSpace(raffleID) == "" {
		return RaffleDetail{}, domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return RaffleDetail{}, err
	}
	entries, err := s.repo.ListCompletedEntries(ctx, raffle.ID)
	if err != nil {
		return RaffleDetail{}, err
	}

	sold := 0
	for _, e := range entries {
		sold += e.TicketCount
	}
	slices.Reverse(entries)

	return RaffleDetail{
		Raffle:      raffle,
		Entries:     entries,
		TicketsSold: sold,
	}, nil
}

// EntryRow is one line of the entries CSV export.
type EntryRow struct {
	EntryID     string `csv:"entry_id"`
	Name        string `csv:"name"`
	Email       string `csv:"email"`
	Phone       string `csv:"phone"`
	TicketCount int    `csv:"ticket_count"`
	FirstTicket int    `csv:"first_ticket"`
	LastTicket  int    `csv:"last_ticket"`
	CompletedAt string `csv:"completed_at"`
	Winner      bool   `csv:"winner"`
}

// ExportEntries writes the raffle's completed entries as CSV in draw order,
// with each entry's half-open ticket range shown as inclusive numbers.
func (s *AdminService) ExportEntries(ctx context.Context, raffleID string, w io.Writer) error {
	if strings.TrimSpace(raffleID) == "" {
		return domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return err
	}
	entries, err := s.repo.ListCompletedEntries(ctx, raffle.ID)
	if err != nil {
		return err
	}

	rows := make([]*EntryRow, 0, len(entries))
	next := 0
	for _, e := range entries {
		row := &EntryRow{
			EntryID:     e.ID,
			Name:        e.Participant.Name,
			Email:       e.Participant.Email,
			Phone:       e.Participant.Phone,
			TicketCount: e.TicketCount,
			FirstTicket: next + 1,
			LastTicket:  next + e.TicketCount,
			Winner:      raffle.WinnerID != nil && *raffle.WinnerID == e.ID,
		}
		if e.CompletedAt != nil {
			row.CompletedAt = e.CompletedAt.UTC().Format(time.RFC3339)
		}
		next += e.TicketCount
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("export entries: %w", err)
	}
	return nil
}

func normalizeEventID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}
