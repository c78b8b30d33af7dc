package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/draw"
	"github.com/sirupsen/logrus"
)

type DrawRepository interface {
	GetRaffle(ctx context.Context, raffleID string) (domain.Raffle, error)
	GetEntry(ctx context.Context, entryID string) (domain.Entry, error)
	// ListCompletedEntries returns completed entries in a stable order
	// (created_at, id ascending).
	ListCompletedEntries(ctx context.Context, raffleID string) ([]domain.Entry, error)
	SetWinner(ctx context.Context, raffleID string, entryID *string, at time.Time) error
}

type DrawService struct {
	repo   DrawRepository
	clock  clock.Clock
	source draw.Source
	logger logrus.FieldLogger
}

func NewDrawService(repo DrawRepository, clk clock.Clock, opts ...DrawServiceOption) *DrawService {
	svc := &DrawService{
		repo:   repo,
		clock:  clk,
		source: draw.CryptoSource(),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type DrawServiceOption func(*DrawService)

// WithRandomSource replaces the crypto/rand ticket source.
func WithRandomSource(src draw.Source) DrawServiceOption {
	return func(s *DrawService) {
		if src != nil {
			s.source = src
		}
	}
}

func WithDrawLogger(l logrus.FieldLogger) DrawServiceOption {
	return func(s *DrawService) {
		if l != nil {
			s.logger = l
		}
	}
}

// DrawResult is a proposed winner. Nothing is persisted until SetWinner.
type DrawResult struct {
	Raffle  domain.Raffle
	Winner  domain.Entry
	Ticket  int
	Total   int
	Entries []domain.Entry
	Wheel   draw.Wheel
}

func (s *DrawService) DrawWinner(ctx context.Context, raffleID string) (DrawResult, error) {
	if strings.TrimSpace(raffleID) == "" {
		return DrawResult{}, domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return DrawResult{}, err
	}
	entries, err := s.repo.ListCompletedEntries(ctx, raffle.ID)
	if err != nil {
		return DrawResult{}, err
	}
	if len(entries) == 0 {
		return DrawResult{}, domain.ErrNoEligibleEntries
	}

	weights := make([]int, len(entries))
	for i, e := range entries {
		weights[i] = e.TicketCount
	}
	res, err := draw.Draw(weights, s.source)
	if errors.Is(err, draw.ErrEmpty) {
		return DrawResult{}, domain.ErrNoEligibleEntries
	}
	if err != nil {
		return DrawResult{}, err
	}
	wheel, err := draw.NewWheel(weights, res)
	if err != nil {
		return DrawResult{}, err
	}

	winner := entries[res.Index]
	s.logger.WithFields(logrus.Fields{
		"raffle_id": raffle.ID,
		"entry_id":  winner.ID,
		"ticket":    res.Ticket,
		"total":     res.Total,
	}).Info("winner drawn")

	return DrawResult{
		Raffle:  raffle,
		Winner:  winner,
		Ticket:  res.Ticket,
		Total:   res.Total,
		Entries: entries,
		Wheel:   wheel,
	}, nil
}

// SetWinner records entryID as the raffle's winner, replacing any previous one.
func (s *DrawService) SetWinner(ctx context.Context, raffleID, entryID string) (domain.Raffle, error) {
	if strings.TrimSpace(raffleID) == "" || strings.TrimSpace(entryID) == "" {
		return domain.Raffle{}, domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, err
	}
	entry, err := s.repo.GetEntry(ctx, entryID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		return domain.Raffle{}, domain.ErrInvalidWinner
	}
	if err != nil {
		return domain.Raffle{}, err
	}
	if entry.RaffleID != raffle.ID || entry.Status != domain.EntryStatusCompleted {
		return domain.Raffle{}, domain.ErrInvalidWinner
	}

	now := s.clock.Now()
	if err := s.repo.SetWinner(ctx, raffle.ID, &entry.ID, now); err != nil {
		return domain.Raffle{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"raffle_id": raffle.ID,
		"entry_id":  entry.ID,
	}).Info("winner set")

	raffle.WinnerID = &entry.ID
	raffle.UpdatedAt = now
	return raffle, nil
}

func (s *DrawService) ClearWinner(ctx context.Context, raffleID string) (domain.Raffle, error) {
	if strings.TrimSpace(raffleID) == "" {
		return domain.Raffle{}, domain.ErrInvalidID
	}
	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, err
	}
	now := s.clock.Now()
	if err := s.repo.SetWinner(ctx, raffle.ID, nil, now); err != nil {
		return domain.Raffle{}, err
	}
	raffle.WinnerID = nil
	raffle.UpdatedAt = now
	return raffle, nil
}
