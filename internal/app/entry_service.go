package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
	"github.com/sirupsen/logrus"
)

type EntryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetRaffleForUpdate(ctx context.Context, raffleID string) (domain.Raffle, error)
	SumCompletedTickets(ctx context.Context, raffleID string) (int, error)
	SumActiveHolds(ctx context.Context, raffleID string, now time.Time) (int, error)
	FindEntryByIdempotencyKey(ctx context.Context, raffleID, key string) (*domain.Entry, error)
	CreateEntry(ctx context.Context, entry domain.Entry) error
	// AttachSession stores the checkout and moves the hold to holdUntil
	// unless the hold already runs later.
	AttachSession(ctx context.Context, entryID, sessionID, checkoutURL string, holdUntil time.Time) error
	ReleaseHold(ctx context.Context, entryID string, at time.Time) error
}

// PaymentGateway opens hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error)
}

// MetadataSealer binds an entry to its raffle in a token the gateway echoes back.
type MetadataSealer interface {
	SealEntryRef(entryID, raffleID string) (string, error)
}

type EntryService struct {
	repo       EntryRepository
	gateway    PaymentGateway
	sealer     MetadataSealer
	clock      clock.Clock
	holdTTL    time.Duration
	currency   string
	successURL string
	cancelURL  string
	logger     logrus.FieldLogger
}

const (
	defaultHoldTTL  = 30 * time.Minute
	defaultCurrency = "cad"
)

func NewEntryService(repo EntryRepository, gateway PaymentGateway, sealer MetadataSealer, clk clock.Clock, opts ...EntryServiceOption) *EntryService {
	svc := &EntryService{
		repo:     repo,
		gateway:  gateway,
		sealer:   sealer,
		clock:    clk,
		holdTTL:  defaultHoldTTL,
		currency: defaultCurrency,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type EntryServiceOption func(*EntryService)

// WithHoldTTL overrides how long a pending entry reserves its tickets.
func WithHoldTTL(d time.Duration) EntryServiceOption {
	return func(s *EntryService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithCurrency(code string) EntryServiceOption {
	return func(s *EntryService) {
		if code != "" {
			s.currency = strings.ToLower(code)
		}
	}
}

// WithCheckoutURLs sets where the gateway sends the buyer after paying or
// abandoning the checkout.
func WithCheckoutURLs(success, cancel string) EntryServiceOption {
	return func(s *EntryService) {
		s.successURL = success
		s.cancelURL = cancel
	}
}

func WithEntryLogger(l logrus.FieldLogger) EntryServiceOption {
	return func(s *EntryService) {
		if l != nil {
			s.logger = l
		}
	}
}

type CreateEntryInput struct {
	RaffleID    string
	Participant domain.Participant
	TicketCount int
	// IdempotencyKey makes a resubmitted checkout return the first one.
	IdempotencyKey string
}

// CheckoutResult is a persisted pending entry and the hosted page to pay for it.
type CheckoutResult struct {
	Entry       domain.Entry
	TotalAmount int64
	RedirectURL string
	// Replayed is set when an earlier checkout with the same key was returned.
	Replayed bool
}

func (s *EntryService) CreateEntry(ctx context.Context, in CreateEntryInput) (CheckoutResult, error) {
	if in.TicketCount < 1 {
		return CheckoutResult{}, domain.ErrInvalidTicketCount
	}
	participant := domain.Participant{
		Name:  strings.TrimSpace(in.Participant.Name),
		Email: strings.TrimSpace(in.Participant.Email),
		Phone: strings.TrimSpace(in.Participant.Phone),
	}
	if participant.Name == "" || participant.Email == "" {
		return CheckoutResult{}, domain.ErrParticipantRequired
	}
	if strings.TrimSpace(in.RaffleID) == "" {
		return CheckoutResult{}, domain.ErrInvalidID
	}
	key := strings.TrimSpace(in.IdempotencyKey)

	now := s.clock.Now()
	var (
		raffle   domain.Raffle
		entry    domain.Entry
		replayed bool
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetRaffleForUpdate(txCtx, in.RaffleID)
		if err != nil {
			return err
		}
		if key != "" {
			existing, err := s.repo.FindEntryByIdempotencyKey(txCtx, r.ID, key)
			if err != nil {
				return err
			}
			if existing != nil {
				if err := replayable(*existing, in.TicketCount, participant.Email, now); err != nil {
					return err
				}
				raffle = r
				entry = *existing
				replayed = true
				return nil
			}
		}

		if !r.OpenAt(now) {
			return domain.ErrRaffleNotOpen
		}

		if r.MaxTickets != nil {
			sold, err := s.repo.SumCompletedTickets(txCtx, r.ID)
			if err != nil {
				return err
			}
			held, err := s.repo.SumActiveHolds(txCtx, r.ID, now)
			if err != nil {
				return err
			}
			if sold+held+in.TicketCount > *r.MaxTickets {
				return domain.ErrSoldOut
			}
		}

		e := domain.Entry{
			ID:            newUUID(),
			RaffleID:      r.ID,
			Participant:   participant,
			TicketCount:   in.TicketCount,
			Status:         domain.EntryStatusPending,
			IdempotencyKey: key,
			HoldExpiresAt:  now.Add(s.holdTTL),
			CreatedAt:      now,
		}
		if err := s.repo.CreateEntry(txCtx, e); err != nil {
			return err
		}

		raffle = r
		entry = e
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"entry_id":  entry.ID,
		"raffle_id": raffle.ID,
	})

	if replayed {
		log.Info("checkout replayed for idempotency key")
		return CheckoutResult{
			Entry:       entry,
			TotalAmount: raffle.TotalPrice(entry.TicketCount),
			RedirectURL: entry.CheckoutURL,
			Replayed:    true,
		}, nil
	}

	session, err := s.openCheckout(ctx, raffle, entry)
	if err != nil {
		log.WithError(err).Warn("checkout session not created; releasing hold")
		if relErr := s.repo.ReleaseHold(ctx, entry.ID, now); relErr != nil {
			log.WithError(relErr).Error("release hold")
		}
		if !errors.Is(err, domain.ErrPaymentCollaborator) {
			err = fmt.Errorf("%w: %v", domain.ErrPaymentCollaborator, err)
		}
		return CheckoutResult{}, err
	}

	// The gateway may keep the checkout open longer than asked. The hold must
	// last as long as the checkout or its tickets could be sold twice.
	holdUntil := entry.HoldExpiresAt
	if session.ExpiresAt.After(holdUntil) {
		holdUntil = session.ExpiresAt
	}

	// Reconciliation also stores the session id from the event and re-checks
	// the cap, so a failed write here does not strand the payment.
	if err := s.repo.AttachSession(ctx, entry.ID, session.ID, session.URL, holdUntil); err != nil {
		log.WithError(err).Error("attach checkout session")
	} else {
		entry.SessionID = &session.ID
		entry.CheckoutURL = session.URL
		entry.HoldExpiresAt = holdUntil
	}

	log.WithField("session_id", session.ID).Info("checkout session created")

	return CheckoutResult{
		Entry:       entry,
		TotalAmount: raffle.TotalPrice(entry.TicketCount),
		RedirectURL: session.URL,
	}, nil
}

func (s *EntryService) openCheckout(ctx context.Context, raffle domain.Raffle, entry domain.Entry) (payment.CheckoutSession, error) {
	token, err := s.sealer.SealEntryRef(entry.ID, raffle.ID)
	if err != nil {
		return payment.CheckoutSession{}, err
	}

	req := payment.CheckoutRequest{
		Name:          "Raffle Tickets - " + raffle.Title,
		Description:   ticketDescription(entry.TicketCount, raffle.Title),
		Currency:      s.currency,
		UnitAmount:    raffle.TicketPrice,
		Quantity:      entry.TicketCount,
		CustomerEmail: entry.Participant.Email,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		ExpiresAt:     entry.HoldExpiresAt,
		Metadata: map[string]string{
			payment.MetaCategory:    payment.CategoryRaffleTicket,
			payment.MetaEntryID:     entry.ID,
			payment.MetaRaffleID:    raffle.ID,
			payment.MetaTicketCount: strconv.Itoa(entry.TicketCount),
			payment.MetaToken:       token,
		},
	}
	return s.gateway.CreateCheckoutSession(ctx, req)
}

// replayable reports whether an entry found by idempotency key can be handed
// back for a request with the given ticket count and email.
func replayable(e domain.Entry, ticketCount int, email string, now time.Time) error {
	if e.TicketCount != ticketCount || !strings.EqualFold(e.Participant.Email, email) {
		return domain.ErrIdempotencyConflict
	}
	if e.Status != domain.EntryStatusPending || e.CheckoutURL == "" || !e.HoldExpiresAt.After(now) {
		return domain.ErrIdempotencyConflict
	}
	return nil
}

func ticketDescription(count int, title string) string {
	if count == 1 {
		return "1 ticket for " + title
	}
	return fmt.Sprintf("%d tickets for %s", count, title)
}

// TicketsSold is the number of tickets on completed entries.
func (s *EntryService) TicketsSold(ctx context.Context, raffleID string) (int, error) {
	if strings.TrimSpace(raffleID) == "" {
		return 0, domain.ErrInvalidID
	}
	return s.repo.SumCompletedTickets(ctx, raffleID)
}
