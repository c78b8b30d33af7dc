package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
	"github.com/sirupsen/logrus"
)

type ReconciliationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// RecordEvent stores the event id and reports false when it was already seen.
	RecordEvent(ctx context.Context, ev domain.PaymentEvent) (bool, error)
	GetRaffleForUpdate(ctx context.Context, raffleID string) (domain.Raffle, error)
	GetEntryForUpdate(ctx context.Context, entryID string) (domain.Entry, error)
	SumCompletedTickets(ctx context.Context, raffleID string) (int, error)
	UpdateEntryPayment(ctx context.Context, entryID string, status domain.EntryStatus, sessionID string, at time.Time) error
	// RecordDonation inserts a donation and reports false when its session was already recorded.
	RecordDonation(ctx context.Context, d domain.Donation) (bool, error)
}

// EventVerifier authenticates a raw webhook delivery.
type EventVerifier interface {
	Verify(payload []byte, signature string) (payment.Event, error)
}

// MetadataOpener reverses MetadataSealer.
type MetadataOpener interface {
	OpenEntryRef(token string) (entryID, raffleID string, err error)
}

type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeAlreadyApplied   Outcome = "already_applied"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeExpired          Outcome = "expired"
	OutcomeOversold         Outcome = "oversold"
	OutcomeDonationRecorded Outcome = "donation_recorded"
)

type ReconcileResult struct {
	EventID   string
	EventType string
	EntryID   string
	Outcome   Outcome
}

type ReconciliationService struct {
	repo     ReconciliationRepository
	verifier EventVerifier
	opener   MetadataOpener
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewReconciliationService(repo ReconciliationRepository, verifier EventVerifier, opener MetadataOpener, clk clock.Clock, opts ...ReconciliationOption) *ReconciliationService {
	svc := &ReconciliationService{
		repo:     repo,
		verifier: verifier,
		opener:   opener,
		clock:    clk,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReconciliationOption func(*ReconciliationService)

func WithReconciliationLogger(l logrus.FieldLogger) ReconciliationOption {
	return func(s *ReconciliationService) {
		if l != nil {
			s.logger = l
		}
	}
}

// HandlePaymentEvent verifies a webhook delivery and applies it. A verification
// failure never touches storage. Storage failures are returned so the gateway
// redelivers; every other outcome is an acknowledgement.
func (s *ReconciliationService) HandlePaymentEvent(ctx context.Context, payload []byte, signature string) (ReconcileResult, error) {
	ev, err := s.verifier.Verify(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			s.logger.WithError(err).Warn("payment event rejected")
		}
		return ReconcileResult{}, err
	}
	if ev.ID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: event id missing", domain.ErrInvalidRequest)
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_id":   ev.ID,
		"event_type": ev.Type,
	})
	now := s.clock.Now()
	result := ReconcileResult{EventID: ev.ID, EventType: ev.Type}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		fresh, err := s.repo.RecordEvent(txCtx, domain.PaymentEvent{
			ID:         ev.ID,
			Type:       ev.Type,
			SessionID:  ev.SessionID,
			ReceivedAt: now,
		})
		if err != nil {
			return err
		}
		if !fresh {
			result.Outcome = OutcomeDuplicate
			return nil
		}

		switch ev.Type {
		case payment.EventCheckoutCompleted:
			return s.applyCompleted(txCtx, ev, now, &result)
		case payment.EventCheckoutExpired:
			result.EntryID = ev.Metadata[payment.MetaEntryID]
			result.Outcome = OutcomeExpired
		default:
			result.Outcome = OutcomeIgnored
		}
		return nil
	})
	if errors.Is(err, domain.ErrSessionAlreadyLinked) {
		// The rollback also drops the event row, so a redelivery lands here again.
		log.WithError(err).Warn("checkout session belongs to another entry")
		result.Outcome = OutcomeIgnored
		err = nil
	}
	if err != nil {
		log.WithError(err).Error("payment event not applied")
		return ReconcileResult{}, fmt.Errorf("reconcile event %s: %w", ev.ID, err)
	}

	log.WithFields(logrus.Fields{
		"entry_id": result.EntryID,
		"outcome":  result.Outcome,
	}).Info("payment event processed")
	return result, nil
}

func (s *ReconciliationService) applyCompleted(ctx context.Context, ev payment.Event, now time.Time, result *ReconcileResult) error {
	switch ev.Category() {
	case payment.CategoryRaffleTicket:
		return s.confirmEntry(ctx, ev, now, result)
	case payment.CategoryDonation, "":
		return s.recordDonation(ctx, ev, now, result)
	default:
		result.Outcome = OutcomeIgnored
		return nil
	}
}

func (s *ReconciliationService) confirmEntry(ctx context.Context, ev payment.Event, now time.Time, result *ReconcileResult) error {
	entryID := ev.Metadata[payment.MetaEntryID]
	result.EntryID = entryID
	result.Outcome = OutcomeIgnored

	log := s.logger.WithFields(logrus.Fields{
		"event_id":   ev.ID,
		"entry_id":   entryID,
		"session_id": ev.SessionID,
	})

	sealedEntryID, raffleID, err := s.opener.OpenEntryRef(ev.Metadata[payment.MetaToken])
	if err != nil || sealedEntryID != entryID || raffleID != ev.Metadata[payment.MetaRaffleID] {
		log.Warn("checkout metadata does not match its token")
		return nil
	}

	// Raffle before entry, the same lock order as intake.
	raffle, err := s.repo.GetRaffleForUpdate(ctx, raffleID)
	if errors.Is(err, domain.ErrRaffleNotFound) {
		log.Warn("raffle for paid entry no longer exists")
		return nil
	}
	if err != nil {
		return err
	}
	entry, err := s.repo.GetEntryForUpdate(ctx, entryID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		log.Warn("paid entry no longer exists")
		return nil
	}
	if err != nil {
		return err
	}
	if entry.RaffleID != raffle.ID {
		log.Warn("paid entry belongs to another raffle")
		return nil
	}
	if entry.SessionID != nil && ev.SessionID != "" && *entry.SessionID != ev.SessionID {
		log.WithField("stored_session_id", *entry.SessionID).Warn("entry is linked to a different checkout session")
		return nil
	}

	transition := domain.TransitionConfirm
	if entry.Status == domain.EntryStatusPending && raffle.MaxTickets != nil {
		sold, err := s.repo.SumCompletedTickets(ctx, raffle.ID)
		if err != nil {
			return err
		}
		if sold+entry.TicketCount > *raffle.MaxTickets {
			transition = domain.TransitionReject
		}
	}

	next, changed := entry.Status.Apply(transition)
	if !changed {
		result.Outcome = OutcomeAlreadyApplied
		return nil
	}
	if err := s.repo.UpdateEntryPayment(ctx, entry.ID, next, ev.SessionID, now); err != nil {
		return err
	}

	if next == domain.EntryStatusFailed {
		log.WithFields(logrus.Fields{
			"raffle_id":    raffle.ID,
			"ticket_count": entry.TicketCount,
			"amount":       ev.AmountTotal,
		}).Error("paid entry exceeds ticket cap; refund required")
		result.Outcome = OutcomeOversold
		return nil
	}
	result.Outcome = OutcomeConfirmed
	return nil
}

func (s *ReconciliationService) recordDonation(ctx context.Context, ev payment.Event, now time.Time, result *ReconcileResult) error {
	if ev.SessionID == "" {
		result.Outcome = OutcomeIgnored
		return nil
	}
	inserted, err := s.repo.RecordDonation(ctx, domain.Donation{
		ID:         newUUID(),
		SessionID:  ev.SessionID,
		Amount:     ev.AmountTotal,
		Currency:   ev.Currency,
		DonorEmail: ev.CustomerEmail,
		DonorName:  ev.CustomerName,
		Status:     domain.DonationStatusCompleted,
		CreatedAt:  now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		result.Outcome = OutcomeAlreadyApplied
		return nil
	}
	result.Outcome = OutcomeDonationRecorded
	return nil
}
