package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
	"github.com/sirupsen/logrus"
)

type DonationRepository interface {
	ListDonations(ctx context.Context, limit int) ([]domain.Donation, error)
}

type DonationService struct {
	repo       DonationRepository
	gateway    PaymentGateway
	currency   string
	successURL string
	cancelURL  string
	logger     logrus.FieldLogger
}

func NewDonationService(repo DonationRepository, gateway PaymentGateway, opts ...DonationServiceOption) *DonationService {
	svc := &DonationService{
		repo:     repo,
		gateway:  gateway,
		currency: defaultCurrency,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type DonationServiceOption func(*DonationService)

func WithDonationCurrency(code string) DonationServiceOption {
	return func(s *DonationService) {
		if code != "" {
			s.currency = strings.ToLower(code)
		}
	}
}

func WithDonationURLs(success, cancel string) DonationServiceOption {
	return func(s *DonationService) {
		s.successURL = success
		s.cancelURL = cancel
	}
}

func WithDonationLogger(l logrus.FieldLogger) DonationServiceOption {
	return func(s *DonationService) {
		if l != nil {
			s.logger = l
		}
	}
}

type CreateDonationInput struct {
	Amount int64
	Email  string
}

const (
	defaultDonationLimit = 100
	maxDonationLimit     = 500
)

// CreateCheckout opens a one-off donation checkout and returns its URL.
// The donation itself is recorded when the completed event arrives.
func (s *DonationService) CreateCheckout(ctx context.Context, in CreateDonationInput) (string, error) {
	if in.Amount < domain.MinDonationAmount {
		return "", domain.ErrInvalidDonation
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Name:          "Donation",
		Description:   "One-time donation",
		Currency:      s.currency,
		UnitAmount:    in.Amount,
		Quantity:      1,
		CustomerEmail: strings.TrimSpace(in.Email),
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			payment.MetaCategory: payment.CategoryDonation,
		},
	})
	if err != nil {
		s.logger.WithError(err).Warn("donation checkout not created")
		if !errors.Is(err, domain.ErrPaymentCollaborator) {
			err = fmt.Errorf("%w: %v", domain.ErrPaymentCollaborator, err)
		}
		return "", err
	}
	return session.URL, nil
}

// ListDonations returns the most recent donations, newest first.
func (s *DonationService) ListDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	switch {
	case limit <= 0:
		limit = defaultDonationLimit
	case limit > maxDonationLimit:
		limit = maxDonationLimit
	}
	return s.repo.ListDonations(ctx, limit)
}
