package http

import (
	"context"
	"io"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/domain"
)

type stubCatalog struct {
	raffles []app.OpenRaffle
	err     error
}

func (s *stubCatalog) ListOpenRaffles(context.Context) ([]app.OpenRaffle, error) {
	return s.raffles, s.err
}

type stubEntryCreator struct {
	result app.CheckoutResult
	err    error
	got    app.CreateEntryInput
}

func (s *stubEntryCreator) CreateEntry(_ context.Context, in app.CreateEntryInput) (app.CheckoutResult, error) {
	s.got = in
	return s.result, s.err
}

type stubEventHandler struct {
	result    app.ReconcileResult
	err       error
	payload   []byte
	signature string
}

func (s *stubEventHandler) HandlePaymentEvent(_ context.Context, payload []byte, signature string) (app.ReconcileResult, error) {
	s.payload = payload
	s.signature = signature
	return s.result, s.err
}

type stubDonations struct {
	url       string
	donations []domain.Donation
	err       error
	gotInput  app.CreateDonationInput
	gotLimit  int
}

func (s *stubDonations) CreateCheckout(_ context.Context, in app.CreateDonationInput) (string, error) {
	s.gotInput = in
	return s.url, s.err
}

func (s *stubDonations) ListDonations(_ context.Context, limit int) ([]domain.Donation, error) {
	s.gotLimit = limit
	return s.donations, s.err
}

type stubAdmin struct {
	raffle    domain.Raffle
	stats     []domain.RaffleStats
	detail    app.RaffleDetail
	csv       string
	err       error
	gotCreate app.CreateRaffleInput
	gotUpdate app.UpdateRaffleInput
	gotID     string
}

func (s *stubAdmin) CreateRaffle(_ context.Context, in app.CreateRaffleInput) (domain.Raffle, error) {
	s.gotCreate = in
	return s.raffle, s.err
}

func (s *stubAdmin) UpdateRaffle(_ context.Context, in app.UpdateRaffleInput) (domain.Raffle, error) {
	s.gotUpdate = in
	return s.raffle, s.err
}

func (s *stubAdmin) DeleteRaffle(_ context.Context, raffleID string) error {
	s.gotID = raffleID
	return s.err
}

func (s *stubAdmin) ListRaffles(context.Context) ([]domain.RaffleStats, error) {
	return s.stats, s.err
}

func (s *stubAdmin) GetRaffle(_ context.Context, raffleID string) (app.RaffleDetail, error) {
	s.gotID = raffleID
	return s.detail, s.err
}

func (s *stubAdmin) ExportEntries(_ context.Context, raffleID string, w io.Writer) error {
	s.gotID = raffleID
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.csv)
	return err
}

type stubWinner struct {
	draw     app.DrawResult
	raffle   domain.Raffle
	err      error
	gotEntry string
	gotID    string
}

func (s *stubWinner) DrawWinner(_ context.Context, raffleID string) (app.DrawResult, error) {
	s.gotID = raffleID
	return s.draw, s.err
}

func (s *stubWinner) SetWinner(_ context.Context, raffleID, entryID string) (domain.Raffle, error) {
	s.gotID = raffleID
	s.gotEntry = entryID
	return s.raffle, s.err
}

func (s *stubWinner) ClearWinner(_ context.Context, raffleID string) (domain.Raffle, error) {
	s.gotID = raffleID
	return s.raffle, s.err
}
