package app

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. WithTx
// snapshots state and restores it when fn fails.
type fakeStore struct {
	raffles   map[string]domain.Raffle
	entries   []domain.Entry
	events    map[string]domain.PaymentEvent
	donations []domain.Donation

	released []string
	deleted  []string

	createEntryErr   error
	attachErr        error
	updateEntryErr   error
	recordEventErr   error
	recordDonateErr  error
	listCompletedErr error
}

func newFakeStore(raffles []domain.Raffle, entries []domain.Entry) *fakeStore {
	r := make(map[string]domain.Raffle, len(raffles))
	for _, raffle := range raffles {
		r[raffle.ID] = raffle
	}
	return &fakeStore{
		raffles: r,
		entries: append([]domain.Entry{}, entries...),
		events:  make(map[string]domain.PaymentEvent),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	raffles := make(map[string]domain.Raffle, len(f.raffles))
	for k, v := range f.raffles {
		raffles[k] = v
	}
	events := make(map[string]domain.PaymentEvent, len(f.events))
	for k, v := range f.events {
		events[k] = v
	}
	entries := slices.Clone(f.entries)
	donations := slices.Clone(f.donations)

	if err := fn(ctx); err != nil {
		f.raffles, f.events, f.entries, f.donations = raffles, events, entries, donations
		return err
	}
	return nil
}

func (f *fakeStore) GetRaffle(_ context.Context, raffleID string) (domain.Raffle, error) {
	r, ok := f.raffles[raffleID]
	if !ok {
		return domain.Raffle{}, domain.ErrRaffleNotFound
	}
	return r, nil
}

func (f *fakeStore) GetRaffleForUpdate(ctx context.Context, raffleID string) (domain.Raffle, error) {
	return f.GetRaffle(ctx, raffleID)
}

func (f *fakeStore) entryIndex(entryID string) int {
	return slices.IndexFunc(f.entries, func(e domain.Entry) bool { return e.ID == entryID })
}

func (f *fakeStore) GetEntry(_ context.Context, entryID string) (domain.Entry, error) {
	i := f.entryIndex(entryID)
	if i < 0 {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	return f.entries[i], nil
}

func (f *fakeStore) GetEntryForUpdate(ctx context.Context, entryID string) (domain.Entry, error) {
	return f.GetEntry(ctx, entryID)
}

func (f *fakeStore) SumCompletedTickets(_ context.Context, raffleID string) (int, error) {
	total := 0
	for _, e := range f.entries {
		if e.RaffleID == raffleID && e.Status == domain.EntryStatusCompleted {
			total += e.TicketCount
		}
	}
	return total, nil
}

func (f *fakeStore) SumActiveHolds(_ context.Context, raffleID string, now time.Time) (int, error) {
	total := 0
	for _, e := range f.entries {
		if e.RaffleID != raffleID || e.Status != domain.EntryStatusPending {
			continue
		}
		if !e.HoldExpiresAt.After(now) {
			continue
		}
		total += e.TicketCount
	}
	return total, nil
}

func (f *fakeStore) FindEntryByIdempotencyKey(_ context.Context, raffleID, key string) (*domain.Entry, error) {
	for _, e := range f.entries {
		if e.RaffleID == raffleID && e.IdempotencyKey != "" && e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateEntry(ctx context.Context, entry domain.Entry) error {
	if f.createEntryErr != nil {
		return f.createEntryErr
	}
	if entry.IdempotencyKey != "" {
		if existing, _ := f.FindEntryByIdempotencyKey(ctx, entry.RaffleID, entry.IdempotencyKey); existing != nil {
			return domain.ErrIdempotencyConflict
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) AttachSession(_ context.Context, entryID, sessionID, checkoutURL string, holdUntil time.Time) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	i := f.entryIndex(entryID)
	if i < 0 {
		return domain.ErrEntryNotFound
	}
	f.entries[i].SessionID = &sessionID
	f.entries[i].CheckoutURL = checkoutURL
	if holdUntil.After(f.entries[i].HoldExpiresAt) {
		f.entries[i].HoldExpiresAt = holdUntil
	}
	return nil
}

func (f *fakeStore) ReleaseHold(_ context.Context, entryID string, at time.Time) error {
	f.released = append(f.released, entryID)
	if i := f.entryIndex(entryID); i >= 0 && f.entries[i].Status == domain.EntryStatusPending {
		f.entries[i].HoldExpiresAt = at
	}
	return nil
}

func (f *fakeStore) RecordEvent(_ context.Context, ev domain.PaymentEvent) (bool, error) {
	if f.recordEventErr != nil {
		return false, f.recordEventErr
	}
	if _, ok := f.events[ev.ID]; ok {
		return false, nil
	}
	f.events[ev.ID] = ev
	return true, nil
}

func (f *fakeStore) UpdateEntryPayment(_ context.Context, entryID string, status domain.EntryStatus, sessionID string, at time.Time) error {
	if f.updateEntryErr != nil {
		return f.updateEntryErr
	}
	i := f.entryIndex(entryID)
	if i < 0 {
		return domain.ErrEntryNotFound
	}
	e := &f.entries[i]
	e.Status = status
	if e.SessionID == nil && sessionID != "" {
		e.SessionID = &sessionID
	}
	if status == domain.EntryStatusCompleted {
		e.CompletedAt = &at
	}
	return nil
}

func (f *fakeStore) RecordDonation(_ context.Context, d domain.Donation) (bool, error) {
	if f.recordDonateErr != nil {
		return false, f.recordDonateErr
	}
	for _, existing := range f.donations {
		if existing.SessionID == d.SessionID {
			return false, nil
		}
	}
	f.donations = append(f.donations, d)
	return true, nil
}

func (f *fakeStore) ListDonations(_ context.Context, limit int) ([]domain.Donation, error) {
	out := slices.Clone(f.donations)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListCompletedEntries(_ context.Context, raffleID string) ([]domain.Entry, error) {
	if f.listCompletedErr != nil {
		return nil, f.listCompletedErr
	}
	var out []domain.Entry
	for _, e := range f.entries {
		if e.RaffleID == raffleID && e.Status == domain.EntryStatusCompleted {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (f *fakeStore) SetWinner(_ context.Context, raffleID string, entryID *string, at time.Time) error {
	r, ok := f.raffles[raffleID]
	if !ok {
		return domain.ErrRaffleNotFound
	}
	r.WinnerID = entryID
	r.UpdatedAt = at
	f.raffles[raffleID] = r
	return nil
}

func (f *fakeStore) CreateRaffle(_ context.Context, raffle domain.Raffle) error {
	f.raffles[raffle.ID] = raffle
	return nil
}

func (f *fakeStore) UpdateRaffle(_ context.Context, raffle domain.Raffle) error {
	if _, ok := f.raffles[raffle.ID]; !ok {
		return domain.ErrRaffleNotFound
	}
	f.raffles[raffle.ID] = raffle
	return nil
}

func (f *fakeStore) DeleteRaffle(_ context.Context, raffleID string) error {
	if _, ok := f.raffles[raffleID]; !ok {
		return domain.ErrRaffleNotFound
	}
	delete(f.raffles, raffleID)
	f.deleted = append(f.deleted, raffleID)
	return nil
}

func (f *fakeStore) ListRaffleStats(ctx context.Context) ([]domain.RaffleStats, error) {
	out := make([]domain.RaffleStats, 0, len(f.raffles))
	for _, r := range f.raffles {
		st := domain.RaffleStats{Raffle: r}
		for _, e := range f.entries {
			if e.RaffleID != r.ID {
				continue
			}
			st.EntryCount++
			if e.Status == domain.EntryStatusCompleted {
				st.CompletedCount++
				st.TicketsSold += e.TicketCount
			}
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.RaffleStats) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) ListOpenRaffles(ctx context.Context, now time.Time) ([]domain.RaffleAvailability, error) {
	var out []domain.RaffleAvailability
	for _, r := range f.raffles {
		if !r.IsActive || now.After(r.EndDate) {
			continue
		}
		sold, _ := f.SumCompletedTickets(ctx, r.ID)
		held, _ := f.SumActiveHolds(ctx, r.ID, now)
		out = append(out, domain.RaffleAvailability{Raffle: r, TicketsSold: sold, TicketsReserved: held})
	}
	slices.SortFunc(out, func(a, b domain.RaffleAvailability) int {
		return a.Raffle.StartDate.Compare(b.Raffle.StartDate)
	})
	return out, nil
}

type fakeGateway struct {
	requests []payment.CheckoutRequest
	session  payment.CheckoutSession
	err      error
	// minLifetime mimics a collaborator that keeps checkouts open at least
	// this long after now, whatever expiry was asked for.
	minLifetime time.Duration
	now         func() time.Time
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return payment.CheckoutSession{}, g.err
	}
	sess := g.session
	if g.minLifetime > 0 {
		sess.ExpiresAt = req.ExpiresAt
		if floor := g.now().Add(g.minLifetime); sess.ExpiresAt.Before(floor) {
			sess.ExpiresAt = floor
		}
	}
	return sess, nil
}

type fakeVerifier struct {
	event payment.Event
	err   error
	calls int
}

func (v *fakeVerifier) Verify([]byte, string) (payment.Event, error) {
	v.calls++
	return v.event, v.err
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
