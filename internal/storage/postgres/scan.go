package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/jackc/pgx/v5"
)

const raffleColumns = `r.id, r.title, r.description, r.ticket_price, r.max_tickets, r.start_date, r.end_date,
	r.is_active, r.winner_id, r.event_id, r.created_at, r.updated_at`

const entryColumns = `e.id, e.raffle_id, e.name, e.email, e.phone, e.ticket_count, e.payment_status,
	e.session_id, e.checkout_url, e.idempotency_key, e.hold_expires_at, e.created_at, e.completed_at`

func raffleDest(r *domain.Raffle) []any {
	return []any{
		&r.ID, &r.Title, &r.Description, &r.TicketPrice, &r.MaxTickets, &r.StartDate, &r.EndDate,
		&r.IsActive, &r.WinnerID, &r.EventID, &r.CreatedAt, &r.UpdatedAt,
	}
}

type entryRow struct {
	entry          domain.Entry
	phone          *string
	checkoutURL    *string
	idempotencyKey *string
}

func (e *entryRow) dest() []any {
	return []any{
		&e.entry.ID, &e.entry.RaffleID, &e.entry.Participant.Name, &e.entry.Participant.Email, &e.phone,
		&e.entry.TicketCount, &e.entry.Status, &e.entry.SessionID, &e.checkoutURL, &e.idempotencyKey,
		&e.entry.HoldExpiresAt,
		&e.entry.CreatedAt, &e.entry.CompletedAt,
	}
}

func (e *entryRow) value() domain.Entry {
	out := e.entry
	if e.phone != nil {
		out.Participant.Phone = *e.phone
	}
	if e.checkoutURL != nil {
		out.CheckoutURL = *e.checkoutURL
	}
	if e.idempotencyKey != nil {
		out.IdempotencyKey = *e.idempotencyKey
	}
	return out
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getRaffle loads one raffle, optionally locking its row.
func (d db) getRaffle(ctx context.Context, raffleID string, forUpdate bool) (domain.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles r WHERE r.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var r domain.Raffle
	if err := d.queryRow(ctx, query, raffleID).Scan(raffleDest(&r)...); err != nil {
		if isInvalidUUID(err) {
			return domain.Raffle{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Raffle{}, domain.ErrRaffleNotFound
		}
		return domain.Raffle{}, fmt.Errorf("get raffle: %w", err)
	}
	return r, nil
}

func (d db) getEntry(ctx context.Context, entryID string, forUpdate bool) (domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM raffle_entries e WHERE e.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row entryRow
	if err := d.queryRow(ctx, query, entryID).Scan(row.dest()...); err != nil {
		if isInvalidUUID(err) {
			return domain.Entry{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Entry{}, domain.ErrEntryNotFound
		}
		return domain.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return row.value(), nil
}

func (d db) sumCompletedTickets(ctx context.Context, raffleID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(ticket_count), 0)
FROM raffle_entries
WHERE raffle_id = $1 AND payment_status = 'completed'`

	var total int
	if err := d.queryRow(ctx, query, raffleID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum completed tickets: %w", err)
	}
	return total, nil
}
