package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntryRepository backs ticket intake.
type EntryRepository struct {
	db
}

func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: db{pool: pool}}
}

func (r *EntryRepository) GetRaffleForUpdate(ctx context.Context, raffleID string) (domain.Raffle, error) {
	return r.getRaffle(ctx, raffleID, true)
}

func (r *EntryRepository) SumCompletedTickets(ctx context.Context, raffleID string) (int, error) {
	return r.sumCompletedTickets(ctx, raffleID)
}

func (r *EntryRepository) SumActiveHolds(ctx context.Context, raffleID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(ticket_count), 0)
FROM raffle_entries
WHERE raffle_id = $1 AND payment_status = 'pending' AND hold_expires_at > $2`

	var total int
	if err := r.queryRow(ctx, query, raffleID, now).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active holds: %w", err)
	}
	return total, nil
}

// FindEntryByIdempotencyKey returns nil when no entry of the raffle carries key.
func (r *EntryRepository) FindEntryByIdempotencyKey(ctx context.Context, raffleID, key string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM raffle_entries e WHERE e.raffle_id = $1 AND e.idempotency_key = $2`

	var row entryRow
	if err := r.queryRow(ctx, query, raffleID, key).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("find entry by idempotency key: %w", err)
	}
	entry := row.value()
	return &entry, nil
}

func (r *EntryRepository) CreateEntry(ctx context.Context, entry domain.Entry) error {
	const stmt = `
INSERT INTO raffle_entries (id, raffle_id, name, email, phone, ticket_count, payment_status, session_id,
	idempotency_key, hold_expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		entry.ID,
		entry.RaffleID,
		entry.Participant.Name,
		entry.Participant.Email,
		nullIfEmpty(entry.Participant.Phone),
		entry.TicketCount,
		entry.Status,
		entry.SessionID,
		nullIfEmpty(entry.IdempotencyKey),
		entry.HoldExpiresAt,
		entry.CreatedAt,
	)
	if err != nil {
		switch {
		case isInvalidUUID(err):
			return domain.ErrInvalidID
		case isForeignKeyViolation(err):
			return domain.ErrRaffleNotFound
		case isCheckViolation(err):
			return domain.ErrInvalidTicketCount
		case isUniqueViolation(err) && entry.IdempotencyKey != "":
			return domain.ErrIdempotencyConflict
		}
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// AttachSession links the checkout to the entry. The hold is only ever
// lengthened here, never cut short.
func (r *EntryRepository) AttachSession(ctx context.Context, entryID, sessionID, checkoutURL string, holdUntil time.Time) error {
	const stmt = `
UPDATE raffle_entries
SET session_id = $2, checkout_url = $3, hold_expires_at = GREATEST(hold_expires_at, $4)
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, entryID, sessionID, nullIfEmpty(checkoutURL), holdUntil)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyLinked
		}
		return fmt.Errorf("attach session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ReleaseHold ends a pending entry's reservation at the given instant.
func (r *EntryRepository) ReleaseHold(ctx context.Context, entryID string, at time.Time) error {
	const stmt = `
UPDATE raffle_entries
SET hold_expires_at = LEAST(hold_expires_at, $2)
WHERE id = $1 AND payment_status = 'pending'`

	if _, err := r.exec(ctx, stmt, entryID, at); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}
