package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository backs webhook reconciliation and the donation ledger.
type PaymentRepository struct {
	db
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db{pool: pool}}
}

func (r *PaymentRepository) RecordEvent(ctx context.Context, ev domain.PaymentEvent) (bool, error) {
	const stmt = `
INSERT INTO payment_events (id, type, session_id, received_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`

	tag, err := r.exec(ctx, stmt, ev.ID, ev.Type, ev.SessionID, ev.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("record payment event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) GetRaffleForUpdate(ctx context.Context, raffleID string) (domain.Raffle, error) {
	return r.getRaffle(ctx, raffleID, true)
}

func (r *PaymentRepository) GetEntryForUpdate(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := r.getEntry(ctx, entryID, true)
	if err == domain.ErrInvalidID {
		// Metadata ids come from outside; a malformed one names no entry.
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	return entry, err
}

func (r *PaymentRepository) SumCompletedTickets(ctx context.Context, raffleID string) (int, error) {
	return r.sumCompletedTickets(ctx, raffleID)
}

// UpdateEntryPayment moves a pending entry to status. The session id is
// stored when the entry has none yet.
func (r *PaymentRepository) UpdateEntryPayment(ctx context.Context, entryID string, status domain.EntryStatus, sessionID string, at time.Time) error {
	const stmt = `
UPDATE raffle_entries
SET payment_status = $2::text,
	session_id = COALESCE(session_id, NULLIF($3::text, '')),
	completed_at = CASE WHEN $2::text = 'completed' THEN $4 ELSE completed_at END
WHERE id = $1 AND payment_status = 'pending'`

	tag, err := r.exec(ctx, stmt, entryID, status, sessionID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyLinked
		}
		return fmt.Errorf("update entry payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *PaymentRepository) RecordDonation(ctx context.Context, d domain.Donation) (bool, error) {
	const stmt = `
INSERT INTO donations (id, session_id, amount, currency, donor_email, donor_name, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id) DO NOTHING`

	tag, err := r.exec(ctx, stmt, d.ID, d.SessionID, d.Amount, d.Currency, d.DonorEmail, d.DonorName, d.Status, d.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("record donation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) ListDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	const query = `
SELECT id, session_id, amount, currency, donor_email, donor_name, status, created_at
FROM donations
ORDER BY created_at DESC
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Amount, &d.Currency, &d.DonorEmail, &d.DonorName, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate donations: %w", rows.Err())
	}
	return donations, nil
}
