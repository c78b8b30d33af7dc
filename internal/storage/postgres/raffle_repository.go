package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RaffleRepository serves the catalog, the back office, and the draw.
type RaffleRepository struct {
	db
}

func NewRaffleRepository(pool *pgxpool.Pool) *RaffleRepository {
	return &RaffleRepository{db: db{pool: pool}}
}

func (r *RaffleRepository) GetRaffle(ctx context.Context, raffleID string) (domain.Raffle, error) {
	return r.getRaffle(ctx, raffleID, false)
}

func (r *RaffleRepository) GetEntry(ctx context.Context, entryID string) (domain.Entry, error) {
	return r.getEntry(ctx, entryID, false)
}

func (r *RaffleRepository) CreateRaffle(ctx context.Context, raffle domain.Raffle) error {
	const stmt = `
INSERT INTO raffles (id, title, description, ticket_price, max_tickets, start_date, end_date, is_active, event_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		raffle.ID,
		raffle.Title,
		raffle.Description,
		raffle.TicketPrice,
		raffle.MaxTickets,
		raffle.StartDate,
		raffle.EndDate,
		raffle.IsActive,
		raffle.EventID,
		raffle.CreatedAt,
		raffle.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		return fmt.Errorf("create raffle: %w", err)
	}
	return nil
}

// UpdateRaffle overwrites the editable columns. The winner is managed by SetWinner.
func (r *RaffleRepository) UpdateRaffle(ctx context.Context, raffle domain.Raffle) error {
	const stmt = `
UPDATE raffles
SET title = $2, description = $3, ticket_price = $4, max_tickets = $5,
	start_date = $6, end_date = $7, is_active = $8, event_id = $9, updated_at = $10
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		raffle.ID,
		raffle.Title,
		raffle.Description,
		raffle.TicketPrice,
		raffle.MaxTickets,
		raffle.StartDate,
		raffle.EndDate,
		raffle.IsActive,
		raffle.EventID,
		raffle.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		return fmt.Errorf("update raffle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRaffleNotFound
	}
	return nil
}

// DeleteRaffle removes the raffle and, by cascade, its entries.
func (r *RaffleRepository) DeleteRaffle(ctx context.Context, raffleID string) error {
	tag, err := r.exec(ctx, `DELETE FROM raffles WHERE id = $1`, raffleID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete raffle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRaffleNotFound
	}
	return nil
}

func (r *RaffleRepository) SetWinner(ctx context.Context, raffleID string, entryID *string, at time.Time) error {
	const stmt = `UPDATE raffles SET winner_id = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, raffleID, entryID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidWinner
		}
		return fmt.Errorf("set winner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRaffleNotFound
	}
	return nil
}

func (r *RaffleRepository) ListOpenRaffles(ctx context.Context, now time.Time) ([]domain.RaffleAvailability, error) {
	query := `
SELECT ` + raffleColumns + `,
	COALESCE(SUM(e.ticket_count) FILTER (WHERE e.payment_status = 'completed'), 0),
	COALESCE(SUM(e.ticket_count) FILTER (WHERE e.payment_status = 'pending' AND e.hold_expires_at > $1), 0)
FROM raffles r
LEFT JOIN raffle_entries e ON e.raffle_id = r.id
WHERE r.is_active AND r.end_date >= $1
GROUP BY r.id
ORDER BY r.start_date ASC, r.id ASC`

	rows, err := r.query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list open raffles: %w", err)
	}
	defer rows.Close()

	var out []domain.RaffleAvailability
	for rows.Next() {
		var a domain.RaffleAvailability
		dest := append(raffleDest(&a.Raffle), &a.TicketsSold, &a.TicketsReserved)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan raffle: %w", err)
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate raffles: %w", rows.Err())
	}
	return out, nil
}

func (r *RaffleRepository) ListRaffleStats(ctx context.Context) ([]domain.RaffleStats, error) {
	query := `
SELECT ` + raffleColumns + `,
	COUNT(e.id),
	COUNT(e.id) FILTER (WHERE e.payment_status = 'completed'),
	COALESCE(SUM(e.ticket_count) FILTER (WHERE e.payment_status = 'completed'), 0)
FROM raffles r
LEFT JOIN raffle_entries e ON e.raffle_id = r.id
GROUP BY r.id
ORDER BY r.created_at DESC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list raffle stats: %w", err)
	}
	defer rows.Close()

	var out []domain.RaffleStats
	for rows.Next() {
		var st domain.RaffleStats
		dest := append(raffleDest(&st.Raffle), &st.EntryCount, &st.CompletedCount, &st.TicketsSold)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan raffle stats: %w", err)
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate raffle stats: %w", rows.Err())
	}
	return out, nil
}

// ListCompletedEntries returns paid entries in draw order.
func (r *RaffleRepository) ListCompletedEntries(ctx context.Context, raffleID string) ([]domain.Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM raffle_entries e
WHERE e.raffle_id = $1 AND e.payment_status = 'completed'
ORDER BY e.created_at ASC, e.id ASC`

	rows, err := r.query(ctx, query, raffleID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list completed entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, row.value())
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate entries: %w", rows.Err())
	}
	return entries, nil
}
