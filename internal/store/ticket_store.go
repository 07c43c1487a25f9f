package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/randomairborne/aghast/internal/snowflake"
)

// Ticket links a user's DM channel to its staff forum thread. At most one
// row exists per DM channel and per thread; both columns carry uniqueness
// constraints so concurrent opens race in the database, not in memory.
type Ticket struct {
	DM        snowflake.ID `json:"dm"`
	Thread    snowflake.ID `json:"thread"`
	CreatedAt time.Time    `json:"created_at"`
}

type TicketStore struct {
	db *sql.DB
}

func NewTicketStore(db *sql.DB) *TicketStore {
	return &TicketStore{db: db}
}

const ticketColumns = `
	dm,
	thread,
	created_at
`

func scanTicket(row *sql.Row) (Ticket, error) {
	var (
		ticket Ticket
		dm     int64
		thread int64
	)
	if err := row.Scan(&dm, &thread, &ticket.CreatedAt); err != nil {
		return Ticket{}, err
	}
	ticket.DM = snowflake.FromInt64(dm)
	ticket.Thread = snowflake.FromInt64(thread)
	return ticket, nil
}

// Add records a newly opened ticket.
func (s *TicketStore) Add(ctx context.Context, dm, thread snowflake.ID) (*Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRowContext(
		ctx,
		`INSERT INTO tickets (dm, thread) VALUES ($1, $2) RETURNING `+ticketColumns,
		dm.Int64(),
		thread.Int64(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to add ticket: %w", err)
	}
	return &ticket, nil
}

// ByDM returns the open ticket for a DM channel, or ErrNotFound.
func (s *TicketStore) ByDM(ctx context.Context, dm snowflake.ID) (*Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRowContext(
		ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE dm = $1`,
		dm.Int64(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by dm: %w", err)
	}
	return &ticket, nil
}

// ByThread returns the open ticket for a staff thread, or ErrNotFound.
func (s *TicketStore) ByThread(ctx context.Context, thread snowflake.ID) (*Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRowContext(
		ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE thread = $1`,
		thread.Int64(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by thread: %w", err)
	}
	return &ticket, nil
}

// Delete closes the ticket attached to a staff thread. Deleting a thread
// with no ticket is not an error; closure is idempotent.
func (s *TicketStore) Delete(ctx context.Context, thread snowflake.ID) error {
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM tickets WHERE thread = $1`,
		thread.Int64(),
	); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}
