package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/randomairborne/aghast/internal/snowflake"
)

// MessagePair records that a DM message and a thread message are mirrors
// of each other. A message ID appears on at most one side of exactly one
// row. Pairs are written when a mirrored send succeeds and are only read
// back during edit propagation; they are never deleted.
type MessagePair struct {
	DMChannel     snowflake.ID `json:"dm_channel"`
	DMMessage     snowflake.ID `json:"dm_message"`
	ThreadChannel snowflake.ID `json:"thread_channel"`
	ThreadMessage snowflake.ID `json:"thread_message"`
	CreatedAt     time.Time    `json:"created_at"`
}

type CounterpartStore struct {
	db *sql.DB
}

func NewCounterpartStore(db *sql.DB) *CounterpartStore {
	return &CounterpartStore{db: db}
}

const messagePairColumns = `
	dm_channel,
	dm_message,
	thread_channel,
	thread_message,
	created_at
`

func scanMessagePair(row *sql.Row) (MessagePair, error) {
	var (
		pair          MessagePair
		dmChannel     int64
		dmMessage     int64
		threadChannel int64
		threadMessage int64
	)
	if err := row.Scan(&dmChannel, &dmMessage, &threadChannel, &threadMessage, &pair.CreatedAt); err != nil {
		return MessagePair{}, err
	}
	pair.DMChannel = snowflake.FromInt64(dmChannel)
	pair.DMMessage = snowflake.FromInt64(dmMessage)
	pair.ThreadChannel = snowflake.FromInt64(threadChannel)
	pair.ThreadMessage = snowflake.FromInt64(threadMessage)
	return pair, nil
}

// Add records a mirrored message pair.
func (s *CounterpartStore) Add(ctx context.Context, pair MessagePair) (*MessagePair, error) {
	stored, err := scanMessagePair(s.db.QueryRowContext(
		ctx,
		`INSERT INTO ticket_messages (dm_channel, dm_message, thread_channel, thread_message)
		VALUES ($1, $2, $3, $4)
		RETURNING `+messagePairColumns,
		pair.DMChannel.Int64(),
		pair.DMMessage.Int64(),
		pair.ThreadChannel.Int64(),
		pair.ThreadMessage.Int64(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to add message pair: %w", err)
	}
	return &stored, nil
}

// ByMessage returns the pair containing a message on either side, or
// ErrNotFound. Callers compare the queried ID against the returned pair
// to learn which side the message originated on.
func (s *CounterpartStore) ByMessage(ctx context.Context, message snowflake.ID) (*MessagePair, error) {
	pair, err := scanMessagePair(s.db.QueryRowContext(
		ctx,
		`SELECT `+messagePairColumns+` FROM ticket_messages WHERE dm_message = $1 OR thread_message = $1`,
		message.Int64(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message pair: %w", err)
	}
	return &pair, nil
}
