package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/snowflake"
)

func TestCounterpartStoreLookupMatchesEitherSide(t *testing.T) {
	db := setupTestDatabase(t)
	pairs := NewCounterpartStore(db)
	ctx := context.Background()

	added, err := pairs.Add(ctx, MessagePair{
		DMChannel:     snowflake.ID(10),
		DMMessage:     snowflake.ID(11),
		ThreadChannel: snowflake.ID(20),
		ThreadMessage: snowflake.ID(21),
	})
	require.NoError(t, err)
	assert.False(t, added.CreatedAt.IsZero())

	byDM, err := pairs.ByMessage(ctx, snowflake.ID(11))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(21), byDM.ThreadMessage)
	assert.Equal(t, snowflake.ID(20), byDM.ThreadChannel)

	byThread, err := pairs.ByMessage(ctx, snowflake.ID(21))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(11), byThread.DMMessage)
	assert.Equal(t, snowflake.ID(10), byThread.DMChannel)
}

func TestCounterpartStoreMissingMessage(t *testing.T) {
	db := setupTestDatabase(t)
	pairs := NewCounterpartStore(db)
	ctx := context.Background()

	_, err := pairs.ByMessage(ctx, snowflake.ID(12345))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCounterpartStoreRejectsDuplicateMessages(t *testing.T) {
	db := setupTestDatabase(t)
	pairs := NewCounterpartStore(db)
	ctx := context.Background()

	_, err := pairs.Add(ctx, MessagePair{
		DMChannel:     snowflake.ID(10),
		DMMessage:     snowflake.ID(11),
		ThreadChannel: snowflake.ID(20),
		ThreadMessage: snowflake.ID(21),
	})
	require.NoError(t, err)

	_, err = pairs.Add(ctx, MessagePair{
		DMChannel:     snowflake.ID(10),
		DMMessage:     snowflake.ID(11),
		ThreadChannel: snowflake.ID(20),
		ThreadMessage: snowflake.ID(22),
	})
	assert.Error(t, err, "dm_message must be unique")

	_, err = pairs.Add(ctx, MessagePair{
		DMChannel:     snowflake.ID(10),
		DMMessage:     snowflake.ID(12),
		ThreadChannel: snowflake.ID(20),
		ThreadMessage: snowflake.ID(21),
	})
	assert.Error(t, err, "thread_message must be unique")
}
