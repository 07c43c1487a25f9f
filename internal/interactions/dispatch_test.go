package interactions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/discord"
)

func TestDispatchAcknowledgesPing(t *testing.T) {
	d := &Dispatcher{Log: zerolog.Nop()}

	resp := d.Dispatch(context.Background(), &discord.Interaction{Type: discord.InteractionTypePing})
	assert.Equal(t, discord.ResponsePong, resp.Type)
	assert.Nil(t, resp.Data)
}

func TestDispatchRoutesBySubtype(t *testing.T) {
	var got []string
	record := func(kind string) HandlerFunc {
		return func(context.Context, *discord.Interaction) (*discord.InteractionResponse, error) {
			got = append(got, kind)
			return Message(kind), nil
		}
	}
	d := &Dispatcher{
		OnCommand:   record("command"),
		OnComponent: record("component"),
		OnModal:     record("modal"),
		Log:         zerolog.Nop(),
	}

	for _, kind := range []int{
		discord.InteractionTypeApplicationCommand,
		discord.InteractionTypeMessageComponent,
		discord.InteractionTypeModalSubmit,
	} {
		resp := d.Dispatch(context.Background(), &discord.Interaction{Type: kind})
		require.Equal(t, discord.ResponseChannelMessage, resp.Type)
	}
	assert.Equal(t, []string{"command", "component", "modal"}, got)
}

func TestDispatchEchoesRejectionsToInvoker(t *testing.T) {
	d := &Dispatcher{
		OnCommand: func(context.Context, *discord.Interaction) (*discord.InteractionResponse, error) {
			return nil, reject("Unknown command")
		},
		Log: zerolog.Nop(),
	}

	resp := d.Dispatch(context.Background(), &discord.Interaction{Type: discord.InteractionTypeApplicationCommand})
	require.Equal(t, discord.ResponseChannelMessage, resp.Type)
	assert.Equal(t, "Unknown command", resp.Data.Content)
	assert.Equal(t, discord.FlagEphemeral, resp.Data.Flags)
}

func TestDispatchHidesInternalErrors(t *testing.T) {
	d := &Dispatcher{
		OnModal: func(context.Context, *discord.Interaction) (*discord.InteractionResponse, error) {
			return nil, errors.New("pq: connection refused")
		},
		Log: zerolog.Nop(),
	}

	resp := d.Dispatch(context.Background(), &discord.Interaction{Type: discord.InteractionTypeModalSubmit})
	require.Equal(t, discord.ResponseChannelMessage, resp.Type)
	assert.NotContains(t, resp.Data.Content, "pq:")
	assert.Equal(t, discord.FlagEphemeral, resp.Data.Flags)
}

func TestDispatchWithoutHandlerFallsBackToPong(t *testing.T) {
	d := &Dispatcher{Log: zerolog.Nop()}

	resp := d.Dispatch(context.Background(), &discord.Interaction{Type: discord.InteractionTypeApplicationCommand})
	assert.Equal(t, discord.ResponsePong, resp.Type)
}
