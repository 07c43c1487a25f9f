package interactions

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/metrics"
)

// HandlerFunc is a typed business handler for one interaction subtype.
type HandlerFunc func(ctx context.Context, i *discord.Interaction) (*discord.InteractionResponse, error)

// Dispatcher routes verified interactions to their handlers and converts
// every outcome into a response the platform will accept. Rejections are
// echoed to the invoker; anything else is logged and replaced with a
// generic apology, because the platform only retries on transport errors.
type Dispatcher struct {
	OnCommand   HandlerFunc
	OnComponent HandlerFunc
	OnModal     HandlerFunc
	Log         zerolog.Logger
}

// Dispatch never fails: unknown subtypes are acknowledged with a pong.
func (d *Dispatcher) Dispatch(ctx context.Context, i *discord.Interaction) *discord.InteractionResponse {
	var (
		kind    string
		handler HandlerFunc
	)
	switch i.Type {
	case discord.InteractionTypeApplicationCommand:
		kind, handler = "command", d.OnCommand
	case discord.InteractionTypeMessageComponent:
		kind, handler = "component", d.OnComponent
	case discord.InteractionTypeModalSubmit:
		kind, handler = "modal", d.OnModal
	default:
		metrics.InteractionsHandled.WithLabelValues("ping").Inc()
		return Pong()
	}
	metrics.InteractionsHandled.WithLabelValues(kind).Inc()

	if handler == nil {
		return Pong()
	}

	resp, err := handler(ctx, i)
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			d.Log.Debug().
				Err(rejection.Unwrap()).
				Str("kind", kind).
				Str("reason", rejection.Message).
				Msg("interaction rejected")
			return EphemeralMessage(rejection.Message)
		}
		d.Log.Error().Err(err).Str("kind", kind).Msg("interaction handler failed")
		return EphemeralMessage("Something went wrong handling this interaction.")
	}
	if resp == nil {
		return Pong()
	}
	return resp
}
