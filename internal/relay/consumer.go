package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/metrics"
)

// Consumer drains the gateway event stream, running each event on its
// own goroutine so a slow database round trip cannot stall the stream.
type Consumer struct {
	Engine *Engine
	Log    zerolog.Logger

	wg sync.WaitGroup
}

// Run consumes events until the channel closes, then waits for all
// in-flight handlers to finish. Handlers run on ctx stripped of its
// cancellation: shutdown ends intake by closing the stream, and a
// handler that has already started finishes its API and store work.
func (c *Consumer) Run(ctx context.Context, events <-chan discord.Event) {
	ctx = context.WithoutCancel(ctx)
	for event := range events {
		c.wg.Add(1)
		go func(event discord.Event) {
			defer c.wg.Done()
			c.handle(ctx, event)
		}(event)
	}
	c.wg.Wait()
}

func (c *Consumer) handle(ctx context.Context, event discord.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.Log.Error().Interface("panic", r).Str("event", event.Type).Msg("event handler panicked")
		}
	}()
	metrics.GatewayEvents.WithLabelValues(event.Type).Inc()

	var err error
	switch event.Type {
	case discord.EventMessageCreate:
		var msg discord.Message
		if err = json.Unmarshal(event.Data, &msg); err == nil {
			err = c.Engine.HandleMessageCreate(ctx, &msg)
		}
	case discord.EventMessageUpdate:
		var msg discord.Message
		if err = json.Unmarshal(event.Data, &msg); err == nil {
			err = c.Engine.HandleMessageUpdate(ctx, &msg)
		}
	case discord.EventThreadDelete:
		var channel discord.Channel
		if err = json.Unmarshal(event.Data, &channel); err == nil {
			err = c.Engine.HandleThreadDelete(ctx, &channel)
		}
	case discord.EventThreadUpdate:
		var channel discord.Channel
		if err = json.Unmarshal(event.Data, &channel); err == nil {
			err = c.Engine.HandleThreadUpdate(ctx, &channel)
		}
	default:
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrNoCounterpart):
		// Edits to unmirrored messages are routine, not faults.
		c.Log.Debug().Err(err).Msg("edit without counterpart")
	default:
		c.Log.Error().Err(err).Str("event", event.Type).Msg("event handler failed")
	}
}
