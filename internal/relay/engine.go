// Package relay implements the ticket state machine: find-or-create
// mappings between user DMs and staff forum threads, message mirroring
// in both directions, edit propagation, and recovery when the remote
// thread disappears out from under a stored ticket.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/metrics"
	"github.com/randomairborne/aghast/internal/snowflake"
	"github.com/randomairborne/aghast/internal/store"
)

// ErrNoCounterpart is returned when an edited message has no stored
// mirror to propagate to.
var ErrNoCounterpart = errors.New("no counterpart for message")

// Staff commands recognized inside a ticket thread.
const (
	cmdHelp        = "!help"
	cmdClose       = "!close"
	cmdReplyPrefix = "!r "
)

const helpText = "`!r <message>` replies to the user, `!close` closes the ticket, and `!help` shows this text. Everything else stays staff-only."

const maxThreadNameLength = 100

const ackEmoji = "✅"

// Tickets is the slice of the ticket store the engine needs.
type Tickets interface {
	Add(ctx context.Context, dm, thread snowflake.ID) (*store.Ticket, error)
	ByDM(ctx context.Context, dm snowflake.ID) (*store.Ticket, error)
	ByThread(ctx context.Context, thread snowflake.ID) (*store.Ticket, error)
	Delete(ctx context.Context, thread snowflake.ID) error
}

// Counterparts is the slice of the counterpart store the engine needs.
type Counterparts interface {
	Add(ctx context.Context, pair store.MessagePair) (*store.MessagePair, error)
	ByMessage(ctx context.Context, message snowflake.ID) (*store.MessagePair, error)
}

// API is the slice of the REST client the engine needs.
type API interface {
	CreateMessage(ctx context.Context, channel snowflake.ID, params discord.CreateMessageParams) (*discord.Message, error)
	EditMessage(ctx context.Context, channel, message snowflake.ID, params discord.EditMessageParams) (*discord.Message, error)
	CreateReaction(ctx context.Context, channel, message snowflake.ID, emoji string) error
	StartForumThread(ctx context.Context, channel snowflake.ID, params discord.StartForumThreadParams) (*discord.ForumThread, error)
}

// Config carries the statically configured relay endpoints and notices.
type Config struct {
	ForumChannel snowflake.ID
	Guild        snowflake.ID
	OpenMessage  string
	CloseMessage string
}

// Engine applies relay semantics to gateway events. It holds no ticket
// state of its own; every decision starts from a store lookup.
type Engine struct {
	Tickets      Tickets
	Counterparts Counterparts
	API          API
	Config       Config
	Log          zerolog.Logger
}

// HandleMessageCreate routes a new message by origin: DMs feed the
// user-to-staff direction, guild messages are checked for staff commands.
func (e *Engine) HandleMessageCreate(ctx context.Context, msg *discord.Message) error {
	if msg.Author.Bot {
		return nil
	}
	if msg.GuildID.IsZero() {
		return e.handleDM(ctx, msg)
	}
	if msg.GuildID != e.Config.Guild {
		return nil
	}
	return e.handleThreadMessage(ctx, msg)
}

func (e *Engine) handleDM(ctx context.Context, msg *discord.Message) error {
	ticket, err := e.Tickets.ByDM(ctx, msg.ChannelID)
	if errors.Is(err, store.ErrNotFound) {
		return e.openTicket(ctx, msg)
	}
	if err != nil {
		return err
	}
	return e.mirrorToThread(ctx, ticket, msg)
}

// openTicket creates the staff thread with the first message already in
// it, persists the mapping, then finishes the ceremony: greeting the
// user, recording the counterpart, and acknowledging the DM.
func (e *Engine) openTicket(ctx context.Context, msg *discord.Message) error {
	thread, err := e.API.StartForumThread(ctx, e.Config.ForumChannel, discord.StartForumThreadParams{
		Name: threadName(msg.Author),
		Message: discord.ForumThreadMessageParams{
			Content:    mirrorContent(msg),
			Components: AttachmentRows(msg.Attachments),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start ticket thread: %w", err)
	}
	if thread.Message == nil {
		return fmt.Errorf("thread %s was created without its starter message", thread.ID)
	}

	ticket, err := e.Tickets.Add(ctx, msg.ChannelID, thread.ID)
	if err != nil {
		return err
	}
	metrics.TicketsOpened.Inc()
	e.Log.Info().
		Stringer("dm", ticket.DM).
		Stringer("thread", ticket.Thread).
		Str("author", msg.Author.Tag()).
		Msg("ticket opened")

	// Best-effort greeting; the ticket already exists if this fails.
	if _, err := e.API.CreateMessage(ctx, msg.ChannelID, discord.CreateMessageParams{
		Content: e.Config.OpenMessage,
	}); err != nil {
		e.Log.Warn().Err(err).Stringer("dm", msg.ChannelID).Msg("failed to send open notice")
	}

	if _, err := e.Counterparts.Add(ctx, store.MessagePair{
		DMChannel:     msg.ChannelID,
		DMMessage:     msg.ID,
		ThreadChannel: thread.ID,
		ThreadMessage: thread.Message.ID,
	}); err != nil {
		return err
	}

	e.acknowledge(ctx, msg)
	return nil
}

// mirrorToThread copies a DM message into its ticket thread. A not-found
// response means the thread was deleted behind our back: the stale row
// is dropped and the message takes the fresh-ticket path instead.
func (e *Engine) mirrorToThread(ctx context.Context, ticket *store.Ticket, msg *discord.Message) error {
	sent, err := e.API.CreateMessage(ctx, ticket.Thread, discord.CreateMessageParams{
		Content:    mirrorContent(msg),
		Components: AttachmentRows(msg.Attachments),
	})
	if err != nil {
		if discord.IsUnknownChannel(err) {
			metrics.TicketSelfHeals.Inc()
			e.Log.Info().
				Stringer("dm", ticket.DM).
				Stringer("thread", ticket.Thread).
				Msg("ticket thread vanished, reopening")
			if err := e.Tickets.Delete(ctx, ticket.Thread); err != nil {
				return err
			}
			return e.openTicket(ctx, msg)
		}
		return fmt.Errorf("failed to mirror message to thread: %w", err)
	}
	metrics.MessagesMirrored.WithLabelValues("dm_to_thread").Inc()

	if _, err := e.Counterparts.Add(ctx, store.MessagePair{
		DMChannel:     msg.ChannelID,
		DMMessage:     msg.ID,
		ThreadChannel: ticket.Thread,
		ThreadMessage: sent.ID,
	}); err != nil {
		return err
	}

	e.acknowledge(ctx, msg)
	return nil
}

// handleThreadMessage runs staff commands inside ticket threads. Command
// failures are reported back into the thread instead of bubbling up, so
// one broken command cannot poison the event stream.
func (e *Engine) handleThreadMessage(ctx context.Context, msg *discord.Message) error {
	ticket, err := e.Tickets.ByThread(ctx, msg.ChannelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := e.runStaffCommand(ctx, ticket, msg); err != nil {
		e.Log.Warn().Err(err).Stringer("thread", msg.ChannelID).Msg("staff command failed")
		if _, sendErr := e.API.CreateMessage(ctx, msg.ChannelID, discord.CreateMessageParams{
			Content:   fmt.Sprintf("Error handling command: %s", err),
			Reference: &discord.MessageReference{MessageID: msg.ID},
		}); sendErr != nil {
			e.Log.Error().Err(sendErr).Stringer("thread", msg.ChannelID).Msg("failed to report command error")
		}
	}
	return nil
}

func (e *Engine) runStaffCommand(ctx context.Context, ticket *store.Ticket, msg *discord.Message) error {
	switch {
	case msg.Content == cmdHelp:
		_, err := e.API.CreateMessage(ctx, msg.ChannelID, discord.CreateMessageParams{
			Content:   helpText,
			Reference: &discord.MessageReference{MessageID: msg.ID},
		})
		return err
	case msg.Content == cmdClose:
		if err := e.closeTicket(ctx, ticket); err != nil {
			return err
		}
		_, err := e.API.CreateMessage(ctx, msg.ChannelID, discord.CreateMessageParams{
			Content: "Ticket closed.",
		})
		return err
	case strings.HasPrefix(msg.Content, cmdReplyPrefix):
		return e.relayReply(ctx, ticket, msg)
	default:
		// Staff chatter that is not a command stays in the thread.
		return nil
	}
}

// relayReply mirrors a staff !r message into the user's DM.
func (e *Engine) relayReply(ctx context.Context, ticket *store.Ticket, msg *discord.Message) error {
	sent, err := e.API.CreateMessage(ctx, ticket.DM, discord.CreateMessageParams{
		Content:    strings.TrimPrefix(msg.Content, cmdReplyPrefix),
		Components: AttachmentRows(msg.Attachments),
	})
	if err != nil {
		return fmt.Errorf("failed to relay reply to dm: %w", err)
	}
	metrics.MessagesMirrored.WithLabelValues("thread_to_dm").Inc()

	if _, err := e.Counterparts.Add(ctx, store.MessagePair{
		DMChannel:     ticket.DM,
		DMMessage:     sent.ID,
		ThreadChannel: msg.ChannelID,
		ThreadMessage: msg.ID,
	}); err != nil {
		return err
	}

	e.acknowledge(ctx, msg)
	return nil
}

// closeTicket drops the mapping and tells the user. The DM notice is
// best-effort: the user may have blocked the bot or left entirely.
func (e *Engine) closeTicket(ctx context.Context, ticket *store.Ticket) error {
	if err := e.Tickets.Delete(ctx, ticket.Thread); err != nil {
		return err
	}
	metrics.TicketsClosed.Inc()
	e.Log.Info().
		Stringer("dm", ticket.DM).
		Stringer("thread", ticket.Thread).
		Msg("ticket closed")

	if _, err := e.API.CreateMessage(ctx, ticket.DM, discord.CreateMessageParams{
		Content: e.Config.CloseMessage,
	}); err != nil {
		e.Log.Warn().Err(err).Stringer("dm", ticket.DM).Msg("failed to send close notice")
	}
	return nil
}

// HandleMessageUpdate propagates an edit to the counterpart message.
// Bot-authored edits are skipped so our own propagation cannot loop.
func (e *Engine) HandleMessageUpdate(ctx context.Context, msg *discord.Message) error {
	if msg.Author.Bot {
		return nil
	}
	if msg.Content == "" {
		// Embed and flag updates arrive without content. Nothing to copy.
		return nil
	}

	pair, err := e.Counterparts.ByMessage(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoCounterpart, msg.ID)
	}
	if err != nil {
		return err
	}

	if pair.DMMessage == msg.ID {
		if _, err := e.API.EditMessage(ctx, pair.ThreadChannel, pair.ThreadMessage, discord.EditMessageParams{
			Content: mirrorContent(msg),
		}); err != nil {
			return fmt.Errorf("failed to propagate dm edit: %w", err)
		}
		metrics.EditsPropagated.WithLabelValues("dm_to_thread").Inc()
		return nil
	}

	if _, err := e.API.EditMessage(ctx, pair.DMChannel, pair.DMMessage, discord.EditMessageParams{
		Content: strings.TrimPrefix(msg.Content, cmdReplyPrefix),
	}); err != nil {
		return fmt.Errorf("failed to propagate thread edit: %w", err)
	}
	metrics.EditsPropagated.WithLabelValues("thread_to_dm").Inc()
	return nil
}

// HandleThreadDelete closes the ticket for a deleted thread.
func (e *Engine) HandleThreadDelete(ctx context.Context, channel *discord.Channel) error {
	if channel.ParentID != e.Config.ForumChannel {
		return nil
	}
	ticket, err := e.Tickets.ByThread(ctx, channel.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.closeTicket(ctx, ticket)
}

// HandleThreadUpdate closes the ticket when its thread is archived or
// locked. Other thread updates are ignored.
func (e *Engine) HandleThreadUpdate(ctx context.Context, channel *discord.Channel) error {
	if channel.ParentID != e.Config.ForumChannel {
		return nil
	}
	if channel.ThreadMetadata == nil {
		return nil
	}
	if !channel.ThreadMetadata.Archived && !channel.ThreadMetadata.Locked {
		return nil
	}
	ticket, err := e.Tickets.ByThread(ctx, channel.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.closeTicket(ctx, ticket)
}

// acknowledge reacts to a relayed message. Failure only costs the
// checkmark, so it is logged and dropped.
func (e *Engine) acknowledge(ctx context.Context, msg *discord.Message) {
	if err := e.API.CreateReaction(ctx, msg.ChannelID, msg.ID, ackEmoji); err != nil {
		e.Log.Warn().Err(err).Stringer("message", msg.ID).Msg("failed to add ack reaction")
	}
}

func threadName(author discord.User) string {
	name := author.Tag()
	runes := []rune(name)
	if len(runes) > maxThreadNameLength {
		name = string(runes[:maxThreadNameLength])
	}
	return name
}

// mirrorContent prefixes relayed DM content with the author mention so
// staff can see who is talking, clamped to the platform message limit.
func mirrorContent(msg *discord.Message) string {
	content := msg.Author.Mention() + ": " + msg.Content
	runes := []rune(content)
	if len(runes) > discord.MaxMessageLength {
		content = string(runes[:discord.MaxMessageLength])
	}
	return content
}
