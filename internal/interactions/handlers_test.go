package interactions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/snowflake"
)

type postedMessage struct {
	channel snowflake.ID
	params  discord.CreateMessageParams
}

type fakePoster struct {
	posted []postedMessage
	err    error
}

func (f *fakePoster) CreateMessage(_ context.Context, channel snowflake.ID, params discord.CreateMessageParams) (*discord.Message, error) {
	f.posted = append(f.posted, postedMessage{channel: channel, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return &discord.Message{ID: 999, ChannelID: channel}, nil
}

func newTestApp() (*App, *fakePoster) {
	poster := &fakePoster{}
	return &App{API: poster, Log: zerolog.Nop()}, poster
}

// modalInputIDs collects the text input custom IDs of a modal response
// in row order.
func modalInputIDs(t *testing.T, resp *discord.InteractionResponse) []string {
	t.Helper()
	require.Equal(t, discord.ResponseModal, resp.Type)
	var ids []string
	for _, row := range resp.Data.Components {
		require.Equal(t, discord.ComponentTypeActionRow, row.Type)
		require.Len(t, row.Components, 1)
		ids = append(ids, row.Components[0].CustomID)
	}
	return ids
}

func TestSetupCommandPostsPrompt(t *testing.T) {
	app, poster := newTestApp()

	i := commandInteraction("report-setup",
		`[{"name":"channel","type":7,"value":"555"},{"name":"prompt","type":3,"value":"See something? Say something."}]`)
	i.ChannelID = snowflake.ID(42)

	resp, err := app.HandleCommand(context.Background(), i)
	require.NoError(t, err)
	assert.Equal(t, discord.ResponseChannelMessage, resp.Type)
	assert.Equal(t, discord.FlagEphemeral, resp.Data.Flags)

	require.Len(t, poster.posted, 1)
	msg := poster.posted[0]
	assert.Equal(t, snowflake.ID(42), msg.channel, "prompt goes to the invoking channel")
	assert.Equal(t, "See something? Say something.", msg.params.Content)

	require.Len(t, msg.params.Components, 2)
	button := msg.params.Components[0].Components[0]
	assert.Equal(t, discord.ComponentTypeButton, button.Type)
	assert.Equal(t, "report:555", button.CustomID)

	picker := msg.params.Components[1].Components[0]
	assert.Equal(t, discord.ComponentTypeUserSelect, picker.Type)
	assert.Equal(t, "report_user:555", picker.CustomID)
}

func TestSetupCommandUsesDefaultPrompt(t *testing.T) {
	app, poster := newTestApp()

	i := commandInteraction("report-setup", `[{"name":"channel","type":7,"value":"555"}]`)
	i.ChannelID = snowflake.ID(42)

	_, err := app.HandleCommand(context.Background(), i)
	require.NoError(t, err)
	require.Len(t, poster.posted, 1)
	assert.Equal(t, defaultPrompt, poster.posted[0].params.Content)
}

func TestUnknownCommandIsRejected(t *testing.T) {
	app, _ := newTestApp()

	_, err := app.HandleCommand(context.Background(), commandInteraction("frobnicate", `[]`))
	requireRejection(t, err, "Unknown command")
}

func TestReportButtonOpensFullModal(t *testing.T) {
	app, _ := newTestApp()

	resp, err := app.HandleComponent(context.Background(), componentInteraction(t, "report:555"))
	require.NoError(t, err)

	assert.Equal(t, "open_resp:555", resp.Data.CustomID)
	assert.Equal(t, "ModMail Form", resp.Data.Title)
	assert.Equal(t, []string{"user_id", "message_link", "channel", "reason"}, modalInputIDs(t, resp))
}

func TestReportUserPickerDropsUserField(t *testing.T) {
	app, _ := newTestApp()

	resp, err := app.HandleComponent(context.Background(), componentInteraction(t, "report_user:555", "777"))
	require.NoError(t, err)

	assert.Equal(t, "open_resp:555:777", resp.Data.CustomID)
	assert.Equal(t, []string{"message_link", "channel", "reason"}, modalInputIDs(t, resp))
}

func TestReportUserPickerWithoutSelectionKeepsUserField(t *testing.T) {
	app, _ := newTestApp()

	resp, err := app.HandleComponent(context.Background(), componentInteraction(t, "report_user:555"))
	require.NoError(t, err)

	assert.Equal(t, "open_resp:555", resp.Data.CustomID)
	assert.Equal(t, []string{"user_id", "message_link", "channel", "reason"}, modalInputIDs(t, resp))
}

func TestUnknownComponentIsRejected(t *testing.T) {
	app, _ := newTestApp()

	_, err := app.HandleComponent(context.Background(), componentInteraction(t, "mystery:1"))
	requireRejection(t, err, "Unknown component")
}

func TestModalSubmissionDeliversReport(t *testing.T) {
	app, poster := newTestApp()

	i := modalInteraction(t, "open_resp:555", map[string]string{
		"user_id":      "wumpus#0001",
		"message_link": "https://discord.com/channels/1/2/3",
		"channel":      "#general",
		"reason":       "spamming invites",
	})
	i.Member = &discord.Member{Nick: "reporter"}

	resp, err := app.HandleModal(context.Background(), i)
	require.NoError(t, err)
	assert.Equal(t, discord.FlagEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "Thank you")

	require.Len(t, poster.posted, 1)
	msg := poster.posted[0]
	assert.Equal(t, snowflake.ID(555), msg.channel)
	require.Len(t, msg.params.Embeds, 1)

	embed := msg.params.Embeds[0]
	assert.Equal(t, "New report", embed.Title)
	assert.Equal(t, "reporter", embed.Author.Name)

	fields := make(map[string]string)
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "wumpus#0001", fields["Reported user"])
	assert.Equal(t, "https://discord.com/channels/1/2/3", fields["Message link"])
	assert.Equal(t, "#general", fields["Channel"])
	assert.Equal(t, "spamming invites", fields["Reason"])
}

func TestModalSubmissionUsesPreselectedUser(t *testing.T) {
	app, poster := newTestApp()

	i := modalInteraction(t, "open_resp:555:777", map[string]string{
		"message_link": "https://discord.com/channels/1/2/3",
		"channel":      "#general",
		"reason":       "harassment",
	})
	i.Member = &discord.Member{User: &discord.User{Username: "reporter"}}

	_, err := app.HandleModal(context.Background(), i)
	require.NoError(t, err)
	require.Len(t, poster.posted, 1)

	embed := poster.posted[0].params.Embeds[0]
	fields := make(map[string]string)
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "<@777>", fields["Reported user"])
}

func TestModalSubmissionRequiresMember(t *testing.T) {
	app, poster := newTestApp()

	i := modalInteraction(t, "open_resp:555", map[string]string{"reason": "spam"})

	_, err := app.HandleModal(context.Background(), i)
	requireRejection(t, err, "Discord did not send a member on this interaction")
	assert.Empty(t, poster.posted, "nothing is delivered without a member")
}

func TestModalSubmissionReportsDeliveryFailure(t *testing.T) {
	app, poster := newTestApp()
	poster.err = errors.New("channel gone")

	i := modalInteraction(t, "open_resp:555", map[string]string{"reason": "spam"})
	i.Member = &discord.Member{Nick: "reporter"}

	_, err := app.HandleModal(context.Background(), i)
	require.Error(t, err)

	var rejection *Rejection
	assert.False(t, errors.As(err, &rejection), "delivery failures are faults, not rejections")
}

func TestCommandsDeclareSetup(t *testing.T) {
	commands := Commands()
	require.Len(t, commands, 1)

	setup := commands[0]
	assert.Equal(t, "report-setup", setup.Name)
	assert.Equal(t, discord.PermissionManageGuild, setup.DefaultMemberPermissions)

	raw, err := json.Marshal(setup)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dm_permission":false`)
}
