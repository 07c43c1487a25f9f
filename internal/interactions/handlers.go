package interactions

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/customid"
	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/snowflake"
)

// RPC names carried in component and modal custom IDs.
const (
	cidReport     = "report"
	cidReportUser = "report_user"
	cidOpenResp   = "open_resp"
)

const defaultPrompt = "Need to reach the moderators? Use the button below."

// MessagePoster is the slice of the REST client the handlers need.
type MessagePoster interface {
	CreateMessage(ctx context.Context, channel snowflake.ID, params discord.CreateMessageParams) (*discord.Message, error)
}

// App implements the reporting-form flows behind the dispatcher.
type App struct {
	API MessagePoster
	Log zerolog.Logger
}

// HandleCommand routes application commands by name.
func (a *App) HandleCommand(ctx context.Context, i *discord.Interaction) (*discord.InteractionResponse, error) {
	data, err := CommandData(i)
	if err != nil {
		return nil, err
	}

	switch data.Name {
	case "report-setup":
		return a.handleSetup(ctx, i, data)
	default:
		return nil, reject("Unknown command")
	}
}

// handleSetup posts the persistent report prompt into the invoking
// channel. The button and the user picker both carry the configured
// destination channel in their custom IDs.
func (a *App) handleSetup(ctx context.Context, i *discord.Interaction, data *discord.CommandData) (*discord.InteractionResponse, error) {
	cmd, err := ParseSetupCommand(data)
	if err != nil {
		return nil, err
	}

	prompt := cmd.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}

	dest := cmd.Channel.String()
	components := []discord.Component{
		discord.ActionRow(discord.Component{
			Type:     discord.ComponentTypeButton,
			Style:    discord.ButtonStylePrimary,
			Label:    "Report",
			CustomID: customid.Encode(cidReport, dest),
		}),
		discord.ActionRow(discord.Component{
			Type:        discord.ComponentTypeUserSelect,
			CustomID:    customid.Encode(cidReportUser, dest),
			Placeholder: "Report a specific user",
		}),
	}

	if _, err := a.API.CreateMessage(ctx, i.ChannelID, discord.CreateMessageParams{
		Content:    prompt,
		Components: components,
	}); err != nil {
		return nil, fmt.Errorf("failed to post report prompt: %w", err)
	}

	a.Log.Info().
		Stringer("channel", i.ChannelID).
		Stringer("destination", cmd.Channel).
		Msg("report prompt posted")
	return EphemeralMessage("Report prompt posted."), nil
}

// HandleComponent opens the report modal when the prompt's button or
// user picker is activated.
func (a *App) HandleComponent(_ context.Context, i *discord.Interaction) (*discord.InteractionResponse, error) {
	data, err := ComponentData(i)
	if err != nil {
		return nil, err
	}
	name, args, err := customid.Decode(data.CustomID)
	if err != nil {
		return nil, rejectWrap("No name in data", err)
	}

	switch name {
	case cidReport:
		var dest snowflake.ID
		if err := customid.Scan(args, &dest); err != nil {
			return nil, rejectWrap("Arguments could not be parsed", err)
		}
		return reportModal(dest, 0), nil
	case cidReportUser:
		var dest snowflake.ID
		if err := customid.Scan(args, &dest); err != nil {
			return nil, rejectWrap("Arguments could not be parsed", err)
		}
		reported, _ := Optional(SelectedUser(data))
		return reportModal(dest, reported), nil
	default:
		return nil, reject("Unknown component")
	}
}

// HandleModal delivers a submitted report to its destination channel.
func (a *App) HandleModal(ctx context.Context, i *discord.Interaction) (*discord.InteractionResponse, error) {
	member, err := Member(i)
	if err != nil {
		return nil, err
	}
	data, err := ModalData(i)
	if err != nil {
		return nil, err
	}
	name, args, err := customid.Decode(data.CustomID)
	if err != nil {
		return nil, rejectWrap("No name in data", err)
	}
	if name != cidOpenResp {
		return nil, reject("Unknown form")
	}

	var (
		dest     snowflake.ID
		reported snowflake.ID
	)
	switch len(args) {
	case 1:
		err = customid.Scan(args, &dest)
	case 2:
		err = customid.Scan(args, &dest, &reported)
	default:
		err = customid.Scan(args, &dest)
	}
	if err != nil {
		return nil, rejectWrap("Arguments could not be parsed", err)
	}

	values := TextValues(data)
	reportedField := values["user_id"]
	if !reported.IsZero() {
		reportedField = fmt.Sprintf("<@%s>", reported)
	}

	embed := discord.Embed{
		Title: "New report",
		Author: &discord.EmbedAuthor{
			Name: member.DisplayName(),
		},
		Fields: []discord.EmbedField{
			{Name: "Reported user", Value: reportedField},
			{Name: "Message link", Value: values["message_link"]},
			{Name: "Channel", Value: values["channel"]},
			{Name: "Reason", Value: values["reason"]},
		},
	}

	if _, err := a.API.CreateMessage(ctx, dest, discord.CreateMessageParams{
		Embeds: []discord.Embed{embed},
	}); err != nil {
		return nil, fmt.Errorf("failed to deliver report: %w", err)
	}

	a.Log.Info().Stringer("destination", dest).Msg("report delivered")
	return EphemeralMessage("Your report has been submitted. Thank you!"), nil
}

func textInput(customID, label, placeholder string, style int) discord.Component {
	required := true
	return discord.Component{
		Type:        discord.ComponentTypeTextInput,
		CustomID:    customID,
		Label:       label,
		Placeholder: placeholder,
		Required:    &required,
		Style:       style,
	}
}

// reportModal builds the ModMail form. When the reporter already picked
// a user, the free-text user field is dropped and the selection rides
// along in the custom ID instead.
func reportModal(dest, reported snowflake.ID) *discord.InteractionResponse {
	inputs := []discord.Component{
		textInput(
			"user_id",
			"User(s) you are reporting (please provide ID if you can)",
			"wumpus",
			discord.TextInputShort,
		),
		textInput(
			"message_link",
			"Message link",
			"https://discord.com/channels/302094807046684672/768594508287311882/768594834231132222",
			discord.TextInputShort,
		),
		textInput("channel", "Channel name", "#minecraft", discord.TextInputShort),
		textInput(
			"reason",
			"Reason for reporting (what happened?)",
			"User is being overly rude",
			discord.TextInputParagraph,
		),
	}

	customID := customid.Encode(cidOpenResp, dest.String())
	if !reported.IsZero() {
		inputs = inputs[1:]
		customID = customid.Encode(cidOpenResp, dest.String(), reported.String())
	}
	return Modal(customID, "ModMail Form", inputs...)
}
