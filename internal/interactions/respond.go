package interactions

import "github.com/randomairborne/aghast/internal/discord"

// Pong acknowledges a keepalive interaction with no payload.
func Pong() *discord.InteractionResponse {
	return &discord.InteractionResponse{Type: discord.ResponsePong}
}

// Message responds with an immediate channel message.
func Message(content string) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionResponseData{Content: content},
	}
}

// EphemeralMessage responds with a message only the invoker can see.
func EphemeralMessage(content string) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionResponseData{
			Content: content,
			Flags:   discord.FlagEphemeral,
		},
	}
}

// Modal responds with a form. Each input is wrapped in its own action
// row; the platform rejects bare inputs.
func Modal(customID, title string, inputs ...discord.Component) *discord.InteractionResponse {
	rows := make([]discord.Component, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, discord.ActionRow(input))
	}
	return &discord.InteractionResponse{
		Type: discord.ResponseModal,
		Data: &discord.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	}
}
