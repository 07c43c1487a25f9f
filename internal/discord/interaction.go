package discord

import (
	"encoding/json"
	"fmt"

	"github.com/randomairborne/aghast/internal/snowflake"
)

// Interaction types, as delivered on the webhook endpoint.
const (
	InteractionTypePing               = 1
	InteractionTypeApplicationCommand = 2
	InteractionTypeMessageComponent   = 3
	InteractionTypeModalSubmit        = 5
)

// Interaction response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
	ResponseModal          = 9
)

// FlagEphemeral marks a response message visible only to the invoker.
const FlagEphemeral = 1 << 6

// Interaction is the signed request envelope. Data stays raw until the
// type is known; the extraction layer decodes it.
type Interaction struct {
	ID            snowflake.ID    `json:"id"`
	ApplicationID snowflake.ID    `json:"application_id"`
	Type          int             `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	GuildID       snowflake.ID    `json:"guild_id"`
	ChannelID     snowflake.ID    `json:"channel_id"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Token         string          `json:"token"`
}

// CommandData is the payload of a slash-command invocation.
type CommandData struct {
	ID      snowflake.ID    `json:"id"`
	Name    string          `json:"name"`
	Options []CommandOption `json:"options"`
}

// CommandOption is one free-form option value. Value stays raw; the
// accessors coerce it.
type CommandOption struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value"`
}

// StringValue decodes the option as text. Channel, user, and role
// options also arrive as strings (snowflakes in decimal).
func (o CommandOption) StringValue() (string, error) {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", fmt.Errorf("option %s is not a string: %w", o.Name, err)
	}
	return s, nil
}

// SnowflakeValue decodes the option as an ID.
func (o CommandOption) SnowflakeValue() (snowflake.ID, error) {
	s, err := o.StringValue()
	if err != nil {
		return 0, err
	}
	id, err := snowflake.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", o.Name, err)
	}
	return id, nil
}

// ComponentData is the payload of a button press or select choice.
type ComponentData struct {
	CustomID      string   `json:"custom_id"`
	ComponentType int      `json:"component_type"`
	Values        []string `json:"values"`
}

// ModalData is the payload of a form submission. Components mirror the
// rows the modal was opened with, each text input carrying its Value.
type ModalData struct {
	CustomID   string      `json:"custom_id"`
	Components []Component `json:"components"`
}

// InteractionResponse is what the webhook endpoint answers with.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

// InteractionResponseData covers message responses (Content, Flags,
// Embeds) and modal responses (CustomID, Title, Components).
type InteractionResponseData struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Title      string      `json:"title,omitempty"`
}
