package interactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/randomairborne/aghast/internal/customid"
	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/snowflake"
)

// Rejection is an extraction failure whose message is shown to the
// invoking user. Err carries the underlying cause for logs; only Message
// ever leaves the process.
type Rejection struct {
	Message string
	Err     error
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Err }

func reject(message string) *Rejection {
	return &Rejection{Message: message}
}

func rejectWrap(message string, err error) *Rejection {
	return &Rejection{Message: message, Err: err}
}

// CommandData extracts the application-command payload from an interaction.
func CommandData(i *discord.Interaction) (*discord.CommandData, error) {
	if i.Type != discord.InteractionTypeApplicationCommand {
		return nil, reject("Wrong type of interaction data")
	}
	if len(i.Data) == 0 {
		return nil, reject("No interaction data")
	}
	var data discord.CommandData
	if err := json.Unmarshal(i.Data, &data); err != nil {
		return nil, rejectWrap("Arguments could not be parsed", err)
	}
	return &data, nil
}

// ComponentData extracts the message-component payload from an interaction.
func ComponentData(i *discord.Interaction) (*discord.ComponentData, error) {
	if i.Type != discord.InteractionTypeMessageComponent {
		return nil, reject("Wrong type of interaction data")
	}
	if len(i.Data) == 0 {
		return nil, reject("No interaction data")
	}
	var data discord.ComponentData
	if err := json.Unmarshal(i.Data, &data); err != nil {
		return nil, rejectWrap("Arguments could not be parsed", err)
	}
	return &data, nil
}

// ModalData extracts the form-submission payload from an interaction.
func ModalData(i *discord.Interaction) (*discord.ModalData, error) {
	if i.Type != discord.InteractionTypeModalSubmit {
		return nil, reject("Wrong type of interaction data")
	}
	if len(i.Data) == 0 {
		return nil, reject("No interaction data")
	}
	var data discord.ModalData
	if err := json.Unmarshal(i.Data, &data); err != nil {
		return nil, rejectWrap("Arguments could not be parsed", err)
	}
	return &data, nil
}

// Member extracts the guild member attached to an interaction. Interactions
// arriving outside a guild carry no member and are cleanly rejected.
func Member(i *discord.Interaction) (*discord.Member, error) {
	if i.Member == nil {
		return nil, reject("Discord did not send a member on this interaction")
	}
	return i.Member, nil
}

// CustomID extracts and decodes the RPC identifier from a component or
// modal interaction.
func CustomID(i *discord.Interaction) (string, []string, error) {
	var raw string
	switch i.Type {
	case discord.InteractionTypeMessageComponent:
		data, err := ComponentData(i)
		if err != nil {
			return "", nil, err
		}
		raw = data.CustomID
	case discord.InteractionTypeModalSubmit:
		data, err := ModalData(i)
		if err != nil {
			return "", nil, err
		}
		raw = data.CustomID
	default:
		return "", nil, reject("Wrong type of interaction data")
	}

	name, args, err := customid.Decode(raw)
	if err != nil {
		return "", nil, rejectWrap("No name in data", err)
	}
	return name, args, nil
}

// ScanCustomID decodes the interaction's RPC identifier and scans its
// arguments into dests, requiring exact arity.
func ScanCustomID(i *discord.Interaction, dests ...any) (string, error) {
	name, args, err := CustomID(i)
	if err != nil {
		return "", err
	}
	if err := customid.Scan(args, dests...); err != nil {
		return "", rejectWrap("Arguments could not be parsed", err)
	}
	return name, nil
}

// Optional converts an extractor result into an absent value instead of
// a rejection, for fields the user may legitimately omit.
func Optional[T any](value T, err error) (T, bool) {
	if err != nil {
		var zero T
		return zero, false
	}
	return value, true
}

// SelectedUser extracts the single selection from a user-select component.
func SelectedUser(data *discord.ComponentData) (snowflake.ID, error) {
	if len(data.Values) == 0 {
		return 0, reject("No user was selected")
	}
	id, err := snowflake.Parse(data.Values[0])
	if err != nil {
		return 0, rejectWrap("Arguments could not be parsed", err)
	}
	return id, nil
}

// TextValues flattens a modal submission into a custom-id to value map.
func TextValues(data *discord.ModalData) map[string]string {
	values := make(map[string]string)
	var walk func([]discord.Component)
	walk = func(components []discord.Component) {
		for _, c := range components {
			if c.Type == discord.ComponentTypeTextInput && c.CustomID != "" {
				values[c.CustomID] = c.Value
			}
			if len(c.Components) > 0 {
				walk(c.Components)
			}
		}
	}
	walk(data.Components)
	return values
}

// SetupCommand is the parsed option set of the report-setup command.
type SetupCommand struct {
	Channel snowflake.ID
	Prompt  string
}

const maxPromptLength = 100

// ParseSetupCommand coerces the free-form option list of a report-setup
// invocation into its structured shape.
func ParseSetupCommand(data *discord.CommandData) (SetupCommand, error) {
	var cmd SetupCommand
	for _, opt := range data.Options {
		switch opt.Name {
		case "channel":
			id, err := opt.SnowflakeValue()
			if err != nil {
				return SetupCommand{}, rejectWrap("Arguments could not be parsed", err)
			}
			cmd.Channel = id
		case "prompt":
			prompt, err := opt.StringValue()
			if err != nil {
				return SetupCommand{}, rejectWrap("Arguments could not be parsed", err)
			}
			cmd.Prompt = prompt
		}
	}
	if cmd.Channel.IsZero() {
		return SetupCommand{}, rejectWrap("Arguments could not be parsed", errors.New("channel option is required"))
	}
	if utf8.RuneCountInString(cmd.Prompt) > maxPromptLength {
		return SetupCommand{}, reject(fmt.Sprintf("Prompt must be at most %d characters", maxPromptLength))
	}
	return cmd, nil
}
