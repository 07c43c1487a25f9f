// Package discord is a hand-rolled client for the slice of the Discord
// API this bot uses: a REST wrapper and a gateway session.
package discord

import (
	"github.com/randomairborne/aghast/internal/snowflake"
)

// MaxMessageLength is the platform's content limit per message.
const MaxMessageLength = 2000

// Channel types.
const (
	ChannelTypeGuildText     = 0
	ChannelTypeDM            = 1
	ChannelTypePublicThread  = 11
	ChannelTypePrivateThread = 12
	ChannelTypeGuildForum    = 15
)

// Component types.
const (
	ComponentTypeActionRow  = 1
	ComponentTypeButton     = 2
	ComponentTypeTextInput  = 4
	ComponentTypeUserSelect = 5
)

// Button styles.
const (
	ButtonStylePrimary = 1
	ButtonStyleLink    = 5
)

// Text input styles.
const (
	TextInputShort     = 1
	TextInputParagraph = 2
)

// User is a Discord account.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	GlobalName    string       `json:"global_name"`
	Bot           bool         `json:"bot"`
}

// Tag renders the user the way staff recognize them. Accounts migrated
// off the legacy discriminator system report discriminator "0".
func (u User) Tag() string {
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

// Mention renders a clickable mention.
func (u User) Mention() string {
	return "<@" + u.ID.String() + ">"
}

// Member is a user's guild-specific profile.
type Member struct {
	User        *User  `json:"user"`
	Nick        string `json:"nick"`
	Permissions string `json:"permissions"`
}

// DisplayName picks the most specific name available.
func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Tag()
	}
	return ""
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	ID       snowflake.ID `json:"id"`
	Filename string       `json:"filename"`
	URL      string       `json:"url"`
	ProxyURL string       `json:"proxy_url"`
	Size     int          `json:"size"`
}

// MessageReference points a message at the one it replies to.
type MessageReference struct {
	MessageID snowflake.ID `json:"message_id,omitempty"`
	ChannelID snowflake.ID `json:"channel_id,omitempty"`
}

// Message is a message as Discord delivers it over REST or gateway.
type Message struct {
	ID          snowflake.ID `json:"id"`
	ChannelID   snowflake.ID `json:"channel_id"`
	GuildID     snowflake.ID `json:"guild_id"`
	Author      User         `json:"author"`
	Member      *Member      `json:"member"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}

// ThreadMetadata carries the thread lifecycle flags.
type ThreadMetadata struct {
	Archived bool `json:"archived"`
	Locked   bool `json:"locked"`
}

// Channel is a channel or thread.
type Channel struct {
	ID             snowflake.ID    `json:"id"`
	Type           int             `json:"type"`
	GuildID        snowflake.ID    `json:"guild_id"`
	Name           string          `json:"name"`
	ParentID       snowflake.ID    `json:"parent_id"`
	ThreadMetadata *ThreadMetadata `json:"thread_metadata"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is one labeled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedAuthor attributes an embed to a person.
type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

// Component is a message component. One struct covers every kind the
// bot touches: rows, buttons, user selects, and modal text inputs. The
// Type field decides which of the remaining fields apply.
type Component struct {
	Type        int         `json:"type"`
	Style       int         `json:"style,omitempty"`
	Label       string      `json:"label,omitempty"`
	CustomID    string      `json:"custom_id,omitempty"`
	URL         string      `json:"url,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    *bool       `json:"required,omitempty"`
	Value       string      `json:"value,omitempty"`
	Components  []Component `json:"components,omitempty"`
}

// ActionRow wraps components in a row container.
func ActionRow(children ...Component) Component {
	return Component{Type: ComponentTypeActionRow, Components: children}
}

// Application is the bot's application identity.
type Application struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	VerifyKey string       `json:"verify_key"`
}

// Permission bitsets used in command definitions, serialized as decimal
// strings per the platform contract.
const PermissionManageGuild = "32"

// Command option types.
const (
	OptionTypeString  = 3
	OptionTypeInteger = 4
	OptionTypeBoolean = 5
	OptionTypeUser    = 6
	OptionTypeChannel = 7
)

// CommandDefinition declares a global application command.
type CommandDefinition struct {
	Name                     string                    `json:"name"`
	Description              string                    `json:"description"`
	Options                  []CommandOptionDefinition `json:"options,omitempty"`
	DefaultMemberPermissions string                    `json:"default_member_permissions,omitempty"`
	DMPermission             *bool                     `json:"dm_permission,omitempty"`
}

// CommandOptionDefinition declares one command option.
type CommandOptionDefinition struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
	MaxLength   int    `json:"max_length,omitempty"`
}
