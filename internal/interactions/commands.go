package interactions

import "github.com/randomairborne/aghast/internal/discord"

// Commands returns the application command set registered at startup.
func Commands() []discord.CommandDefinition {
	dmPermission := false
	return []discord.CommandDefinition{
		{
			Name:                     "report-setup",
			Description:              "Post the report prompt with its button and user picker",
			DefaultMemberPermissions: discord.PermissionManageGuild,
			DMPermission:             &dmPermission,
			Options: []discord.CommandOptionDefinition{
				{
					Type:        discord.OptionTypeChannel,
					Name:        "channel",
					Description: "Channel reports are delivered to",
					Required:    true,
				},
				{
					Type:        discord.OptionTypeString,
					Name:        "prompt",
					Description: "Text shown above the report button",
					MaxLength:   maxPromptLength,
				},
			},
		},
	}
}
