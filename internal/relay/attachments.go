package relay

import "github.com/randomairborne/aghast/internal/discord"

const (
	// maxButtonsPerRow is the platform's action row capacity.
	maxButtonsPerRow = 5

	maxButtonLabelLength = 80
)

// AttachmentRows rehosts attachments as link buttons labeled with their
// filenames, batched five per row.
func AttachmentRows(attachments []discord.Attachment) []discord.Component {
	if len(attachments) == 0 {
		return nil
	}

	rows := make([]discord.Component, 0, (len(attachments)+maxButtonsPerRow-1)/maxButtonsPerRow)
	for start := 0; start < len(attachments); start += maxButtonsPerRow {
		end := start + maxButtonsPerRow
		if end > len(attachments) {
			end = len(attachments)
		}

		row := discord.Component{Type: discord.ComponentTypeActionRow}
		for _, attachment := range attachments[start:end] {
			row.Components = append(row.Components, discord.Component{
				Type:  discord.ComponentTypeButton,
				Style: discord.ButtonStyleLink,
				Label: buttonLabel(attachment.Filename),
				URL:   attachment.URL,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func buttonLabel(filename string) string {
	if filename == "" {
		return "attachment"
	}
	runes := []rune(filename)
	if len(runes) <= maxButtonLabelLength {
		return filename
	}
	return string(runes[:maxButtonLabelLength-3]) + "..."
}
