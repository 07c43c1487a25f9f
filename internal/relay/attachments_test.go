package relay

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/discord"
)

func TestAttachmentRowsBatchesFivePerRow(t *testing.T) {
	var attachments []discord.Attachment
	for i := 0; i < 12; i++ {
		attachments = append(attachments, discord.Attachment{
			Filename: fmt.Sprintf("file-%d.png", i),
			URL:      fmt.Sprintf("https://cdn.example/file-%d.png", i),
		})
	}

	rows := AttachmentRows(attachments)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0].Components, 5)
	assert.Len(t, rows[1].Components, 5)
	assert.Len(t, rows[2].Components, 2)

	for _, row := range rows {
		assert.Equal(t, discord.ComponentTypeActionRow, row.Type)
		for _, button := range row.Components {
			assert.Equal(t, discord.ComponentTypeButton, button.Type)
			assert.Equal(t, discord.ButtonStyleLink, button.Style)
			assert.NotEmpty(t, button.URL)
			assert.Empty(t, button.CustomID, "link buttons carry no custom id")
		}
	}
	assert.Equal(t, "file-0.png", rows[0].Components[0].Label)
	assert.Equal(t, "https://cdn.example/file-11.png", rows[2].Components[1].URL)
}

func TestAttachmentRowsEmptyIsNil(t *testing.T) {
	assert.Nil(t, AttachmentRows(nil))
	assert.Nil(t, AttachmentRows([]discord.Attachment{}))
}

func TestAttachmentRowsTruncatesLongFilenames(t *testing.T) {
	long := strings.Repeat("é", 120) + ".png"
	rows := AttachmentRows([]discord.Attachment{{Filename: long, URL: "https://cdn.example/a"}})

	require.Len(t, rows, 1)
	label := rows[0].Components[0].Label
	assert.Equal(t, maxButtonLabelLength, utf8.RuneCountInString(label))
	assert.True(t, strings.HasSuffix(label, "..."))
}

func TestAttachmentRowsNamesUnnamedFiles(t *testing.T) {
	rows := AttachmentRows([]discord.Attachment{{URL: "https://cdn.example/blob"}})

	require.Len(t, rows, 1)
	assert.Equal(t, "attachment", rows[0].Components[0].Label)
}
