package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleReaction(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	var m ChatMessage

	require.NoError(t, m.ToggleReaction("👍", alice))
	require.NoError(t, m.ToggleReaction("👍", bob))
	reactions := m.ReactionMap()
	assert.Len(t, reactions["👍"], 2)

	// Removing the last member drops the emoji entirely.
	require.NoError(t, m.ToggleReaction("👍", alice))
	require.NoError(t, m.ToggleReaction("👍", bob))
	reactions = m.ReactionMap()
	assert.NotContains(t, reactions, "👍")
}

func TestAttachmentRoundTrip(t *testing.T) {
	var m ChatMessage
	assert.Empty(t, m.AttachmentList())

	in := []Attachment{{URL: "https://cdn.example.com/a.png", Name: "a.png", ContentType: "image/png", Size: 1234}}
	require.NoError(t, m.SetAttachments(in))

	out := m.AttachmentList()
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])

	// nil list encodes as an empty array, not null.
	require.NoError(t, m.SetAttachments(nil))
	assert.Equal(t, "[]", string(m.Attachments))
}
