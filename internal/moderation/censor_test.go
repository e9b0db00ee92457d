package moderation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkboard/backend/internal/models"
)

func TestCensorText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"single word", "hello", "█████"},
		{"spaces kept", "bad words here", "███ █████ ████"},
		{"newlines kept", "line one\nline two", "████ ███\n████ ███"},
		{"multibyte runes", "héllo wörld", "█████ █████"},
		{"only whitespace", " \n ", " \n "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CensorText(tt.input))
		})
	}
}

func TestCensorTextPreservesRuneLength(t *testing.T) {
	inputs := []string{"hello", "a b c", "çok güzel", "多字节\n内容"}
	for _, in := range inputs {
		out := CensorText(in)
		assert.Equal(t, utf8.RuneCountInString(in), utf8.RuneCountInString(out), "input %q", in)
	}
}

func TestCensorTextIdempotent(t *testing.T) {
	once := CensorText("some reported content\nwith lines")
	twice := CensorText(once)
	assert.Equal(t, once, twice)
}

func TestCensorTextMasksEverythingElse(t *testing.T) {
	out := CensorText("abc def")
	for _, r := range out {
		if r != ' ' && r != '\n' {
			assert.Equal(t, '█', r)
		}
	}
	assert.False(t, strings.ContainsAny(out, "abcdef"))
}

func TestVisibleThreadsMasksOnlyBannedAuthors(t *testing.T) {
	bannedAuthor := uuid.New()
	activeAuthor := uuid.New()
	threads := []models.Thread{
		{AuthorID: bannedAuthor, Title: "spam title", Content: "spam body"},
		{AuthorID: activeAuthor, Title: "fine title", Content: "fine body"},
	}
	banned := map[uuid.UUID]struct{}{bannedAuthor: {}}

	out := VisibleThreads(threads, banned)
	require.Len(t, out, 2)
	assert.Equal(t, "████ █████", out[0].Title)
	assert.Equal(t, "████ ████", out[0].Content)
	assert.Equal(t, "fine title", out[1].Title)
	assert.Equal(t, "fine body", out[1].Content)

	// Originals untouched: the mask is display-only.
	assert.Equal(t, "spam title", threads[0].Title)
}

func TestVisibleProfile(t *testing.T) {
	u := models.User{Status: models.StatusBanned, About: "my bio"}
	out := VisibleProfile(u)
	assert.Equal(t, "██ ███", out.About)

	active := models.User{Status: models.StatusActive, About: "my bio"}
	assert.Equal(t, "my bio", VisibleProfile(active).About)
}

func TestBannedIDs(t *testing.T) {
	banned := models.User{ID: uuid.New(), Status: models.StatusBanned}
	warned := models.User{ID: uuid.New(), Status: models.StatusWarned}
	active := models.User{ID: uuid.New(), Status: models.StatusActive}

	set := BannedIDs([]models.User{banned, warned, active})
	assert.Len(t, set, 1)
	assert.Contains(t, set, banned.ID)
}
